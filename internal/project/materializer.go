// Package project turns a static website folder into a Cordova project.
//
// The Materializer runs a fixed sequence of steps, each reporting a
// progress milestone:
//
//	 0  Validate the request; advisory toolchain check
//	10  Prepare the destination (delete it when overwriting)
//	20  Stage the template, minus the exclusion list
//	30  Inject the site into www/site
//	50  Configure config.xml, package.json and the routing script
//	70  npm install                      (failure is a warning)
//	85  cordova platform add <platform>  (failure is a warning)
//	100 Done
//
// Steps up to 50 decide whether the output tree is structurally valid, so
// any failure there ends the run. The last two depend on network access
// and platform SDKs; their failure leaves a usable project that needs
// manual follow-up. Nothing is retried or rolled back.
package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shinji-kodama/cordova-wrap/internal/deps"
	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/patch"
	"github.com/shinji-kodama/cordova-wrap/internal/runner"
	"github.com/shinji-kodama/cordova-wrap/internal/skeleton"
)

// Step names recorded in model.WrapResult.
const (
	StepValidate            = "validate"
	StepCheckDependencies   = "check-dependencies"
	StepPrepareDestination  = "prepare-destination"
	StepStageTemplate       = "stage-template"
	StepInjectContent       = "inject-content"
	StepConfigureProject    = "configure-project"
	StepInstallDependencies = "install-dependencies"
	StepAddPlatform         = "add-platform"
)

// Materializer runs wrap pipelines. A single Materializer may be reused for
// any number of sequential runs; it keeps no per-run state.
type Materializer struct {
	// Exec runs npm and cordova. Required.
	Exec runner.Executor

	// Template is the project template to stage. The zero value selects
	// the built-in template.
	Template skeleton.Source

	// Logger receives structured diagnostics. Nil means slog.Default().
	Logger *slog.Logger

	// SkipDependencyCheck disables the advisory toolchain probe.
	SkipDependencyCheck bool

	// Exclude adds gitignore-style patterns to the template exclusion list.
	Exclude []string
}

// New returns a Materializer using exec and the built-in template.
func New(exec runner.Executor, logger *slog.Logger) *Materializer {
	return &Materializer{Exec: exec, Template: skeleton.Embedded(), Logger: logger}
}

// run holds the state of one Wrap call.
type run struct {
	m        *Materializer
	ctx      context.Context
	req      model.WrapRequest
	events   model.Events
	progress *progressTracker
	logger   *slog.Logger
	result   *model.WrapResult
	template skeleton.Source

	sourceDir string
	destDir   string
}

// Wrap materializes req.DestDir from the template and req.SourceDir.
//
// The returned result is non-nil even on failure and lists the steps that
// ran. The error is a *model.CLIError whose code identifies the failed
// step. Warnings from non-fatal steps do not produce an error.
func (m *Materializer) Wrap(ctx context.Context, req model.WrapRequest, events model.Events) (*model.WrapResult, error) {
	runID := uuid.NewString()

	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &run{
		m:        m,
		ctx:      ctx,
		req:      req,
		events:   events,
		progress: newProgressTracker(events),
		logger:   logger.With("run", runID),
		result:   &model.WrapResult{RunID: runID, DestDir: req.DestDir},
		template: m.Template,
	}
	if r.template.FS == nil {
		r.template = skeleton.Embedded()
	}

	r.logger.Info("wrap started", "source", req.SourceDir, "dest", req.DestDir, "template", r.template.String())
	err := r.execute()
	if err != nil {
		r.logger.Error("wrap failed", "error", err)
		return r.result, err
	}
	r.logger.Info("wrap finished", "warnings", len(r.result.Warnings))
	return r.result, nil
}

func (r *run) execute() error {
	r.progress.emit(PercentValidate, "Validating request...")
	if err := r.validate(); err != nil {
		return err
	}
	r.checkDependencies()

	steps := []struct {
		percent int
		label   string
		name    string
		fn      func() error
	}{
		{PercentPrepare, "Preparing destination folder...", StepPrepareDestination, r.prepareDestination},
		{PercentStage, "Copying project template...", StepStageTemplate, r.stageTemplate},
		{PercentInject, "Injecting website content...", StepInjectContent, r.injectContent},
		{PercentConfigure, "Configuring project...", StepConfigureProject, r.configure},
	}
	for _, step := range steps {
		r.progress.emit(step.percent, step.label)
		start := time.Now()
		if err := step.fn(); err != nil {
			r.result.Record(step.name, model.StepFailed, err.Error(), start)
			return err
		}
		r.result.Record(step.name, model.StepCompleted, "", start)
		r.logger.Debug("step completed", "step", step.name, "duration", time.Since(start))
	}

	r.progress.emit(PercentInstall, "Installing project dependencies (this may take a while)...")
	r.toolchainStep(StepInstallDependencies, []string{"npm", "install"},
		"Warning: npm install failed. You may need to run it manually.")

	platform := r.req.PlatformOrDefault()
	r.progress.emit(PercentPlatform, fmt.Sprintf("Preparing Cordova platform (%s)...", platform))
	r.toolchainStep(StepAddPlatform, []string{"cordova", "platform", "add", platform},
		fmt.Sprintf("Warning: Could not add %s platform. %s", platform, platformHint(platform)))

	r.progress.emit(PercentDone, "Done!")
	return nil
}

// log writes a transcript line.
func (r *run) log(format string, args ...interface{}) {
	r.events.Logf(format, args...)
}

// fail logs message to the transcript and returns it as a CLIError.
func (r *run) fail(code model.ExitCode, message string, err error) error {
	if err != nil {
		r.log("%s: %v", message, err)
		return model.WrapCLIError(code, message, err)
	}
	r.log("%s", message)
	return model.NewCLIError(code, message)
}

// validate checks the request before anything touches the file system.
// Every check here is read-only, so a failed validation is a no-op.
func (r *run) validate() error {
	start := time.Now()
	err := r.validateRequest()
	if err != nil {
		r.result.Record(StepValidate, model.StepFailed, err.Error(), start)
		return err
	}
	r.result.Record(StepValidate, model.StepCompleted, "", start)
	return nil
}

func (r *run) validateRequest() error {
	if r.m.Exec == nil {
		return r.fail(model.ExitGeneralError, "No command executor configured", nil)
	}
	if err := r.req.Validate(); err != nil {
		return r.fail(model.ExitInvalidInput, "Invalid request", err)
	}

	src, err := filepath.Abs(r.req.SourceDir)
	if err != nil {
		return r.fail(model.ExitInvalidInput, fmt.Sprintf("Could not resolve source directory %s", r.req.SourceDir), err)
	}
	dest, err := filepath.Abs(r.req.DestDir)
	if err != nil {
		return r.fail(model.ExitInvalidInput, fmt.Sprintf("Could not resolve destination %s", r.req.DestDir), err)
	}
	r.sourceDir, r.destDir = src, dest
	r.result.DestDir = dest

	info, err := os.Stat(src)
	if err != nil {
		return r.fail(model.ExitInvalidInput,
			fmt.Sprintf("Source directory %s does not exist", r.req.SourceDir), model.ErrSourceMissing)
	}
	if !info.IsDir() {
		return r.fail(model.ExitInvalidInput,
			fmt.Sprintf("Source %s is not a directory", r.req.SourceDir), model.ErrSourceMissing)
	}
	entries, err := os.ReadDir(src)
	if err != nil {
		return r.fail(model.ExitInvalidInput, fmt.Sprintf("Could not read source directory %s", src), err)
	}
	if len(entries) == 0 {
		return r.fail(model.ExitInvalidInput,
			fmt.Sprintf("Source directory %s is empty", r.req.SourceDir), model.ErrSourceMissing)
	}
	if _, err := os.Stat(filepath.Join(src, "index.html")); err != nil {
		r.warn(fmt.Sprintf("Warning: %s has no index.html; the app's landing page will not load.", r.req.SourceDir))
	}

	if err := r.checkOverlap(); err != nil {
		return err
	}

	if err := r.template.Validate(); err != nil {
		return r.fail(model.ExitStagingFailed, "Template is not usable", err)
	}

	if _, err := os.Lstat(dest); err == nil && !r.req.Overwrite {
		return r.fail(model.ExitDestinationExists,
			fmt.Sprintf("Destination %s exists. Aborting to prevent data loss", r.req.DestDir), model.ErrDestinationExists)
	}
	return nil
}

// checkOverlap rejects path layouts where copying or deleting would reach
// into the source or the template.
func (r *run) checkOverlap() error {
	overlap := func(message string) error {
		return r.fail(model.ExitInvalidInput, message, model.ErrPathOverlap)
	}

	if r.sourceDir == r.destDir {
		return overlap("Source and destination are the same directory.")
	}
	if _, inside := nestedRel(r.destDir, r.sourceDir); inside {
		return overlap(fmt.Sprintf("Source directory %s is inside the destination.", r.req.SourceDir))
	}
	if _, inside := nestedRel(r.sourceDir, r.destDir); inside {
		return overlap(fmt.Sprintf("Destination %s is inside the source directory.", r.req.DestDir))
	}

	if !r.template.IsEmbedded() {
		if r.template.Dir == r.destDir {
			return overlap("Template and destination are the same directory.")
		}
		if _, inside := nestedRel(r.destDir, r.template.Dir); inside {
			return overlap(fmt.Sprintf("Template directory %s is inside the destination.", r.template.Dir))
		}
	}
	return nil
}

// checkDependencies runs the advisory toolchain probe. Its outcome is
// recorded but never stops the run.
func (r *run) checkDependencies() {
	start := time.Now()
	if r.m.SkipDependencyCheck {
		r.result.Record(StepCheckDependencies, model.StepSkipped, "", start)
		return
	}

	report := deps.NewProber(r.m.Exec).Check(r.ctx, r.events.LogFunc())
	if report.OK {
		r.result.Record(StepCheckDependencies, model.StepCompleted, "", start)
		return
	}

	missing := make([]string, len(report.Missing))
	for i, tool := range report.Missing {
		missing[i] = string(tool)
	}
	message := fmt.Sprintf("Warning: toolchain incomplete (missing: %s); later steps may fail.", strings.Join(missing, ", "))
	r.log("%s", message)
	r.result.Record(StepCheckDependencies, model.StepWarning, message, start)
	r.logger.Warn("dependency check failed", "missing", missing)
}

func (r *run) prepareDestination() error {
	if _, err := os.Lstat(r.destDir); errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	// validate already refused an existing destination without overwrite.
	r.log("Destination %s exists. Cleaning up...", r.req.DestDir)
	if err := os.RemoveAll(r.destDir); err != nil {
		return r.fail(model.ExitDestinationExists, "Could not delete destination", err)
	}
	return nil
}

func (r *run) stageTemplate() error {
	extra, err := r.template.IgnorePatterns()
	if err != nil {
		return r.fail(model.ExitStagingFailed, "Error reading template ignore file", err)
	}
	deny := newDenylist(DefaultExcludes, extra, r.m.Exclude)

	if !r.template.IsEmbedded() {
		// The destination may sit inside a template checkout; never copy
		// it into itself.
		if rel, inside := nestedRel(r.template.Dir, r.destDir); inside {
			deny.skip[rel] = true
		}
	}

	stats, err := copyTree(r.template.FS, r.destDir, deny)
	if err != nil {
		return r.fail(model.ExitStagingFailed, "Error copying template", err)
	}
	r.log("Copied template (%d files, %d excluded).", stats.Files, stats.Skipped)
	r.logger.Debug("template staged", "files", stats.Files, "dirs", stats.Dirs, "skipped", stats.Skipped)
	return nil
}

func (r *run) injectContent() error {
	siteDir := filepath.Join(r.destDir, filepath.FromSlash(model.SiteSubdir))
	if _, err := os.Lstat(siteDir); err == nil {
		return r.fail(model.ExitStagingFailed,
			fmt.Sprintf("Template already contains %s; its content would be merged with the site", model.SiteSubdir), nil)
	}
	stats, err := copyTree(os.DirFS(r.sourceDir), siteDir, nil)
	if err != nil {
		return r.fail(model.ExitStagingFailed, "Error copying site content", err)
	}
	if stats.Symlinks > 0 {
		r.warn(fmt.Sprintf("Warning: skipped %d symbolic link(s) in %s.", stats.Symlinks, r.req.SourceDir))
	}
	r.log("Copied site content (%d files).", stats.Files)
	return nil
}

func (r *run) configure() error {
	err := patch.Configure(r.destDir, r.req.AppName, r.req.AppID, r.req.Version)
	if err == nil {
		return nil
	}

	code := model.ExitConfigureFailed
	if patch.IsPatchMismatch(err) {
		code = model.ExitPatchMismatch
	}

	var artErr *patch.ArtifactError
	if errors.As(err, &artErr) {
		return r.fail(code, fmt.Sprintf("Error updating %s", artErr.Artifact), artErr.Err)
	}
	return r.fail(code, "Error configuring project", err)
}

// toolchainStep runs a non-fatal external command in the destination.
func (r *run) toolchainStep(name string, argv []string, warning string) {
	start := time.Now()
	res := r.m.Exec.Run(r.ctx, runner.Command{Args: argv, Dir: r.destDir}, r.events.LogFunc())
	if res.Success {
		r.result.Record(name, model.StepCompleted, "", start)
		return
	}
	r.log("%s", warning)
	r.result.Record(name, model.StepWarning, warning, start)
	r.logger.Warn("toolchain step failed", "step", name, "error", res.Err)
}

// warn logs a warning that is not tied to a step.
func (r *run) warn(message string) {
	r.log("%s", message)
	r.result.Warnings = append(r.result.Warnings, message)
}

// platformHint tells the user what a failed `cordova platform add` usually
// needs.
func platformHint(platform string) string {
	switch platform {
	case "android":
		return "Ensure Android SDK is set up."
	case "ios":
		return "Ensure Xcode and CocoaPods are installed."
	case "browser", "electron":
		return "Check your network connection."
	default:
		return "Ensure the platform SDK is set up."
	}
}
