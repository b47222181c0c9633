// Package model defines the domain types for the cordova-wrap CLI.
//
// All entities in this package are transient and single-use: a WrapRequest
// lives for exactly one pipeline run, and progress events and log lines are
// handed to the caller as they happen. Nothing here is persisted; the only
// lasting output of a run is the destination project tree on disk.
package model

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// DefaultPlatform is the native platform added to every wrapped project
// unless the caller asks for another one.
const DefaultPlatform = "android"

// DefaultVersion is the app version used when the caller supplies none.
const DefaultVersion = "1.0.0"

// SiteSubdir is the path, relative to the project root, where the wrapped
// website is injected. The routing script resolves its landing page against
// this location.
const SiteSubdir = "www/site"

// Sentinel errors for conditions that callers commonly branch on.
// They are wrapped inside CLIError values, so use errors.Is to test for them.
var (
	// ErrSourceMissing means the source website folder does not exist,
	// is not a directory, or is empty.
	ErrSourceMissing = errors.New("source directory missing")

	// ErrDestinationExists means the destination exists and overwrite
	// was not requested.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrPathOverlap means the source, destination, or template paths
	// contain one another, which would make copying or deleting unsafe.
	ErrPathOverlap = errors.New("paths overlap")
)

// WrapRequest carries the inputs of a single wrap run.
//
// The CLI validates AppID and Version before building a request; the
// pipeline only checks that required fields are present and that the
// source directory really exists.
type WrapRequest struct {
	// SourceDir is the static website folder to wrap.
	SourceDir string `json:"sourceDir" yaml:"source"`

	// DestDir is the project directory to create.
	DestDir string `json:"destDir" yaml:"dest"`

	// AppName is the human-readable application name.
	AppName string `json:"appName" yaml:"name"`

	// AppID is the reverse-DNS bundle identifier (e.g., "com.example.app").
	AppID string `json:"appId" yaml:"id"`

	// Version is the semantic-version-like app version (e.g., "1.0.0").
	Version string `json:"version" yaml:"version"`

	// Overwrite allows an existing DestDir to be deleted and replaced.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`

	// Platform is the native platform passed to `cordova platform add`.
	// Empty means DefaultPlatform.
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
}

// Validate checks that every required field is set. It performs no
// filesystem access.
func (r *WrapRequest) Validate() error {
	missing := make([]string, 0, 5)
	if strings.TrimSpace(r.SourceDir) == "" {
		missing = append(missing, "source directory")
	}
	if strings.TrimSpace(r.DestDir) == "" {
		missing = append(missing, "destination directory")
	}
	if strings.TrimSpace(r.AppName) == "" {
		missing = append(missing, "app name")
	}
	if strings.TrimSpace(r.AppID) == "" {
		missing = append(missing, "app id")
	}
	if strings.TrimSpace(r.Version) == "" {
		missing = append(missing, "version")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

// PlatformOrDefault returns the requested platform, or DefaultPlatform
// when none was given.
func (r *WrapRequest) PlatformOrDefault() string {
	if p := strings.TrimSpace(r.Platform); p != "" {
		return p
	}
	return DefaultPlatform
}

// appIDRegex accepts reverse-DNS identifiers with at least two segments.
// Each segment starts with a letter; Cordova rejects hyphens in Android
// package names, so only letters, digits and underscores are allowed.
var appIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\.[A-Za-z][A-Za-z0-9_]*)+$`)

// ValidateAppID checks that id is a usable reverse-DNS bundle identifier.
func ValidateAppID(id string) error {
	if id == "" {
		return fmt.Errorf("app id must not be empty")
	}
	if !appIDRegex.MatchString(id) {
		return fmt.Errorf("invalid app id %q: expected reverse-DNS form such as com.example.app", id)
	}
	return nil
}

var versionRegex = regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.-]+)?$`)

// ValidateVersion checks that v looks like MAJOR.MINOR.PATCH with an
// optional pre-release suffix.
func ValidateVersion(v string) error {
	if v == "" {
		return fmt.Errorf("version must not be empty")
	}
	if !versionRegex.MatchString(v) {
		return fmt.Errorf("invalid version %q: expected MAJOR.MINOR.PATCH", v)
	}
	return nil
}

// DeriveDefaults fills a WrapRequest from a source folder path the way a
// user would usually name things:
//
//	source:  /home/me/my-site
//	dest:    /home/me/my-site Wrapped
//	name:    my-site
//	id:      com.example.mysite
//	version: 1.0.0
func DeriveDefaults(sourceDir string) WrapRequest {
	cleaned := filepath.Clean(sourceDir)
	folder := filepath.Base(cleaned)
	parent := filepath.Dir(cleaned)

	var safe strings.Builder
	for _, r := range strings.ToLower(folder) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			safe.WriteRune(r)
		}
	}
	suffix := safe.String()
	// Java package segments may not start with a digit.
	if suffix == "" || (suffix[0] >= '0' && suffix[0] <= '9') {
		suffix = "app" + suffix
	}

	return WrapRequest{
		SourceDir: sourceDir,
		DestDir:   filepath.Join(parent, folder+" Wrapped"),
		AppName:   folder,
		AppID:     "com.example." + suffix,
		Version:   DefaultVersion,
		Platform:  DefaultPlatform,
	}
}

// ProgressEvent reports a pipeline milestone. Percent is strictly
// increasing within a single run.
type ProgressEvent struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// String renders the event as a transcript line, e.g. "[30%] Injecting website content...".
func (e ProgressEvent) String() string {
	return fmt.Sprintf("[%d%%] %s", e.Percent, e.Label)
}

// LogLine is one entry of the run transcript.
type LogLine struct {
	Text string `json:"text"`
}

// LogFunc receives transcript text. Components that shell out or report
// failures take one of these rather than writing to a global logger.
type LogFunc func(text string)

// Events is the per-run sink for progress and log output. Either field may
// be nil. The pipeline calls them synchronously from its own goroutine;
// marshaling onto a UI thread is the caller's job.
type Events struct {
	Progress func(ProgressEvent)
	Log      func(LogLine)
}

// EmitProgress forwards a progress event if a progress callback is set.
func (e Events) EmitProgress(percent int, label string) {
	if e.Progress != nil {
		e.Progress(ProgressEvent{Percent: percent, Label: label})
	}
}

// Logf formats and forwards a log line if a log callback is set.
func (e Events) Logf(format string, args ...interface{}) {
	if e.Log != nil {
		e.Log(LogLine{Text: fmt.Sprintf(format, args...)})
	}
}

// LogFunc adapts the log callback to a LogFunc for components that only
// need to write text.
func (e Events) LogFunc() LogFunc {
	return func(text string) {
		if e.Log != nil {
			e.Log(LogLine{Text: text})
		}
	}
}

// StepStatus is the outcome of a single pipeline step.
type StepStatus string

const (
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	// StepWarning marks a non-fatal failure: the run continues and the
	// project is still usable, but manual follow-up is needed.
	StepWarning StepStatus = "warning"
	StepSkipped StepStatus = "skipped"
)

// StepResult records what happened in one pipeline step.
type StepResult struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	DurationMs int64      `json:"durationMs"`
}

// WrapResult summarizes a finished run. It is returned for failed runs too,
// so callers can show which step stopped the pipeline.
type WrapResult struct {
	RunID    string       `json:"runId"`
	DestDir  string       `json:"destDir"`
	Steps    []StepResult `json:"steps"`
	Warnings []string     `json:"warnings,omitempty"`
}

// Record appends a step result, measuring its duration from start.
func (r *WrapResult) Record(name string, status StepStatus, message string, start time.Time) {
	r.Steps = append(r.Steps, StepResult{
		Name:       name,
		Status:     status,
		Message:    message,
		DurationMs: time.Since(start).Milliseconds(),
	})
	if status == StepWarning && message != "" {
		r.Warnings = append(r.Warnings, message)
	}
}

// ExitCode defines the CLI exit codes. Scripts can rely on these to tell
// apart "bad input" from "template drift" from "toolchain missing".
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidInput indicates missing or malformed request fields,
	// or a missing source directory.
	ExitInvalidInput ExitCode = 2

	// ExitDestinationExists indicates the destination exists and
	// overwrite was not requested, or it could not be removed.
	ExitDestinationExists ExitCode = 3

	// ExitStagingFailed indicates copying the template or site failed.
	ExitStagingFailed ExitCode = 4

	// ExitConfigureFailed indicates a configuration artifact could not
	// be read, parsed, or written.
	ExitConfigureFailed ExitCode = 5

	// ExitPatchMismatch indicates the routing script no longer contains
	// the statements we rewrite. This means the template drifted.
	ExitPatchMismatch ExitCode = 6

	// ExitDependencyMissing indicates node, npm, or cordova is unavailable.
	ExitDependencyMissing ExitCode = 7

	// ExitDockerUnavailable indicates the container executor was requested
	// but the Docker daemon could not be reached.
	ExitDockerUnavailable ExitCode = 8
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf returns the exit code carried by err, or ExitGeneralError if
// err is not (and does not wrap) a CLIError. A nil error maps to ExitSuccess.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}
