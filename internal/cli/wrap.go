package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cordova-wrap/internal/config"
	"github.com/shinji-kodama/cordova-wrap/internal/docker"
	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/project"
	"github.com/shinji-kodama/cordova-wrap/internal/runner"
	"github.com/shinji-kodama/cordova-wrap/internal/skeleton"
)

// wrapFlags holds the flag values for the wrap command.
type wrapFlags struct {
	dest        string
	name        string
	id          string
	version     string
	platform    string
	overwrite   bool
	template    string
	exclude     []string
	skipCheck   bool
	dockerImage string
	configPath  string
}

// wrapSettings is the fully resolved input of a wrap run.
type wrapSettings struct {
	request     model.WrapRequest
	template    string
	exclude     []string
	skipCheck   bool
	dockerImage string
}

// NewWrapCommand creates the "wrap" cobra command.
func NewWrapCommand() *cobra.Command {
	flags := &wrapFlags{}

	cmd := &cobra.Command{
		Use:   "wrap [source-dir]",
		Short: "Create a Cordova project from a website folder",
		Long: `Create a Cordova project that bundles a static website.

Unset values are derived from the source folder: for ./my-site the project
is written to "./my-site Wrapped" with name "my-site", id
"com.example.mysite" and version 1.0.0.

An existing destination is only replaced with --overwrite; without it the
command fails and leaves the destination untouched.

Values are read from --config (YAML or CUE), then from the
CORDOVA_WRAP_TEMPLATE, CORDOVA_WRAP_PLATFORM and CORDOVA_WRAP_DOCKER_IMAGE
environment variables, then from flags.

Examples:
  cordova-wrap wrap ./my-site
  cordova-wrap wrap ./my-site --name "My Site" --id com.example.mysite --app-version 2.1.0
  cordova-wrap wrap ./my-site --dest ./build/app --overwrite --platform ios
  cordova-wrap wrap --config wrap.yaml --json`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := resolveWrapSettings(cmd, args, flags)
			if err != nil {
				return err
			}
			return runWrap(cmd.Context(), newPrinter(cmd), settings)
		},
	}

	bindWrapFlags(cmd, flags)

	return cmd
}

// bindWrapFlags registers the wrap flags on cmd.
func bindWrapFlags(cmd *cobra.Command, flags *wrapFlags) {
	f := cmd.Flags()
	f.StringVar(&flags.dest, "dest", "", `Destination project directory (default: "<source> Wrapped")`)
	f.StringVar(&flags.name, "name", "", "App name (default: source folder name)")
	f.StringVar(&flags.id, "id", "", "Reverse-DNS app id (default: com.example.<folder>)")
	f.StringVar(&flags.version, "app-version", "", "App version (default: "+model.DefaultVersion+")")
	f.StringVar(&flags.platform, "platform", "", "Cordova platform to add (default: "+model.DefaultPlatform+")")
	f.BoolVarP(&flags.overwrite, "overwrite", "f", false, "Delete and replace an existing destination")
	f.StringVar(&flags.template, "template", "", "Project template directory (default: built-in template)")
	f.StringArrayVar(&flags.exclude, "exclude", nil, "Extra gitignore-style pattern to leave out of the template (repeatable)")
	f.BoolVar(&flags.skipCheck, "skip-check", false, "Skip the node/npm/cordova check")
	f.StringVar(&flags.dockerImage, "docker-image", "", "Run npm and cordova inside this Docker image")
	f.StringVar(&flags.configPath, "config", "", "Wrap profile (.yaml, .yml or .cue)")
}

// resolveWrapSettings layers profile, environment and flags into the
// settings of one run, and validates the app id and version.
func resolveWrapSettings(cmd *cobra.Command, args []string, flags *wrapFlags) (*wrapSettings, error) {
	profile := &config.Profile{}
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitInvalidInput, "failed to load wrap profile", err)
		}
		profile = loaded
		VerboseLog("Loaded wrap profile %s", flags.configPath)
	}
	profile.ApplyEnv(os.Getenv)

	if len(args) == 1 {
		profile.Source = args[0]
	}
	if profile.Source == "" {
		return nil, model.NewCLIError(model.ExitInvalidInput, "source directory is required (argument or profile \"source\")")
	}

	req := profile.Request()
	changed := cmd.Flags().Changed
	if changed("dest") {
		req.DestDir = flags.dest
	}
	if changed("name") {
		req.AppName = flags.name
	}
	if changed("id") {
		req.AppID = flags.id
	}
	if changed("app-version") {
		req.Version = flags.version
	}
	if changed("platform") {
		req.Platform = flags.platform
	}
	if changed("overwrite") {
		req.Overwrite = flags.overwrite
	}

	settings := &wrapSettings{
		request:     req,
		template:    profile.Template,
		exclude:     append(append([]string(nil), profile.Exclude...), flags.exclude...),
		skipCheck:   profile.SkipCheck,
		dockerImage: profile.DockerImage,
	}
	if changed("template") {
		settings.template = flags.template
	}
	if changed("skip-check") {
		settings.skipCheck = flags.skipCheck
	}
	if changed("docker-image") {
		settings.dockerImage = flags.dockerImage
	}

	if err := model.ValidateAppID(req.AppID); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput, "invalid --id", err)
	}
	if err := model.ValidateVersion(req.Version); err != nil {
		return nil, model.WrapCLIError(model.ExitInvalidInput, "invalid --app-version", err)
	}
	return settings, nil
}

// runWrap builds the executor and template, runs the pipeline, and prints
// the result.
func runWrap(ctx context.Context, p *printer, s *wrapSettings) error {
	tmpl := skeleton.Embedded()
	if s.template != "" {
		var err error
		tmpl, err = skeleton.FromDir(s.template)
		if err != nil {
			return model.WrapCLIError(model.ExitInvalidInput, "invalid --template", err)
		}
		VerboseLog("Using template %s", tmpl)
	}

	exec, cleanup, err := selectExecutor(ctx, s.dockerImage)
	if err != nil {
		return err
	}
	defer cleanup()

	m := project.New(exec, newLogger(p.errw))
	m.Template = tmpl
	m.SkipDependencyCheck = s.skipCheck
	m.Exclude = s.exclude

	result, err := m.Wrap(ctx, s.request, p.events())
	if result != nil && (err == nil || p.json) {
		p.result(result, func(w io.Writer) { printWrapSummary(w, result) })
	}
	return err
}

// selectExecutor returns the local executor, or a container executor when
// image is set. cleanup releases the Docker connection.
func selectExecutor(ctx context.Context, image string) (runner.Executor, func(), error) {
	if image == "" {
		return newLocalExecutor(), func() {}, nil
	}

	c, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	VerboseLog("Connected to Docker daemon (API %s); running toolchain in %s", c.APIVersion(), image)
	return docker.NewExecutor(c, image), func() { _ = c.Close() }, nil
}

// printWrapSummary prints the outcome of a successful run.
func printWrapSummary(w io.Writer, result *model.WrapResult) {
	fmt.Fprintf(w, "\nProject created at %s\n", result.DestDir)
	if len(result.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "Completed with %d warning(s):\n", len(result.Warnings))
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "  - %s\n", warning)
	}
}
