package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/patch"
)

// inspectFlags holds the expected identity passed to the inspect command.
type inspectFlags struct {
	name    string
	id      string
	version string
}

// inspectResult is the JSON output of the inspect command.
type inspectResult struct {
	Identity   *patch.Identity         `json:"identity"`
	Mismatches []patch.ValidationError `json:"mismatches"`
}

// NewInspectCommand creates the "inspect" cobra command.
func NewInspectCommand() *cobra.Command {
	flags := &inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect <project-dir>",
		Short: "Show and verify the identity of a wrapped project",
		Long: `Read the app identity recorded in config.xml, package.json and the
routing script of a wrapped project, and check that the three agree.

With --name, --id or --app-version the identity is also compared against
the expected values. Exits with code 5 on any mismatch.

Examples:
  cordova-wrap inspect "./my-site Wrapped"
  cordova-wrap inspect ./build/app --id com.example.mysite --app-version 2.1.0 --json`,

		Args: cobra.ExactArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(newPrinter(cmd), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.name, "name", "", "Expected app name")
	cmd.Flags().StringVar(&flags.id, "id", "", "Expected app id")
	cmd.Flags().StringVar(&flags.version, "app-version", "", "Expected app version")

	return cmd
}

func runInspect(p *printer, dir string, flags *inspectFlags) error {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return model.NewCLIError(model.ExitInvalidInput, fmt.Sprintf("project directory %s does not exist", dir))
	}

	ident, err := patch.Inspect(dir)
	if err != nil {
		code := model.ExitConfigureFailed
		if errors.Is(err, fs.ErrNotExist) {
			code = model.ExitInvalidInput
		}
		return model.WrapCLIError(code, fmt.Sprintf("failed to read project %s", dir), err)
	}

	// Unset expectations fall back to config.xml, so package.json is at
	// least checked against it.
	name, id, version := flags.name, flags.id, flags.version
	if name == "" {
		name = ident.Name
	}
	if id == "" {
		id = ident.ID
	}
	if version == "" {
		version = ident.Version
	}

	mismatches := patch.ValidateIdentity(ident, name, id, version)
	result := inspectResult{Identity: ident, Mismatches: mismatches}
	if result.Mismatches == nil {
		result.Mismatches = []patch.ValidationError{}
	}
	p.result(result, func(w io.Writer) { printIdentity(w, ident, mismatches) })

	if len(mismatches) > 0 {
		return model.NewCLIError(model.ExitConfigureFailed,
			fmt.Sprintf("project identity has %d mismatch(es)", len(mismatches)))
	}
	return nil
}

// printIdentity prints the identity as aligned key/value rows followed by
// any mismatches.
func printIdentity(w io.Writer, ident *patch.Identity, mismatches []patch.ValidationError) {
	rows := [][2]string{
		{"id", ident.ID},
		{"version", ident.Version},
		{"name", ident.Name},
		{"description", ident.Description},
		{"package", ident.PackageName},
		{"displayName", ident.DisplayName},
		{"pkgVersion", ident.PackageVersion},
		{"routing", routingState(ident.RoutingPatched)},
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%-12s %s\n", row[0], row[1])
	}

	if len(mismatches) == 0 {
		fmt.Fprintln(w, "\nAll artifacts agree.")
		return
	}
	fmt.Fprintln(w, "\nMismatches:")
	for _, m := range mismatches {
		fmt.Fprintf(w, "  %s: %s\n", m.Field, m.Message)
	}
}

func routingState(patched bool) string {
	if patched {
		return "local landing page"
	}
	return "not patched"
}
