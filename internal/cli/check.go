package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cordova-wrap/internal/config"
	"github.com/shinji-kodama/cordova-wrap/internal/deps"
	"github.com/shinji-kodama/cordova-wrap/internal/model"
)

// NewCheckCommand creates the "check" cobra command.
func NewCheckCommand() *cobra.Command {
	var dockerImage string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that node, npm and cordova are available",
		Long: `Verify that node, npm and cordova are available.

When cordova is missing, check runs "npm install -g cordova" once. With
--docker-image the tools are probed inside that image instead.

Exits with code 7 when a tool is still missing.

Examples:
  cordova-wrap check
  cordova-wrap check --docker-image beevelop/cordova:latest`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			profile := &config.Profile{DockerImage: dockerImage}
			if !cmd.Flags().Changed("docker-image") {
				profile.ApplyEnv(os.Getenv)
			}

			p := newPrinter(cmd)
			exec, cleanup, err := selectExecutor(cmd.Context(), profile.DockerImage)
			if err != nil {
				return err
			}
			defer cleanup()

			events := p.events()
			events.EmitProgress(0, "Checking dependencies...")
			report := deps.NewProber(exec).Check(cmd.Context(), events.LogFunc())
			if report.OK {
				events.EmitProgress(100, "Done!")
			}
			p.result(report, func(w io.Writer) { printCheckReport(w, report) })
			if !report.OK {
				return model.NewCLIError(model.ExitDependencyMissing,
					fmt.Sprintf("missing dependencies: %s", joinTools(report.Missing)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dockerImage, "docker-image", "", "Probe the tools inside this Docker image")

	return cmd
}

// printCheckReport prints the versions that answered, in probe order.
func printCheckReport(w io.Writer, report deps.Report) {
	fmt.Fprintln(w)
	for _, tool := range []deps.Tool{deps.ToolNode, deps.ToolNPM, deps.ToolCordova} {
		if v, ok := report.Versions[tool]; ok {
			fmt.Fprintf(w, "%-8s %s\n", tool, v)
		}
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(w, "missing: %s\n", joinTools(report.Missing))
	}
}

func joinTools(tools []deps.Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
