package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/cordova-wrap/internal/docker"
)

// cleanResult is the JSON output of the clean command.
type cleanResult struct {
	Containers []docker.ToolchainContainer `json:"containers"`
	Removed    []string                    `json:"removed"`
	DryRun     bool                        `json:"dryRun"`
}

// NewCleanCommand creates the "clean" cobra command.
func NewCleanCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover toolchain containers",
		Long: `Remove toolchain containers left behind by an interrupted
"wrap --docker-image" or "check --docker-image" run.

Only containers labeled cordova-wrap.managed-by=cordova-wrap are touched.

Examples:
  cordova-wrap clean --dry-run
  cordova-wrap clean --json`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), newPrinter(cmd), dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List containers without removing them")

	return cmd
}

func runClean(ctx context.Context, p *printer, dryRun bool) error {
	c, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Ping(ctx); err != nil {
		return err
	}
	VerboseLog("Connected to Docker daemon (API %s)", c.APIVersion())

	return clean(ctx, p, c.Engine(), dryRun)
}

// clean lists managed containers and removes them unless dryRun is set.
func clean(ctx context.Context, p *printer, engine docker.Engine, dryRun bool) error {
	containers, err := docker.ListToolchainContainers(ctx, engine)
	if err != nil {
		return err
	}
	VerboseLog("Found %d toolchain containers", len(containers))

	result := cleanResult{Containers: containers, Removed: []string{}, DryRun: dryRun}
	var removeErr error
	if !dryRun && len(containers) > 0 {
		removed, err := docker.RemoveToolchainContainers(ctx, engine, containers)
		result.Removed = append(result.Removed, removed...)
		removeErr = err
	}

	p.result(result, func(w io.Writer) { printCleanResult(w, result) })
	return removeErr
}

// printCleanResult prints a table of the containers found.
//
//	ID            STATE     CREATED               COMMAND
//	3f2a9c1b7d4e  exited    2026-10-19T08:12:45Z  npm install
func printCleanResult(w io.Writer, result cleanResult) {
	if len(result.Containers) == 0 {
		fmt.Fprintln(w, "No toolchain containers found.")
		return
	}

	fmt.Fprintf(w, "%-14s %-10s %-22s %s\n", "ID", "STATE", "CREATED", "COMMAND")
	for _, c := range result.Containers {
		fmt.Fprintf(w, "%-14s %-10s %-22s %s\n",
			ShortID(c.ID), c.State, c.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), c.Command)
	}

	if result.DryRun {
		fmt.Fprintf(w, "\n%d container(s) would be removed.\n", len(result.Containers))
		return
	}
	fmt.Fprintf(w, "\nRemoved %d of %d container(s).\n", len(result.Removed), len(result.Containers))
}

// ShortID truncates a container ID to the 12 characters Docker shows.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
