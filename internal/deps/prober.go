// Package deps checks that the external toolchain (Node.js, npm and the
// Cordova CLI) is reachable through an Executor.
package deps

import (
	"context"
	"strings"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/runner"
)

// Tool names a toolchain program.
type Tool string

const (
	ToolNode    Tool = "node"
	ToolNPM     Tool = "npm"
	ToolCordova Tool = "cordova"
)

// Transcript messages. Each failure names the missing tool so the user
// knows what to install.
const (
	msgNodeMissing    = "Node.js is not installed. Please install Node.js."
	msgNPMMissing     = "NPM is not installed."
	msgCordovaMissing = "Cordova not found. Attempting to install globally..."
	msgCordovaFailed  = "Failed to install Cordova. Please run 'npm install -g cordova' manually."
	msgCordovaDone    = "Cordova installed successfully."
	msgDependenciesOK = "Dependencies check passed."
)

// Report is the outcome of a dependency check.
type Report struct {
	// OK is true when node and npm respond, and cordova either responds
	// or was installed by the remedial step.
	OK bool `json:"ok"`

	// Missing lists the tools that were unavailable at the end of the check.
	Missing []Tool `json:"missing,omitempty"`

	// Versions holds the trimmed `--version` output of each tool that answered.
	Versions map[Tool]string `json:"versions,omitempty"`

	// InstalledCordova is true when cordova was missing and the global
	// install succeeded.
	InstalledCordova bool `json:"installedCordova,omitempty"`
}

// Prober runs the toolchain version probes. It holds no state between
// calls, so Check may be called any number of times.
type Prober struct {
	Exec runner.Executor
}

// NewProber returns a Prober that runs commands through exec.
func NewProber(exec runner.Executor) *Prober {
	return &Prober{Exec: exec}
}

// Check probes node, npm and cordova in that order. A missing node or
// npm ends the check immediately. A missing cordova triggers a single
// `npm install -g cordova`, whose result is final.
func (p *Prober) Check(ctx context.Context, log model.LogFunc) Report {
	report := Report{Versions: make(map[Tool]string)}

	if !p.probe(ctx, ToolNode, &report, log) {
		logLine(log, msgNodeMissing)
		report.Missing = append(report.Missing, ToolNode)
		return report
	}

	if !p.probe(ctx, ToolNPM, &report, log) {
		logLine(log, msgNPMMissing)
		report.Missing = append(report.Missing, ToolNPM)
		return report
	}

	if !p.probe(ctx, ToolCordova, &report, log) {
		logLine(log, msgCordovaMissing)
		install := p.Exec.Run(ctx, runner.Command{Args: []string{"npm", "install", "-g", "cordova"}}, log)
		if !install.Success {
			logLine(log, msgCordovaFailed)
			report.Missing = append(report.Missing, ToolCordova)
			return report
		}
		logLine(log, msgCordovaDone)
		report.InstalledCordova = true
	}

	logLine(log, msgDependenciesOK)
	report.OK = true
	return report
}

// probe runs `<tool> --version` and records the version on success.
func (p *Prober) probe(ctx context.Context, tool Tool, report *Report, log model.LogFunc) bool {
	res := p.Exec.Run(ctx, runner.Command{Args: []string{string(tool), "--version"}}, log)
	if !res.Success {
		return false
	}
	report.Versions[tool] = strings.TrimSpace(res.Stdout)
	return true
}

func logLine(log model.LogFunc, text string) {
	if log != nil {
		log(text)
	}
}
