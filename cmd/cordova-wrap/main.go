// Package main is the entry point for the cordova-wrap CLI.
//
// This binary turns a static website folder into a Cordova project. It
// delegates all functionality to the internal/cli package, which defines
// cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to "dev",
// "none", and "unknown" respectively.
package main

import (
	"github.com/joho/godotenv"

	"github.com/shinji-kodama/cordova-wrap/internal/cli"
)

// version, commit, and date are set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.2.0 -X main.commit=$(git rev-parse --short HEAD)"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// A .env file in the working directory may set CORDOVA_WRAP_* defaults.
	// Variables already present in the environment take precedence.
	_ = godotenv.Load()

	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
