// Package model defines the domain types and value objects for the
// cordova-wrap CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (WrapRequest, ProgressEvent, LogLine, WrapResult) are
// transient and scoped to a single pipeline run.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
