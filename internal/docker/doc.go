// Package docker runs toolchain commands inside a container through the
// Docker Engine API, for hosts that have Docker but no local Node.js or
// Cordova install.
//
// This package handles:
//   - Docker client initialization with automatic socket detection
//     (Linux, macOS, Windows)
//   - An Executor that runs one command per short-lived container, with
//     the project directory bind-mounted at /workspace
//   - Labels that mark those containers, so leftovers from an interrupted
//     run can be found and removed
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
