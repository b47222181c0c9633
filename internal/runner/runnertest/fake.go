// Package runnertest provides a scripted runner.Executor for tests.
package runnertest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/runner"
)

// Fake records every command and answers from a table keyed by the joined
// argv (e.g. "cordova --version"). Commands not in the table succeed with
// empty output.
type Fake struct {
	mu        sync.Mutex
	responses map[string]runner.Result
	calls     []runner.Command
}

// NewFake returns an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]runner.Result)}
}

// Succeed makes the command print stdout and exit 0.
func (f *Fake) Succeed(cmdline, stdout string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = runner.Result{Success: true, Stdout: stdout}
	return f
}

// Fail makes the command exit nonzero with stderr.
func (f *Fake) Fail(cmdline, stderr string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[cmdline] = runner.Result{
		ExitCode: 1,
		Stderr:   stderr,
		Err:      errors.New(strings.Fields(cmdline)[0] + " exited with status 1"),
	}
	return f
}

// Run implements runner.Executor and writes the same transcript lines as
// the real executors.
func (f *Fake) Run(ctx context.Context, cmd runner.Command, log model.LogFunc) runner.Result {
	f.mu.Lock()
	f.calls = append(f.calls, runner.Command{Args: append([]string(nil), cmd.Args...), Dir: cmd.Dir})
	res, ok := f.responses[cmd.String()]
	f.mu.Unlock()

	if !ok {
		res = runner.Result{Success: true}
	}
	runner.Announce(log, cmd)
	runner.Report(log, res)
	return res
}

// Calls returns the commands run so far.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CommandLines returns the joined argv of every command run so far.
func (f *Fake) CommandLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}
