// Package runner executes external toolchain commands (node, npm, cordova)
// and reports their outcome as values rather than errors.
//
// Design decisions:
//   - A failing command is an ordinary outcome for this tool: a missing
//     cordova binary or a failed `npm install` must be reported to the user,
//     not abort the process. Run therefore never returns an error; callers
//     inspect Result.Success.
//   - Every call writes a transcript: the command line before it runs, and
//     its stdout (or the failure cause and stderr) afterwards.
//   - On Windows, npm and cordova are .cmd shims that exec.Command cannot
//     resolve directly, so the Local executor routes them through `cmd /C`.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
)

// defaultCaptureLimit bounds how much of each output stream is kept.
// `npm install` can be chatty; 1 MiB is plenty for diagnostics.
const defaultCaptureLimit = 1 << 20

// truncatedMarker is appended to captured output that hit the limit.
const truncatedMarker = "\n... [output truncated]"

// Command is a single external process invocation.
type Command struct {
	// Args is the argument vector; Args[0] is the program name.
	Args []string

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// String renders the command line for transcripts.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Result is the outcome of running a Command.
type Result struct {
	// Success is true only when the process started and exited with status 0.
	Success bool

	// ExitCode is the process exit status, or -1 if the process could
	// not be started (e.g., program not found).
	ExitCode int

	Stdout string
	Stderr string

	// Err describes why the command failed, if it did.
	Err error
}

// Executor runs commands. Local runs them as host processes; the docker
// package provides an implementation that runs them inside a container.
type Executor interface {
	Run(ctx context.Context, cmd Command, log model.LogFunc) Result
}

// Local executes commands as child processes of the current program.
type Local struct {
	// Shell routes every command through `cmd /C` (Windows) or `sh -c`
	// (elsewhere). NewLocal enables it on Windows, where npm/cordova
	// cannot be resolved by exec.LookPath.
	Shell bool

	// CaptureLimit is the maximum number of bytes kept per output stream.
	// Zero means defaultCaptureLimit.
	CaptureLimit int
}

// NewLocal returns a Local executor configured for the current OS.
func NewLocal() *Local {
	return &Local{Shell: runtime.GOOS == "windows"}
}

// Run executes cmd and returns its outcome. It never panics on a missing
// program or a nonzero exit status.
func (l *Local) Run(ctx context.Context, cmd Command, log model.LogFunc) Result {
	Announce(log, cmd)

	if len(cmd.Args) == 0 {
		res := Result{ExitCode: -1, Err: errors.New("empty command")}
		logLine(log, fmt.Sprintf("Error running command: %v", res.Err))
		return res
	}

	program, args := l.argv(cmd.Args)

	// #nosec G204: argv is built from fixed tool names and validated paths
	c := exec.CommandContext(ctx, program, args...)
	c.Dir = cmd.Dir

	limit := l.CaptureLimit
	stdout := NewLimitedBuffer(limit)
	stderr := NewLimitedBuffer(limit)
	c.Stdout = stdout
	c.Stderr = stderr

	err := c.Run()
	res := Result{
		Success: err == nil,
		Stdout:  stdout.String(),
		Stderr:  stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		var execErr *exec.Error
		switch {
		case errors.As(err, &exitErr):
			res.ExitCode = exitErr.ExitCode()
			res.Err = fmt.Errorf("%s exited with status %d", cmd.Args[0], res.ExitCode)
		case errors.As(err, &execErr):
			res.ExitCode = -1
			res.Err = fmt.Errorf("program %s not found: %w", cmd.Args[0], execErr.Err)
		default:
			res.ExitCode = -1
			res.Err = fmt.Errorf("%s failed to start: %w", cmd.Args[0], err)
		}
	}

	report(log, res)
	return res
}

// argv returns the program and arguments to hand to exec, applying the
// shell indirection when enabled.
func (l *Local) argv(args []string) (string, []string) {
	if !l.Shell {
		return args[0], args[1:]
	}
	if runtime.GOOS == "windows" {
		return "cmd", append([]string{"/C"}, args...)
	}
	return "sh", []string{"-c", shellJoin(args)}
}

// shellJoin quotes args for `sh -c`. Arguments made only of safe
// characters are left bare so transcripts stay readable.
func shellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a != "" && strings.IndexFunc(a, isShellUnsafe) < 0 {
			quoted[i] = a
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func isShellUnsafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=@%+,", r):
		return false
	}
	return true
}

// Announce writes the pre-execution transcript line for cmd.
func Announce(log model.LogFunc, cmd Command) {
	logLine(log, "Running command: "+cmd.String())
}

// report writes the post-execution transcript lines for res.
func report(log model.LogFunc, res Result) {
	if res.Success {
		if out := strings.TrimSpace(res.Stdout); out != "" {
			logLine(log, out)
		}
		return
	}
	logLine(log, fmt.Sprintf("Error running command: %v", res.Err))
	if errOut := strings.TrimSpace(res.Stderr); errOut != "" {
		logLine(log, errOut)
	}
}

// Report writes the standard post-execution transcript for res. Other
// Executor implementations use it so every executor logs the same way.
func Report(log model.LogFunc, res Result) {
	report(log, res)
}

func logLine(log model.LogFunc, text string) {
	if log != nil {
		log(text)
	}
}

// LimitedBuffer keeps at most max bytes and remembers whether anything
// was dropped. Writes never fail, so the child process is not blocked.
type LimitedBuffer struct {
	max       int
	buf       bytes.Buffer
	truncated bool
}

// NewLimitedBuffer returns a buffer capped at max bytes. A max of zero or
// less selects the default limit.
func NewLimitedBuffer(max int) *LimitedBuffer {
	if max <= 0 {
		max = defaultCaptureLimit
	}
	return &LimitedBuffer{max: max}
}

func (b *LimitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	remain := b.max - b.buf.Len()
	if remain > 0 {
		if remain > len(p) {
			remain = len(p)
		}
		_, _ = b.buf.Write(p[:remain])
	}
	if len(p) > remain {
		b.truncated = true
	}
	return n, nil
}

func (b *LimitedBuffer) String() string {
	if b.truncated {
		return b.buf.String() + truncatedMarker
	}
	return b.buf.String()
}
