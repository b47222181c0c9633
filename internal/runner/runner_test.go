package runner

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects transcript lines.
type recorder struct {
	lines []string
}

func (r *recorder) log(text string) {
	r.lines = append(r.lines, text)
}

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX sh")
	}
}

func TestLocal_Run_Success(t *testing.T) {
	skipOnWindows(t)

	var rec recorder
	res := (&Local{}).Run(context.Background(), Command{Args: []string{"sh", "-c", "echo hello"}}, rec.log)

	require.True(t, res.Success)
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)
	assert.Equal(t, "hello\n", res.Stdout)
	assert.Equal(t, []string{"Running command: sh -c echo hello", "hello"}, rec.lines)
}

func TestLocal_Run_NonzeroExit(t *testing.T) {
	skipOnWindows(t)

	var rec recorder
	res := (&Local{}).Run(context.Background(),
		Command{Args: []string{"sh", "-c", "echo broken >&2; exit 3"}}, rec.log)

	assert.False(t, res.Success)
	assert.Equal(t, 3, res.ExitCode)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "status 3")

	require.Len(t, rec.lines, 3)
	assert.True(t, strings.HasPrefix(rec.lines[1], "Error running command: "))
	assert.Equal(t, "broken", rec.lines[2])
}

func TestLocal_Run_ProgramNotFound(t *testing.T) {
	var rec recorder
	res := (&Local{}).Run(context.Background(),
		Command{Args: []string{"cordova-wrap-no-such-program-xyz", "--version"}}, rec.log)

	assert.False(t, res.Success)
	assert.Equal(t, -1, res.ExitCode)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "not found")
	require.Len(t, rec.lines, 2)
	assert.Equal(t, "Running command: cordova-wrap-no-such-program-xyz --version", rec.lines[0])
}

func TestLocal_Run_WorkingDirectory(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	res := (&Local{}).Run(context.Background(), Command{Args: []string{"pwd", "-P"}, Dir: dir}, nil)

	require.True(t, res.Success)
	// TempDir may sit behind a symlink (macOS /var -> /private/var).
	assert.True(t, strings.HasSuffix(strings.TrimSpace(res.Stdout), strings.TrimPrefix(dir, "/private")))
}

func TestLocal_Run_ShellMode(t *testing.T) {
	skipOnWindows(t)

	var rec recorder
	res := (&Local{Shell: true}).Run(context.Background(),
		Command{Args: []string{"echo", "it's", "fine"}}, rec.log)

	require.True(t, res.Success)
	assert.Equal(t, "it's fine\n", res.Stdout)
	// The transcript shows the caller's argv, not the shell wrapper.
	assert.Equal(t, "Running command: echo it's fine", rec.lines[0])
}

func TestLocal_Run_EmptyCommand(t *testing.T) {
	var rec recorder
	res := (&Local{}).Run(context.Background(), Command{}, rec.log)

	assert.False(t, res.Success)
	assert.Error(t, res.Err)
	assert.Len(t, rec.lines, 2)
}

func TestLocal_Run_CaptureLimit(t *testing.T) {
	skipOnWindows(t)

	res := (&Local{CaptureLimit: 4}).Run(context.Background(),
		Command{Args: []string{"sh", "-c", "printf abcdefgh"}}, nil)

	require.True(t, res.Success)
	assert.Equal(t, "abcd"+truncatedMarker, res.Stdout)
}

func TestLocal_Run_Cancelled(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := (&Local{}).Run(ctx, Command{Args: []string{"sleep", "5"}}, nil)
	assert.False(t, res.Success)
	assert.Error(t, res.Err)
}

func TestShellJoin(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bare", []string{"npm", "install", "-g", "cordova"}, "npm install -g cordova"},
		{"space", []string{"ls", "my site"}, "ls 'my site'"},
		{"quote", []string{"echo", "it's"}, `echo 'it'\''s'`},
		{"empty", []string{"echo", ""}, "echo ''"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shellJoin(tt.args))
		})
	}
}

func TestLocal_Argv(t *testing.T) {
	program, args := (&Local{}).argv([]string{"cordova", "platform", "add", "android"})
	assert.Equal(t, "cordova", program)
	assert.Equal(t, []string{"platform", "add", "android"}, args)

	program, args = (&Local{Shell: true}).argv([]string{"npm", "install"})
	if runtime.GOOS == "windows" {
		assert.Equal(t, "cmd", program)
		assert.Equal(t, []string{"/C", "npm", "install"}, args)
	} else {
		assert.Equal(t, "sh", program)
		assert.Equal(t, []string{"-c", "npm install"}, args)
	}
}

func TestLimitedBuffer(t *testing.T) {
	b := NewLimitedBuffer(5)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Write([]byte("defg"))
	require.NoError(t, err)
	assert.Equal(t, 4, n, "writes report full length so the child is never blocked")
	assert.Equal(t, "abcde"+truncatedMarker, b.String())
}
