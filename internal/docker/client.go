package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"path"
	"runtime"
	"strings"
	"time"

	"github.com/docker/docker/client"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
)

// defaultPingTimeout bounds the daemon check before the first toolchain
// container. Docker Desktop can take seconds to answer after waking up.
const defaultPingTimeout = 5 * time.Second

const (
	systemSocket = "/var/run/docker.sock"
	windowsPipe  = `//./pipe/docker_engine`
)

// Client is the Docker connection used to run npm and cordova in a
// container. It finds the daemon socket on its own and is checked with
// Ping before any container is created.
//
//	c, err := docker.NewClient()
//	if err != nil { /* exit 8 */ }
//	defer c.Close()
//	if err := c.Ping(ctx); err != nil { /* exit 8 */ }
//	exec := docker.NewExecutor(c, "beevelop/cordova:latest")
type Client struct {
	inner *client.Client
}

// NewClient connects to DOCKER_HOST when it is set, otherwise to the first
// local daemon socket found. Failures are CLIErrors with
// ExitDockerUnavailable.
func NewClient() (*Client, error) {
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		return newClientWithHost(host)
	}

	host, err := detectDockerHost(runtime.GOOS, os.Getenv, socketExists)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable, "Docker socket not found", err)
	}
	return newClientWithHost(host)
}

func newClientWithHost(host string) (*Client, error) {
	c, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable,
			fmt.Sprintf("failed to create Docker client for host %q", host), err)
	}
	return &Client{inner: c}, nil
}

// socketCandidates lists the unix sockets a daemon may listen on for goos,
// most preferred first. It returns nil when goos has no unix socket.
//
// Rootless Docker on Linux listens under XDG_RUNTIME_DIR. Newer Docker
// Desktop releases on macOS may skip the /var/run symlink, and Colima
// keeps its socket under the home directory.
func socketCandidates(goos string, getenv func(string) string) []string {
	switch goos {
	case "linux":
		paths := []string{systemSocket}
		if dir := getenv("XDG_RUNTIME_DIR"); dir != "" {
			paths = append(paths, path.Join(dir, "docker.sock"))
		}
		return paths
	case "darwin":
		paths := []string{systemSocket}
		if home := getenv("HOME"); home != "" {
			paths = append(paths,
				path.Join(home, ".docker", "run", "docker.sock"),
				path.Join(home, ".colima", "default", "docker.sock"),
			)
		}
		return paths
	default:
		return nil
	}
}

// detectDockerHost returns the connection string of the first daemon
// endpoint that exists. Existence is enough here; Ping checks that the
// daemon answers.
func detectDockerHost(goos string, getenv func(string) string, exists func(string) bool) (string, error) {
	if goos == "windows" {
		return detectNamedPipe()
	}

	paths := socketCandidates(goos, getenv)
	if len(paths) == 0 {
		return "", fmt.Errorf("unsupported platform: %s", goos)
	}
	for _, p := range paths {
		if exists(p) {
			return "unix://" + p, nil
		}
	}
	return "", fmt.Errorf("no Docker socket at %s (is Docker running?)", strings.Join(paths, ", "))
}

// detectNamedPipe dials the Docker Desktop pipe; os.Stat does not work on
// named pipes.
func detectNamedPipe() (string, error) {
	conn, err := net.DialTimeout("pipe", windowsPipe, time.Second)
	if err != nil {
		return "", fmt.Errorf("Docker named pipe not found at %s: %w", windowsPipe, err)
	}
	_ = conn.Close()
	return "npipe://" + windowsPipe, nil
}

func socketExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Ping checks that the daemon answers within defaultPingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(pingCtx); err != nil {
		return model.WrapCLIError(model.ExitDockerUnavailable,
			"Docker daemon is not responding (is Docker running?)", err)
	}
	return nil
}

// APIVersion is the Engine API version in use, negotiated with the daemon
// once Ping has succeeded.
func (c *Client) APIVersion() string {
	return c.inner.ClientVersion()
}

// Close releases the connection. It is a no-op on a zero Client.
func (c *Client) Close() error {
	if c.inner != nil {
		return c.inner.Close()
	}
	return nil
}
