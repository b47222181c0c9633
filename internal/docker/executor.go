package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/shinji-kodama/cordova-wrap/internal/model"
	"github.com/shinji-kodama/cordova-wrap/internal/runner"
)

// WorkspaceDir is where Command.Dir is mounted inside the container.
const WorkspaceDir = "/workspace"

// Engine is the subset of the Docker SDK client used by this package.
// *client.Client satisfies it.
type Engine interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImagePull(ctx context.Context, ref string, options image.PullOptions) (io.ReadCloser, error)
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig,
		networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	ContainerList(ctx context.Context, options container.ListOptions) ([]container.Summary, error)
}

// Engine returns the SDK client as an Engine.
func (c *Client) Engine() Engine {
	return c.inner
}

// Executor implements runner.Executor by running each command in a fresh
// container of Image. The command's working directory is bind-mounted at
// WorkspaceDir, so files written by npm or cordova land in the host project.
//
// Each container is removed when its command exits. A global install
// (`npm install -g cordova`) therefore does not outlive its container;
// Image is expected to ship node, npm and cordova already.
type Executor struct {
	Engine Engine

	// Image is the toolchain image reference, e.g. "beevelop/cordova:latest".
	Image string

	// User is passed as the container user so files created in the mounted
	// project belong to the invoking host user. Empty keeps the image default.
	User string

	// Session labels every container this executor creates.
	Session string

	// CaptureLimit bounds each captured output stream; zero means the
	// runner default.
	CaptureLimit int

	imageReady bool
}

// NewExecutor returns an Executor that runs commands in image through c.
func NewExecutor(c *Client, image string) *Executor {
	return &Executor{
		Engine:  c.Engine(),
		Image:   image,
		User:    hostUser(),
		Session: uuid.NewString(),
	}
}

// hostUser returns "uid:gid" for the current process on Unix hosts.
// Docker Desktop on Windows maps ownership itself.
func hostUser() string {
	if runtime.GOOS == "windows" {
		return ""
	}
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}

// Run executes cmd in a new container and returns its outcome. Like the
// local executor, it reports failures through Result and never returns
// an error.
func (e *Executor) Run(ctx context.Context, cmd runner.Command, log model.LogFunc) runner.Result {
	runner.Announce(log, cmd)
	res := e.run(ctx, cmd, log)
	runner.Report(log, res)
	return res
}

func (e *Executor) run(ctx context.Context, cmd runner.Command, log model.LogFunc) runner.Result {
	if len(cmd.Args) == 0 {
		return failed(errors.New("empty command"))
	}

	if err := e.ensureImage(ctx, log); err != nil {
		return failed(err)
	}

	config, hostConfig, err := e.containerSpec(cmd, time.Now())
	if err != nil {
		return failed(err)
	}

	created, err := e.Engine.ContainerCreate(ctx, config, hostConfig, nil, nil, "")
	if err != nil {
		return failed(fmt.Errorf("failed to create container from %s: %w", e.Image, err))
	}
	// Removal must happen even when ctx was cancelled mid-run.
	defer func() {
		_ = e.Engine.ContainerRemove(context.WithoutCancel(ctx), created.ID, container.RemoveOptions{Force: true})
	}()

	// Register the wait before starting so a fast exit is not missed.
	statusCh, errCh := e.Engine.ContainerWait(ctx, created.ID, container.WaitConditionNextExit)

	if err := e.Engine.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return failed(fmt.Errorf("%s failed to start: %w", cmd.Args[0], err))
	}

	var exitCode int
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return failed(fmt.Errorf("waiting for %s: %s", cmd.Args[0], status.Error.Message))
		}
		exitCode = int(status.StatusCode)
	case err := <-errCh:
		return failed(fmt.Errorf("waiting for %s: %w", cmd.Args[0], err))
	}

	stdout := runner.NewLimitedBuffer(e.CaptureLimit)
	stderr := runner.NewLimitedBuffer(e.CaptureLimit)
	if err := e.collectLogs(ctx, created.ID, stdout, stderr); err != nil {
		return failed(err)
	}

	res := runner.Result{
		Success:  exitCode == 0,
		ExitCode: exitCode,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if exitCode != 0 {
		res.Err = fmt.Errorf("%s exited with status %d", cmd.Args[0], exitCode)
	}
	return res
}

// containerSpec builds the create-time configuration for cmd.
func (e *Executor) containerSpec(cmd runner.Command, now time.Time) (*container.Config, *container.HostConfig, error) {
	config := &container.Config{
		Image: e.Image,
		Cmd:   cmd.Args,
		User:  e.User,
		// npm needs a writable HOME for its cache when running as a
		// host uid that has no passwd entry in the image.
		Env: []string{"HOME=/tmp"},
	}
	hostConfig := &container.HostConfig{}

	var hostDir string
	if cmd.Dir != "" {
		abs, err := filepath.Abs(cmd.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve working directory %s: %w", cmd.Dir, err)
		}
		hostDir = abs
		config.WorkingDir = WorkspaceDir
		hostConfig.Binds = []string{hostDir + ":" + WorkspaceDir}
	}

	config.Labels = BuildLabels(e.Session, hostDir, cmd.String(), now)
	return config, hostConfig, nil
}

// ensureImage pulls Image unless it is already present locally. The check
// runs once per Executor.
func (e *Executor) ensureImage(ctx context.Context, log model.LogFunc) error {
	if e.imageReady {
		return nil
	}

	images, err := e.Engine.ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", e.Image)),
	})
	if err != nil {
		return fmt.Errorf("failed to list images: %w", err)
	}

	if len(images) == 0 {
		if log != nil {
			log("Pulling image " + e.Image + "...")
		}
		rc, err := e.Engine.ImagePull(ctx, e.Image, image.PullOptions{})
		if err != nil {
			return fmt.Errorf("failed to pull image %s: %w", e.Image, err)
		}
		// The pull only completes once its progress stream is drained.
		_, copyErr := io.Copy(io.Discard, rc)
		rc.Close()
		if copyErr != nil {
			return fmt.Errorf("failed to pull image %s: %w", e.Image, copyErr)
		}
	}

	e.imageReady = true
	return nil
}

// collectLogs demultiplexes the container's output streams. Containers are
// created without a TTY, so the stream carries stdcopy framing.
func (e *Executor) collectLogs(ctx context.Context, id string, stdout, stderr io.Writer) error {
	rc, err := e.Engine.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return fmt.Errorf("failed to read container output: %w", err)
	}
	defer rc.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, rc); err != nil {
		return fmt.Errorf("failed to read container output: %w", err)
	}
	return nil
}

func failed(err error) runner.Result {
	return runner.Result{ExitCode: -1, Err: err}
}

// ListToolchainContainers returns every container labeled as managed by
// this tool, including stopped ones.
func ListToolchainContainers(ctx context.Context, engine Engine) ([]ToolchainContainer, error) {
	summaries, err := engine.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", LabelManagedBy+"="+ManagedByValue)),
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerUnavailable, "failed to list Docker containers", err)
	}

	result := make([]ToolchainContainer, 0, len(summaries))
	for _, s := range summaries {
		info, err := ParseLabels(s.Labels)
		if err != nil {
			// Hand-labeled or foreign containers are not ours to touch.
			continue
		}
		info.ID = s.ID
		if len(s.Names) > 0 {
			info.Name = strings.TrimPrefix(s.Names[0], "/")
		}
		info.State = string(s.State)
		result = append(result, *info)
	}
	return result, nil
}

// RemoveToolchainContainers force-removes the given containers and returns
// the IDs that were removed. It keeps going after a failure and returns
// the first error.
func RemoveToolchainContainers(ctx context.Context, engine Engine, containers []ToolchainContainer) ([]string, error) {
	var removed []string
	var firstErr error
	for _, c := range containers {
		if err := engine.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			if firstErr == nil {
				firstErr = model.WrapCLIError(model.ExitDockerUnavailable,
					fmt.Sprintf("failed to remove container %s", c.ID), err)
			}
			continue
		}
		removed = append(removed, c.ID)
	}
	return removed, firstErr
}
