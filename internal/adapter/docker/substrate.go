package docker

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/ports/primary"
	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
)

var _ secondary.IsolationSubstrate = &Substrate{}

// Substrate drives sandbox containers through the Docker Engine API
type Substrate struct {
	cli    client.APIClient
	logger primary.Logger
}

// NewSubstrate connects to the docker daemon from the environment, or to cfg.DockerHost when set
func NewSubstrate(cfg *config.SandboxCfg, logger primary.Logger) (*Substrate, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.DockerHost != "" {
		opts = append(opts, client.WithHost(cfg.DockerHost))
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return NewSubstrateWithClient(cli, logger), nil
}

func NewSubstrateWithClient(cli client.APIClient, logger primary.Logger) *Substrate {
	return &Substrate{cli: cli, logger: logger}
}

// Ping checks that the daemon is reachable
func (s *Substrate) Ping(ctx context.Context) error {
	if _, err := s.cli.Ping(ctx); err != nil {
		return fmt.Errorf("docker daemon unreachable: %w", err)
	}
	return nil
}

func (s *Substrate) Close() error {
	return s.cli.Close()
}

func (s *Substrate) EnsureImage(ctx context.Context, ref string) error {
	_, _, err := s.cli.ImageInspectWithRaw(ctx, ref)
	if err == nil {
		return nil
	}
	if !errdefs.IsNotFound(err) {
		return fmt.Errorf("failed to inspect image %s: %w", ref, err)
	}

	s.logger.Info("Pulling docker image", "image", ref)
	reader, err := s.cli.ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer reader.Close()

	// the pull only completes once the progress stream is drained
	if err := jsonmessage.DisplayJSONMessagesStream(reader, io.Discard, 0, false, nil); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}

	s.logger.Info("Pulled docker image", "image", ref)
	return nil
}

func (s *Substrate) Create(ctx context.Context, spec *secondary.ContainerSpec) (string, error) {
	cfg, hostCfg := buildContainerConfig(spec)
	resp, err := s.cli.ContainerCreate(ctx, cfg, hostCfg, nil, nil, spec.Name)
	if err != nil {
		return "", fmt.Errorf("failed to create container: %w", err)
	}
	for _, w := range resp.Warnings {
		s.logger.Warn("Docker warning on container create", "containerId", resp.ID, "warning", w)
	}
	return resp.ID, nil
}

func (s *Substrate) AttachStdin(ctx context.Context, id string) (io.WriteCloser, error) {
	hijacked, err := s.cli.ContainerAttach(ctx, id, container.AttachOptions{
		Stream: true,
		Stdin:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to attach to container stdin: %w", err)
	}
	return &stdinStream{resp: hijacked}, nil
}

func (s *Substrate) Start(ctx context.Context, id string) error {
	if err := s.cli.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	return nil
}

func (s *Substrate) Wait(ctx context.Context, id string) (int, error) {
	statusCh, errCh := s.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return -1, fmt.Errorf("failed to wait for container: %w", err)
	case status := <-statusCh:
		if status.Error != nil && status.Error.Message != "" {
			return -1, fmt.Errorf("container wait error: %s", status.Error.Message)
		}
		return int(status.StatusCode), nil
	}
}

func (s *Substrate) Logs(ctx context.Context, id string, stdout, stderr io.Writer) error {
	reader, err := s.cli.ContainerLogs(ctx, id, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return fmt.Errorf("failed to read container logs: %w", err)
	}
	defer reader.Close()

	if _, err := stdcopy.StdCopy(stdout, stderr, reader); err != nil {
		return fmt.Errorf("failed to demultiplex container logs: %w", err)
	}
	return nil
}

func (s *Substrate) Kill(ctx context.Context, id string) error {
	err := s.cli.ContainerKill(ctx, id, "SIGKILL")
	if err == nil || errdefs.IsNotFound(err) || errdefs.IsConflict(err) {
		// gone or already stopped
		return nil
	}
	return fmt.Errorf("failed to kill container: %w", err)
}

func (s *Substrate) Remove(ctx context.Context, id string) error {
	err := s.cli.ContainerRemove(ctx, id, container.RemoveOptions{Force: true, RemoveVolumes: true})
	if err == nil || errdefs.IsNotFound(err) {
		return nil
	}
	return fmt.Errorf("failed to remove container: %w", err)
}

// stdinStream half-closes the hijacked connection so the program sees EOF
type stdinStream struct {
	resp types.HijackedResponse
	once sync.Once
	err  error
}

func (s *stdinStream) Write(p []byte) (int, error) {
	return s.resp.Conn.Write(p)
}

func (s *stdinStream) Close() error {
	s.once.Do(func() {
		s.err = s.resp.CloseWrite()
		s.resp.Close()
	})
	return s.err
}
