package secondary

import (
	"context"
	"io"

	"github.com/miderror/dev-mentor/internal/domain"
)

// WorkspaceMount exposes a run workspace inside the container.
// Exactly one of VolumeName or HostPath is set.
// Subpath narrows a volume mount to one directory inside it.
type WorkspaceMount struct {
	VolumeName string
	Subpath    string
	HostPath   string
	Target     string
}

// ContainerSpec is everything the substrate needs to create one isolated environment
type ContainerSpec struct {
	Name           string
	Image          string
	Cmd            []string
	WorkingDir     string
	User           string
	Workspace      WorkspaceMount
	Limits         domain.Limits
	NetworkEnabled bool
	OpenStdin      bool
	ScratchMB      int
	Labels         map[string]string
}

// IsolationSubstrate is the container backend the sandbox runner drives.
// Implementations must be safe for concurrent use by many runs.
type IsolationSubstrate interface {
	// EnsureImage makes sure the image is present locally
	EnsureImage(ctx context.Context, image string) error

	// Create creates a stopped container with the given limits and returns its ID
	Create(ctx context.Context, spec *ContainerSpec) (string, error)

	// AttachStdin connects to the container's stdin; closing the writer signals end of input
	AttachStdin(ctx context.Context, id string) (io.WriteCloser, error)

	// Start starts a created container
	Start(ctx context.Context, id string) error

	// Wait blocks until the container exits or ctx is done and returns the exit code
	Wait(ctx context.Context, id string) (int, error)

	// Logs copies the container's stdout and stderr into separate writers
	Logs(ctx context.Context, id string, stdout, stderr io.Writer) error

	// Kill forcibly stops a running container
	Kill(ctx context.Context, id string) error

	// Remove deletes the container and its anonymous volumes
	Remove(ctx context.Context, id string) error
}
