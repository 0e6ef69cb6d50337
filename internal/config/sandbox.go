package config

import (
	"time"
)

const mebibyte = 1024 * 1024

// SandboxCfg configures the sandbox runner and its docker substrate.
// It is built once at startup and passed to the runner explicitly.
type SandboxCfg struct {
	DockerHost string

	// WorkspaceDir is where run workspaces are created on the worker's filesystem.
	WorkspaceDir string
	// VolumeName, when set, is a named volume holding WorkspaceDir that is shared with
	// sandbox containers. When empty each workspace is bind-mounted directly.
	VolumeName string
	MountPoint string
	User       string

	MemoryBytes int64
	CPUShares   int64
	PidsLimit   int64
	Timeout     time.Duration
	ScratchMB   int

	OutputLimitBytes int
	ProvisionTimeout time.Duration
	TeardownTimeout  time.Duration

	PythonImage string
	NodeImage   string
}

func NewSandboxCfg() *SandboxCfg {
	// docker treats a zero memory or pids limit as unlimited
	memoryMB := getIntEnv("SANDBOX_MEMORY_MB", 64)
	if memoryMB <= 0 {
		memoryMB = 64
	}
	cpuShares := getIntEnv("SANDBOX_CPU_SHARES", 512)
	if cpuShares <= 0 {
		cpuShares = 512
	}
	pidsLimit := getIntEnv("SANDBOX_PIDS_LIMIT", 100)
	if pidsLimit <= 0 {
		pidsLimit = 100
	}

	return &SandboxCfg{
		DockerHost:       getEnv("DOCKER_HOST", ""),
		WorkspaceDir:     getEnv("SANDBOX_WORKSPACE_DIR", "/runner_temp"),
		VolumeName:       getEnv("RUNNER_VOLUME_NAME", ""),
		MountPoint:       getEnv("SANDBOX_MOUNT_POINT", "/app"),
		User:             getEnv("SANDBOX_USER", "nobody"),
		MemoryBytes:      int64(memoryMB) * mebibyte,
		CPUShares:        int64(cpuShares),
		PidsLimit:        int64(pidsLimit),
		Timeout:          getSecondsEnv("SANDBOX_TIMEOUT_SEC", 20),
		ScratchMB:        getIntEnv("SANDBOX_SCRATCH_MB", 16),
		OutputLimitBytes: getIntEnv("SANDBOX_OUTPUT_LIMIT_BYTES", 64*1024),
		ProvisionTimeout: getSecondsEnv("SANDBOX_PROVISION_TIMEOUT_SEC", 30),
		TeardownTimeout:  getSecondsEnv("SANDBOX_TEARDOWN_TIMEOUT_SEC", 10),
		PythonImage:      getEnv("SANDBOX_PYTHON_IMAGE", "python:3.12-slim"),
		NodeImage:        getEnv("SANDBOX_NODE_IMAGE", "node:20-slim"),
	}
}
