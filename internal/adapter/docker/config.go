package docker

import (
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"

	"github.com/miderror/dev-mentor/internal/core/ports/secondary"
)

const scratchDir = "/tmp"

func buildContainerConfig(spec *secondary.ContainerSpec) (*container.Config, *container.HostConfig) {
	cfg := &container.Config{
		Image:           spec.Image,
		Cmd:             spec.Cmd,
		WorkingDir:      spec.WorkingDir,
		User:            spec.User,
		Labels:          spec.Labels,
		NetworkDisabled: !spec.NetworkEnabled,
		Tty:             false,
		AttachStdin:     spec.OpenStdin,
		OpenStdin:       spec.OpenStdin,
		StdinOnce:       spec.OpenStdin,
	}

	pids := spec.Limits.PidsLimit
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:     spec.Limits.MemoryBytes,
			MemorySwap: spec.Limits.MemoryBytes, // no swap
			CPUShares:  spec.Limits.CPUShares,
			PidsLimit:  &pids,
		},
		SecurityOpt:    []string{"no-new-privileges"},
		CapDrop:        []string{"ALL"},
		ReadonlyRootfs: true,
		Mounts:         []mount.Mount{workspaceMount(spec.Workspace)},
	}
	if !spec.NetworkEnabled {
		hostCfg.NetworkMode = "none"
	}
	if spec.ScratchMB > 0 {
		hostCfg.Tmpfs = map[string]string{
			scratchDir: fmt.Sprintf("rw,noexec,nosuid,size=%dm,mode=1777", spec.ScratchMB),
		}
	}
	return cfg, hostCfg
}

func workspaceMount(ws secondary.WorkspaceMount) mount.Mount {
	if ws.VolumeName != "" {
		m := mount.Mount{
			Type:     mount.TypeVolume,
			Source:   ws.VolumeName,
			Target:   ws.Target,
			ReadOnly: true,
		}
		if ws.Subpath != "" {
			m.VolumeOptions = &mount.VolumeOptions{Subpath: ws.Subpath}
		}
		return m
	}
	return mount.Mount{
		Type:     mount.TypeBind,
		Source:   ws.HostPath,
		Target:   ws.Target,
		ReadOnly: true,
	}
}
