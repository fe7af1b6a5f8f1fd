// Package dockercomm provides a resource.CommFactory backed by the Docker
// Engine API, grounded on the teacher's pkg/discovery/docker/client.go. It
// lets Resource Devices of type "docker-container" exercise a real
// container runtime client through the Resource Pool's registry mechanism
// instead of a stub communication instance.
package dockercomm

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/jihwankim/caseforge/pkg/resource"
)

// Instance wraps a container ID with the shared Docker client.
type Instance struct {
	cli         *client.Client
	containerID string
}

// Connect verifies the container is running, satisfying
// resource.Connectable for the pre-connect sweep.
func (i *Instance) Connect() error {
	ctx := context.Background()
	insp, err := i.cli.ContainerInspect(ctx, i.containerID)
	if err != nil {
		return fmt.Errorf("dockercomm: inspect %s: %w", i.containerID, err)
	}
	if !insp.State.Running {
		return fmt.Errorf("dockercomm: container %s is not running", i.containerID)
	}
	return nil
}

// Exec runs a command inside the container and returns the output of a
// single read of up to 4096 bytes from the attached stream.
func (i *Instance) Exec(ctx context.Context, cmd []string) (string, error) {
	execCfg := container.ExecOptions{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	}
	created, err := i.cli.ContainerExecCreate(ctx, i.containerID, execCfg)
	if err != nil {
		return "", fmt.Errorf("dockercomm: exec create: %w", err)
	}
	attach, err := i.cli.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", fmt.Errorf("dockercomm: exec attach: %w", err)
	}
	defer attach.Close()

	buf := make([]byte, 4096)
	n, _ := attach.Reader.Read(buf)
	return string(buf[:n]), nil
}

// Close is a no-op: the underlying *client.Client is shared across
// instances and owned by the Factory.
func (i *Instance) Close() error { return nil }

// Factory builds dockercomm.Instance values for devices whose Attrs carry a
// "container_id" key.
type Factory struct {
	cli *client.Client
}

// NewFactory creates a factory from an already-configured Docker client.
func NewFactory(cli *client.Client) *Factory {
	return &Factory{cli: cli}
}

// Build implements resource.CommFactory.
func (f *Factory) Build(d *resource.Device) (resource.CommInstance, error) {
	id, _ := d.Attrs["container_id"].(string)
	if id == "" {
		return nil, fmt.Errorf("dockercomm: device %q missing container_id attribute", d.Name)
	}
	return &Instance{cli: f.cli, containerID: id}, nil
}
