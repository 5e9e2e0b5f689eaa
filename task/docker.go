package task

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"

	"offercube/offer"
)

// Launcher carries out a launch recommendation for an accepted offer and
// stops what it launched.
type Launcher interface {
	Launch(ctx context.Context, rec *offer.LaunchRecommendation) (string, error)
	Stop(ctx context.Context, containerID string) error
}

// Docker launches accepted tasks as local containers.
type Docker struct {
	Client        *client.Client
	RestartPolicy string
	PullOutput    io.Writer
}

func NewDocker() (*Docker, error) {
	dc, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("creating docker client: %w", err)
	}
	return &Docker{Client: dc, PullOutput: io.Discard}, nil
}

// ContainerConfig translates a launch recommendation into docker
// container and host configuration.
func ContainerConfig(rec *offer.LaunchRecommendation, restartPolicy string) (*container.Config, *container.HostConfig) {
	exposed := nat.PortSet{}
	for p := range rec.Ports {
		exposed[p] = struct{}{}
	}

	cc := &container.Config{
		Image:        rec.Image,
		Tty:          false,
		Env:          rec.Env,
		ExposedPorts: exposed,
		Labels: map[string]string{
			"offercube.task":  rec.TaskID.String(),
			"offercube.offer": rec.Offer.String(),
		},
	}

	hc := &container.HostConfig{
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyMode(restartPolicy),
		},
		Resources: container.Resources{
			Memory:   int64(rec.Resource(offer.Mem) * units.MiB),
			NanoCPUs: int64(rec.Resource(offer.CPUs) * math.Pow(10, 9)),
		},
		PortBindings: rec.Ports,
	}

	return cc, hc
}

// Launch pulls the image, then creates and starts the container. It
// returns the container ID.
func (d *Docker) Launch(ctx context.Context, rec *offer.LaunchRecommendation) (string, error) {
	reader, err := d.Client.ImagePull(ctx, rec.Image, image.PullOptions{})
	if err != nil {
		return "", fmt.Errorf("pulling image %s: %w", rec.Image, err)
	}
	defer reader.Close()

	out := d.PullOutput
	if out == nil {
		out = io.Discard
	}
	if _, err := io.Copy(out, reader); err != nil {
		return "", fmt.Errorf("pulling image %s: %w", rec.Image, err)
	}

	cc, hc := ContainerConfig(rec, d.RestartPolicy)
	resp, err := d.Client.ContainerCreate(ctx, cc, hc, nil, nil, rec.TaskName+"-"+rec.TaskID.String()[:8])
	if err != nil {
		return "", fmt.Errorf("creating container: %w", err)
	}

	if err := d.Client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", fmt.Errorf("starting container %s: %w", resp.ID, err)
	}

	return resp.ID, nil
}

// Stop stops and removes a container started by Launch.
func (d *Docker) Stop(ctx context.Context, id string) error {
	if err := d.Client.ContainerStop(ctx, id, container.StopOptions{}); err != nil {
		return fmt.Errorf("stopping container %s: %w", id, err)
	}

	err := d.Client.ContainerRemove(ctx, id, container.RemoveOptions{
		RemoveVolumes: true,
		RemoveLinks:   false,
		Force:         false,
	})
	if err != nil {
		return fmt.Errorf("removing container %s: %w", id, err)
	}
	return nil
}
