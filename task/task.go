package task

import (
	"fmt"
	"strconv"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
)

// Task is the workload requirement matched against offers.
// Memory and disk are in MB; Cpu is in cores.
type Task struct {
	ID            uuid.UUID         `json:"id"`
	Name          string            `json:"name"`
	State         State             `json:"state"`
	Image         string            `json:"image"`
	Role          string            `json:"role"`
	Cpu           float64           `json:"cpu"`
	Memory        float64           `json:"memory"`
	Disk          float64           `json:"disk"`
	Ports         []nat.PortMapping `json:"ports,omitempty"`
	Volumes       []Volume          `json:"volumes,omitempty"`
	Placement     Placement         `json:"placement"`
	Env           []string          `json:"env,omitempty"`
	RestartPolicy string            `json:"restart_policy,omitempty"`
	OfferID       uuid.UUID         `json:"offer_id"`
	ScheduledOn   string            `json:"scheduled_on,omitempty"`
	ContainerID   string            `json:"container_id,omitempty"`
	SubmitTime    time.Time         `json:"submit_time"`
}

// Volume is a persistent volume the task needs, sized in MB.
type Volume struct {
	ContainerPath string  `json:"container_path"`
	Size          float64 `json:"size"`
}

// Placement restricts which agents a task may land on. Empty fields
// place no restriction.
type Placement struct {
	Hostnames  []string          `json:"hostnames,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// HostPort returns the requested host port of a mapping, or 0 when any
// host port will do. Mappings from Spec.Task always have a valid one.
func HostPort(m nat.PortMapping) uint64 {
	p, _ := ParseHostPort(m)
	return p
}

// ParseHostPort parses the single host port of a mapping. Host port
// ranges are not supported.
func ParseHostPort(m nat.PortMapping) (uint64, error) {
	if m.Binding.HostPort == "" {
		return 0, nil
	}
	p, err := strconv.ParseUint(m.Binding.HostPort, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("host port %q of %s must be a single port: %w", m.Binding.HostPort, m.Port, err)
	}
	return p, nil
}

// VolumeDisk is the total disk requested by the task's volumes.
func (t *Task) VolumeDisk() float64 {
	var total float64
	for _, v := range t.Volumes {
		total += v.Size
	}
	return total
}

// ExposedPorts returns the container ports of the task.
func (t *Task) ExposedPorts() nat.PortSet {
	ps := nat.PortSet{}
	for _, m := range t.Ports {
		ps[m.Port] = struct{}{}
	}
	return ps
}
