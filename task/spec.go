package task

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"offercube/offer"
)

// Spec is the user facing description of a task, as found in task files
// and API requests. Sizes accept human units ("512MiB"); ports use the
// docker "[hostPort:]containerPort[/proto]" syntax.
type Spec struct {
	Name          string            `yaml:"name" json:"name"`
	Image         string            `yaml:"image" json:"image"`
	Role          string            `yaml:"role" json:"role"`
	Cpu           float64           `yaml:"cpu" json:"cpu"`
	Memory        string            `yaml:"memory" json:"memory"`
	Disk          string            `yaml:"disk" json:"disk"`
	Ports         []string          `yaml:"ports" json:"ports"`
	Volumes       []VolumeSpec      `yaml:"volumes" json:"volumes"`
	Hostnames     []string          `yaml:"hostnames" json:"hostnames"`
	Attributes    map[string]string `yaml:"attributes" json:"attributes"`
	Env           []string          `yaml:"env" json:"env"`
	RestartPolicy string            `yaml:"restart_policy" json:"restart_policy"`
}

type VolumeSpec struct {
	Path string `yaml:"path" json:"path"`
	Size string `yaml:"size" json:"size"`
}

var (
	ErrNoName  = errors.New("name is required")
	ErrNoImage = errors.New("image is required")
)

// Load reads a task spec from a YAML file and converts it.
func Load(path string) (*Task, error) {
	s, err := LoadSpec(path)
	if err != nil {
		return nil, err
	}
	return s.Task()
}

// LoadSpec reads a task spec from a YAML file. Unknown fields are
// rejected.
func LoadSpec(path string) (Spec, error) {
	var s Spec
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading task file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return s, fmt.Errorf("parsing task file %s: %w", path, err)
	}
	return s, nil
}

// Task validates the spec and converts it into a pending Task. All
// problems are reported together.
func (s Spec) Task() (*Task, error) {
	var errs *multierror.Error

	if s.Name == "" {
		errs = multierror.Append(errs, ErrNoName)
	}
	if s.Image == "" {
		errs = multierror.Append(errs, ErrNoImage)
	}
	if s.Cpu < 0 {
		errs = multierror.Append(errs, fmt.Errorf("cpu must not be negative, got %v", s.Cpu))
	}

	t := &Task{
		ID:            uuid.New(),
		Name:          s.Name,
		State:         Pending,
		Image:         s.Image,
		Role:          s.Role,
		Cpu:           s.Cpu,
		Env:           s.Env,
		RestartPolicy: s.RestartPolicy,
		Placement: Placement{
			Hostnames:  s.Hostnames,
			Attributes: s.Attributes,
		},
		SubmitTime: time.Now().UTC(),
	}
	if t.Role == "" {
		t.Role = offer.AnyRole
	}

	var err error
	if t.Memory, err = parseSize(s.Memory); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("memory: %w", err))
	}
	if t.Disk, err = parseSize(s.Disk); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("disk: %w", err))
	}

	for _, raw := range s.Ports {
		mappings, err := nat.ParsePortSpec(raw)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("port %q: %w", raw, err))
			continue
		}
		for _, m := range mappings {
			if _, err := ParseHostPort(m); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("port %q: %w", raw, err))
			}
		}
		t.Ports = append(t.Ports, mappings...)
	}

	for _, v := range s.Volumes {
		size, err := parseSize(v.Size)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("volume %s: %w", v.Path, err))
			continue
		}
		if v.Path == "" || size <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("volume %q needs a path and a positive size", v.Path))
			continue
		}
		t.Volumes = append(t.Volumes, Volume{ContainerPath: v.Path, Size: size})
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseSize(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return offer.ParseMB(s)
}
