package offer

import (
	"fmt"
	"strings"

	"github.com/docker/go-connections/nat"
	"github.com/docker/go-units"
)

// Well known resource names.
const (
	CPUs  = "cpus"
	Mem   = "mem"
	Disk  = "disk"
	Ports = "ports"
)

// AnyRole is the role of unreserved resources.
const AnyRole = "*"

// Range is an inclusive range of values, used for ports.
type Range struct {
	Begin uint64 `json:"begin" yaml:"begin"`
	End   uint64 `json:"end" yaml:"end"`
}

func (r Range) Contains(v uint64) bool {
	return v >= r.Begin && v <= r.End
}

func (r Range) Len() uint64 {
	if r.End < r.Begin {
		return 0
	}
	return r.End - r.Begin + 1
}

func (r Range) String() string {
	if r.Begin == r.End {
		return fmt.Sprintf("%d", r.Begin)
	}
	return fmt.Sprintf("%d-%d", r.Begin, r.End)
}

// ParseRange parses "31000-32000" or a single "8080".
func ParseRange(s string) (Range, error) {
	begin, end, err := nat.ParsePortRange(s)
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	return Range{Begin: begin, End: end}, nil
}

// Resource is one unit of an offer: a scalar amount (cpus, mem in MB,
// disk in MB) or a set of ranges (ports). ID is set once the resource
// has been reserved.
type Resource struct {
	ID     string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name   string  `json:"name" yaml:"name"`
	Role   string  `json:"role" yaml:"role"`
	Scalar float64 `json:"scalar,omitempty" yaml:"scalar,omitempty"`
	Ranges []Range `json:"ranges,omitempty" yaml:"ranges,omitempty"`
}

// Scalar returns an unreserved scalar resource.
func Scalar(name string, value float64) Resource {
	return Resource{Name: name, Role: AnyRole, Scalar: value}
}

// RangesOf returns an unreserved ranges resource.
func RangesOf(name string, ranges ...Range) Resource {
	return Resource{Name: name, Role: AnyRole, Ranges: ranges}
}

func (r Resource) IsRanges() bool {
	return len(r.Ranges) > 0
}

func (r Resource) String() string {
	role := r.Role
	if role == "" {
		role = AnyRole
	}
	if r.IsRanges() {
		parts := make([]string, 0, len(r.Ranges))
		for _, rg := range r.Ranges {
			parts = append(parts, rg.String())
		}
		return fmt.Sprintf("%s(%s):[%s]", r.Name, role, strings.Join(parts, ","))
	}
	switch r.Name {
	case Mem, Disk:
		return fmt.Sprintf("%s(%s):%s", r.Name, role, units.BytesSize(r.Scalar*units.MiB))
	}
	return fmt.Sprintf("%s(%s):%.2f", r.Name, role, r.Scalar)
}

// ParseMB parses a human size ("512MiB", "4g") into megabytes.
func ParseMB(size string) (float64, error) {
	b, err := units.RAMInBytes(size)
	if err != nil {
		return 0, err
	}
	return float64(b) / units.MiB, nil
}
