// Package node describes the local host as an agent offering resources.
package node

import (
	"fmt"
	"os"

	"github.com/docker/go-units"

	"offercube/offer"
)

// DefaultPorts is the host port range offered when none is configured.
var DefaultPorts = offer.Range{Begin: 31000, End: 32000}

type Node struct {
	Name       string
	Hostname   string
	Role       string
	Attributes map[string]string
	Ports      []offer.Range
	Stats      *Stats
}

// New returns a node for hostname with the default port range.
func New(name, hostname, role string) *Node {
	return &Node{
		Name:     name,
		Hostname: hostname,
		Role:     role,
		Ports:    []offer.Range{DefaultPorts},
	}
}

// Offer describes the node's currently available resources. Memory and
// disk are the host's available amounts in MB.
func (n *Node) Offer() *offer.Offer {
	role := n.Role
	if role == "" {
		role = offer.AnyRole
	}
	s := n.Stats
	if s == nil {
		s = &Stats{}
	}

	var resources []offer.Resource
	if s.CpuInfo != nil {
		resources = append(resources, offer.Scalar(offer.CPUs, float64(s.NumCPU())))
	}
	if s.MemStats != nil {
		resources = append(resources, offer.Scalar(offer.Mem, float64(s.MemAvailableKb())*units.KiB/units.MiB))
	}
	if s.DiskStats != nil {
		resources = append(resources, offer.Scalar(offer.Disk, float64(s.DiskFree())/units.MiB))
	}
	if len(n.Ports) > 0 {
		resources = append(resources, offer.RangesOf(offer.Ports, n.Ports...))
	}
	for i := range resources {
		resources[i].Role = role
	}

	o := offer.New(n.Name, n.Hostname, resources...)
	if len(n.Attributes) > 0 {
		o.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			o.Attributes[k] = v
		}
	}
	return o
}

// LocalOffer reads the local host's stats and returns an offer for them.
func LocalOffer(role string) (*offer.Offer, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("reading hostname: %w", err)
	}
	n := New(hostname, hostname, role)
	n.Stats = GetStats()
	return n.Offer(), nil
}
