package offer

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Offer describes the resources an agent offers to the scheduler.
type Offer struct {
	ID         uuid.UUID         `json:"id"`
	AgentID    string            `json:"agent_id"`
	Hostname   string            `json:"hostname"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Resources  []Resource        `json:"resources"`
}

// New returns an offer with a fresh ID.
func New(agentID, hostname string, resources ...Resource) *Offer {
	return &Offer{
		ID:        uuid.New(),
		AgentID:   agentID,
		Hostname:  hostname,
		Resources: resources,
	}
}

// Find returns the resources with the given name and role, in offer order.
func (o *Offer) Find(name, role string) []Resource {
	var out []Resource
	for _, r := range o.Resources {
		if r.Name == name && roleOf(r) == role {
			out = append(out, r)
		}
	}
	return out
}

// Scalar sums the scalar resources with the given name and role.
func (o *Offer) Scalar(name, role string) float64 {
	var total float64
	for _, r := range o.Find(name, role) {
		total += r.Scalar
	}
	return total
}

// PortRanges returns every port range offered for the role.
func (o *Offer) PortRanges(role string) []Range {
	var out []Range
	for _, r := range o.Find(Ports, role) {
		out = append(out, r.Ranges...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Begin < out[j].Begin })
	return out
}

func roleOf(r Resource) string {
	if r.Role == "" {
		return AnyRole
	}
	return r.Role
}

// SortByID sorts offers in place by ID, giving a deterministic order.
func SortByID(offers []*Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].ID.String() < offers[j].ID.String()
	})
}

type fileSpec struct {
	Offers []offerSpec `yaml:"offers"`
}

type offerSpec struct {
	ID         string            `yaml:"id"`
	AgentID    string            `yaml:"agent_id"`
	Hostname   string            `yaml:"hostname"`
	Attributes map[string]string `yaml:"attributes"`
	Resources  []resourceSpec    `yaml:"resources"`
}

type resourceSpec struct {
	Name   string   `yaml:"name"`
	Role   string   `yaml:"role"`
	Scalar float64  `yaml:"scalar"`
	Size   string   `yaml:"size"`
	Ranges []string `yaml:"ranges"`
}

// Load reads offers from a YAML file.
func Load(path string) ([]*Offer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading offers file: %w", err)
	}
	return Parse(data)
}

// Parse decodes offers from YAML. Unknown fields are rejected.
func Parse(data []byte) ([]*Offer, error) {
	var spec fileSpec
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing offers: %w", err)
	}

	offers := make([]*Offer, 0, len(spec.Offers))
	for i, s := range spec.Offers {
		o, err := s.toOffer()
		if err != nil {
			return nil, fmt.Errorf("offer %d: %w", i, err)
		}
		offers = append(offers, o)
	}
	return offers, nil
}

func (s offerSpec) toOffer() (*Offer, error) {
	o := &Offer{
		ID:         uuid.New(),
		AgentID:    s.AgentID,
		Hostname:   s.Hostname,
		Attributes: s.Attributes,
	}
	if s.ID != "" {
		id, err := uuid.Parse(s.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", s.ID, err)
		}
		o.ID = id
	}

	for _, rs := range s.Resources {
		r := Resource{Name: rs.Name, Role: rs.Role, Scalar: rs.Scalar}
		if r.Role == "" {
			r.Role = AnyRole
		}
		if rs.Size != "" {
			mb, err := ParseMB(rs.Size)
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", rs.Name, err)
			}
			r.Scalar = mb
		}
		for _, raw := range rs.Ranges {
			rg, err := ParseRange(raw)
			if err != nil {
				return nil, fmt.Errorf("resource %s: %w", rs.Name, err)
			}
			r.Ranges = append(r.Ranges, rg)
		}
		o.Resources = append(o.Resources, r)
	}
	return o, nil
}
