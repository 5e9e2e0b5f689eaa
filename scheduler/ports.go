package scheduler

import (
	"strconv"

	"github.com/docker/go-connections/nat"

	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

const (
	SourcePorts outcome.Source = "PortStage"
	SourcePort  outcome.Source = "PortRequest"
)

// portAssignment is the host port chosen for one requested mapping.
// host is 0 when no port could be assigned.
type portAssignment struct {
	mapping nat.PortMapping
	fixed   uint64
	host    uint64
	role    string
}

type roleRange struct {
	offer.Range
	role string
}

// offeredPorts lists the role's own port ranges ahead of unreserved ones.
func offeredPorts(o *offer.Offer, role string) []roleRange {
	roles := []string{role}
	if role != offer.AnyRole {
		roles = append(roles, offer.AnyRole)
	}
	var out []roleRange
	for _, rl := range roles {
		for _, r := range o.PortRanges(rl) {
			out = append(out, roleRange{Range: r, role: rl})
		}
	}
	return out
}

// assignPorts chooses a host port for every requested mapping. Fixed host
// ports are claimed first so that a dynamic request never takes a port
// another mapping asked for by number; dynamic requests then take the
// lowest free offered port. The result is in request order.
func assignPorts(o *offer.Offer, t *task.Task) []portAssignment {
	ranges := offeredPorts(o, t.Role)

	out := make([]portAssignment, len(t.Ports))
	used := map[uint64]bool{}

	for i, m := range t.Ports {
		out[i] = portAssignment{mapping: m, fixed: task.HostPort(m)}
		p := out[i].fixed
		if p == 0 || used[p] {
			continue
		}
		for _, r := range ranges {
			if r.Contains(p) {
				out[i].host = p
				out[i].role = r.role
				used[p] = true
				break
			}
		}
	}

	for i := range out {
		if out[i].fixed != 0 {
			continue
		}
	search:
		for _, r := range ranges {
			// Port 0 means "any port" and is never handed out; p != 0 stops
			// the loop if it wraps past the largest port.
			for p := max(r.Begin, 1); p <= r.End && p != 0; p++ {
				if !used[p] {
					out[i].host = p
					out[i].role = r.role
					used[p] = true
					break search
				}
			}
		}
	}
	return out
}

// PortStage checks that every requested port can be bound on the agent.
// Each request becomes a child; all of them must pass.
type PortStage struct{}

func (s *PortStage) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	if len(t.Ports) == 0 {
		b, err := outcome.Pass(SourcePorts, "no ports requested")
		if err != nil {
			return nil, err
		}
		return b.Build(), nil
	}

	children := make([]*outcome.Outcome, 0, len(t.Ports))
	failed := 0
	for _, a := range assignPorts(o, t) {
		var (
			b   *outcome.Builder
			err error
		)
		switch {
		case a.host != 0:
			res := offer.Resource{Name: offer.Ports, Role: a.role, Ranges: []offer.Range{{Begin: a.host, End: a.host}}}
			reserve := offer.NewReserve(o.ID, t.ID, res)
			b, err = outcome.PassWith(SourcePort, []offer.Recommendation{reserve},
				"host port %d for %s", a.host, a.mapping.Port)
			if err == nil {
				b.WithResource(reserve.Resource)
			}
		case a.fixed != 0:
			failed++
			b, err = outcome.Fail(SourcePort, "port %d unavailable for %s", a.fixed, a.mapping.Port)
		default:
			failed++
			b, err = outcome.Fail(SourcePort, "no free port for %s", a.mapping.Port)
		}
		if err != nil {
			return nil, err
		}
		children = append(children, b.Build())
	}

	var (
		b   *outcome.Builder
		err error
	)
	if failed == 0 {
		b, err = outcome.Pass(SourcePorts, "all %d ports available", len(children))
	} else {
		b, err = outcome.Fail(SourcePorts, "%d of %d ports unavailable", failed, len(children))
	}
	if err != nil {
		return nil, err
	}
	return b.AddChildren(children).Build(), nil
}

// portBindings renders assigned ports as docker bindings. ok is false if
// any request was left without a host port.
func portBindings(assigned []portAssignment) (nat.PortMap, bool) {
	pm := nat.PortMap{}
	for _, a := range assigned {
		if a.host == 0 {
			return nil, false
		}
		pm[a.mapping.Port] = append(pm[a.mapping.Port], nat.PortBinding{
			HostIP:   a.mapping.Binding.HostIP,
			HostPort: formatPort(a.host),
		})
	}
	return pm, true
}

func formatPort(p uint64) string {
	return strconv.FormatUint(p, 10)
}
