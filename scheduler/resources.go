package scheduler

import (
	"fmt"

	"github.com/docker/go-units"

	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

const SourceResource outcome.Source = "ResourceStage"

// ResourceStage matches one scalar resource (cpus, mem or disk) of the
// task against the offer. Resources reserved for the task's role are
// used together with unreserved ones.
type ResourceStage struct {
	Name string
}

func (s *ResourceStage) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	need := requested(s.Name, t)
	if need <= 0 {
		b, err := outcome.Pass(SourceResource, "no %s requested", s.Name)
		if err != nil {
			return nil, err
		}
		return b.Build(), nil
	}

	have := available(o, s.Name, t.Role)
	if have < need {
		b, err := outcome.Fail(SourceResource,
			"insufficient %s: requested %s, offered %s for role %s",
			s.Name, amount(s.Name, need), amount(s.Name, have), t.Role)
		if err != nil {
			return nil, err
		}
		return b.Build(), nil
	}

	var recs []offer.Recommendation
	for _, res := range split(o, s.Name, t.Role, need) {
		recs = append(recs, offer.NewReserve(o.ID, t.ID, res))
	}
	b, err := outcome.PassWith(SourceResource, recs,
		"offer satisfies %s request of %s (offered %s)",
		s.Name, amount(s.Name, need), amount(s.Name, have))
	if err != nil {
		return nil, err
	}
	return b.WithResource(offer.Resource{Name: s.Name, Role: t.Role, Scalar: need}).Build(), nil
}

// split takes need from the role's own reservations first and the rest
// from unreserved resources, one Resource per role drawn from.
func split(o *offer.Offer, name, role string, need float64) []offer.Resource {
	var out []offer.Resource
	if role != offer.AnyRole {
		if own := min(o.Scalar(name, role), need); own > 0 {
			out = append(out, offer.Resource{Name: name, Role: role, Scalar: own})
			need -= own
		}
	}
	if need > 0 {
		out = append(out, offer.Resource{Name: name, Role: offer.AnyRole, Scalar: need})
	}
	return out
}

func requested(name string, t *task.Task) float64 {
	switch name {
	case offer.CPUs:
		return t.Cpu
	case offer.Mem:
		return t.Memory
	case offer.Disk:
		return t.Disk
	}
	return 0
}

// available is the amount of a scalar the role may use: its own
// reservations plus unreserved resources.
func available(o *offer.Offer, name, role string) float64 {
	have := o.Scalar(name, role)
	if role != offer.AnyRole {
		have += o.Scalar(name, offer.AnyRole)
	}
	return have
}

func amount(name string, v float64) string {
	switch name {
	case offer.Mem, offer.Disk:
		return units.BytesSize(v * units.MiB)
	}
	return fmt.Sprintf("%.2f", v)
}
