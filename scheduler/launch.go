package scheduler

import (
	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

const SourceLaunch outcome.Source = "LaunchStage"

// LaunchStage recommends launching the task on the offer with the
// resources it asked for and the host ports PortStage would assign.
type LaunchStage struct{}

func (s *LaunchStage) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	ports, ok := portBindings(assignPorts(o, t))
	if !ok {
		b, err := outcome.Fail(SourceLaunch, "cannot launch %s: not every port could be assigned", t.Name)
		if err != nil {
			return nil, err
		}
		return b.Build(), nil
	}

	var resources []offer.Resource
	for _, name := range []string{offer.CPUs, offer.Mem, offer.Disk} {
		if v := requested(name, t); v > 0 {
			resources = append(resources, split(o, name, t.Role, v)...)
		}
	}

	launch := &offer.LaunchRecommendation{
		Offer:     o.ID,
		TaskID:    t.ID,
		TaskName:  t.Name,
		Image:     t.Image,
		Env:       t.Env,
		Resources: resources,
		Ports:     ports,
	}
	b, err := outcome.PassWith(SourceLaunch, []offer.Recommendation{launch},
		"launch %s on %s", t.Name, o.Hostname)
	if err != nil {
		return nil, err
	}
	return b.Build(), nil
}
