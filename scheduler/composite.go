package scheduler

import (
	"fmt"

	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

type combine int

const (
	combineAll combine = iota
	combineAny
)

type composite struct {
	source outcome.Source
	stages []Stage
	mode   combine
}

// AllOf runs every stage and passes only if all of them pass. Each stage's
// outcome becomes a child, in stage order. An empty AllOf passes.
func AllOf(source outcome.Source, stages ...Stage) Stage {
	return &composite{source: source, stages: stages, mode: combineAll}
}

// AnyOf runs every stage and passes if at least one passes. An empty AnyOf
// fails.
func AnyOf(source outcome.Source, stages ...Stage) Stage {
	return &composite{source: source, stages: stages, mode: combineAny}
}

func (c *composite) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	children := make([]*outcome.Outcome, 0, len(c.stages))
	passed := 0
	for _, s := range c.stages {
		child, err := s.Evaluate(o, t)
		if err != nil {
			return nil, err
		}
		if child == nil {
			return nil, fmt.Errorf("%s: %w", c.source, ErrNoOutcome)
		}
		if child.Passing() {
			passed++
		}
		children = append(children, child)
	}

	var (
		b   *outcome.Builder
		err error
	)
	switch {
	case c.mode == combineAll && passed == len(children):
		b, err = outcome.Pass(c.source, "all %d stages passed", len(children))
	case c.mode == combineAll:
		b, err = outcome.Fail(c.source, "%d of %d stages failed", len(children)-passed, len(children))
	case passed > 0:
		b, err = outcome.Pass(c.source, "%d of %d stages passed", passed, len(children))
	default:
		b, err = outcome.Fail(c.source, "none of %d stages passed", len(children))
	}
	if err != nil {
		return nil, err
	}
	return b.AddChildren(children).Build(), nil
}
