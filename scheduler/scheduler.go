package scheduler

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"offercube/offer"
	"offercube/outcome"
	"offercube/task"
)

// Stage is one unit of offer evaluation. Evaluate returns exactly one
// outcome describing whether the offer satisfies the part of the task the
// stage is responsible for. A non-matching offer is a failing outcome;
// the error is reserved for outcomes that could not be constructed.
//
// Stages are pure functions of their inputs and must not keep or modify
// the outcomes they return.
type Stage interface {
	Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error)
}

// ErrNoOutcome reports a stage that broke its contract by returning neither
// an outcome nor an error.
var ErrNoOutcome = errors.New("stage returned no outcome")

// StageFunc adapts a function to the Stage interface.
type StageFunc func(o *offer.Offer, t *task.Task) (*outcome.Outcome, error)

func (f StageFunc) Evaluate(o *offer.Offer, t *task.Task) (*outcome.Outcome, error) {
	return f(o, t)
}

// Picker chooses one offer among those that passed evaluation.
type Picker interface {
	Score(t *task.Task, offers []*offer.Offer) map[uuid.UUID]float64
	Pick(scores map[uuid.UUID]float64, candidates []*offer.Offer) *offer.Offer
}

// NewPicker returns the picker registered under name.
func NewPicker(name string) (Picker, error) {
	switch name {
	case "", "firstfit":
		return &FirstFit{}, nil
	case "roundrobin":
		return &RoundRobin{Name: "roundrobin"}, nil
	case "epvm":
		return &Epvm{Name: "epvm"}, nil
	default:
		return nil, fmt.Errorf("unknown picker %q; valid pickers: [firstfit, roundrobin, epvm]", name)
	}
}

// Select scores the candidates and picks one, or returns nil if there are
// no candidates.
func Select(p Picker, t *task.Task, candidates []*offer.Offer) *offer.Offer {
	if len(candidates) == 0 {
		return nil
	}
	return p.Pick(p.Score(t, candidates), candidates)
}
