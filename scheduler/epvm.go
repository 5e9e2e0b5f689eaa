package scheduler

import (
	"math"

	"github.com/google/uuid"

	"offercube/offer"
	"offercube/task"
)

var _ Picker = &Epvm{}

// Epvm picks the offer with the lowest marginal cost for the task, using
// the E-PVM exponential cost on cpu and memory load. Offers where the
// task would take a small share of the resources cost less.
type Epvm struct {
	Name string
}

const (
	LIEB = 1.53960071783900203869
)

func (e *Epvm) Score(t *task.Task, offers []*offer.Offer) map[uuid.UUID]float64 {
	scores := make(map[uuid.UUID]float64)

	for _, o := range offers {
		cpuCost := marginalCost(t.Cpu, available(o, offer.CPUs, t.Role))
		memCost := marginalCost(t.Memory, available(o, offer.Mem, t.Role))
		scores[o.ID] = cpuCost + memCost
	}

	return scores
}

func (e *Epvm) Pick(scores map[uuid.UUID]float64, candidates []*offer.Offer) *offer.Offer {
	return lowestScore(scores, candidates)
}

// marginalCost is the cost increase of loading capacity by need, from idle.
func marginalCost(need, capacity float64) float64 {
	if need <= 0 {
		return 0
	}
	if capacity <= 0 {
		return math.Inf(1)
	}
	return math.Pow(LIEB, calculateLoad(need, capacity)) - 1
}

func calculateLoad(usage, capacity float64) float64 {
	return usage / capacity
}
