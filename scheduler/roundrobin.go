package scheduler

import (
	"sync"

	"github.com/google/uuid"

	"offercube/offer"
	"offercube/task"
)

var _ Picker = &RoundRobin{}

// RoundRobin rotates through the passing offers, one step per pick.
type RoundRobin struct {
	Name      string
	LastOffer int
	mu        sync.Mutex
}

func (r *RoundRobin) Score(t *task.Task, offers []*offer.Offer) map[uuid.UUID]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	offerScores := make(map[uuid.UUID]float64)
	var next int
	if r.LastOffer+1 < len(offers) {
		next = r.LastOffer + 1
	} else {
		next = 0
	}

	r.LastOffer = next

	for idx, o := range offers {
		if idx == next {
			offerScores[o.ID] = 0.1
		} else {
			offerScores[o.ID] = 1.0
		}
	}

	return offerScores
}

func (r *RoundRobin) Pick(scores map[uuid.UUID]float64, candidates []*offer.Offer) *offer.Offer {
	return lowestScore(scores, candidates)
}

// lowestScore returns the candidate with the lowest score; ties go to the
// earlier candidate.
func lowestScore(scores map[uuid.UUID]float64, candidates []*offer.Offer) *offer.Offer {
	if len(scores) == 0 || len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	lowest := scores[best.ID]

	for _, o := range candidates[1:] {
		if scores[o.ID] < lowest {
			best = o
			lowest = scores[o.ID]
		}
	}

	return best
}
