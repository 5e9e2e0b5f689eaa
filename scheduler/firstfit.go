package scheduler

import (
	"github.com/google/uuid"

	"offercube/offer"
	"offercube/task"
)

var _ Picker = &FirstFit{}

// FirstFit takes the first passing offer.
type FirstFit struct{}

func (f *FirstFit) Score(_ *task.Task, offers []*offer.Offer) map[uuid.UUID]float64 {
	scores := make(map[uuid.UUID]float64, len(offers))
	for _, o := range offers {
		scores[o.ID] = 0
	}
	return scores
}

func (f *FirstFit) Pick(scores map[uuid.UUID]float64, candidates []*offer.Offer) *offer.Offer {
	return lowestScore(scores, candidates)
}
