// Package evaluator runs a task against every available offer and collects
// one outcome tree per offer.
package evaluator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/hashicorp/go-multierror"

	"offercube/config"
	"offercube/logger"
	"offercube/metrics"
	"offercube/offer"
	"offercube/outcome"
	"offercube/scheduler"
	"offercube/task"
)

// SourceOffer is the source of the root outcome of each offer.
const SourceOffer outcome.Source = "OfferEvaluator"

// Aggregation selects which recommendations a Result carries.
type Aggregation string

const (
	// Accepted skips recommendations that sit under a failing outcome.
	Accepted Aggregation = "accepted"
	// Computed takes every recommendation in the tree.
	Computed Aggregation = "computed"
)

// Result is the evaluation of one offer.
type Result struct {
	Offer           *offer.Offer
	Outcome         *outcome.Outcome
	Recommendations []offer.Recommendation
}

func (r Result) Passing() bool {
	return r.Outcome != nil && r.Outcome.Passing()
}

// Evaluator evaluates tasks against offers with a fixed stage pipeline.
type Evaluator struct {
	stage       scheduler.Stage
	parallelism int
	aggregation Aggregation
	log         logger.Logger
}

// New returns an Evaluator running stages in order for every offer. With
// no stages the default pipeline is used.
func New(conf config.Evaluator, stages ...scheduler.Stage) *Evaluator {
	if len(stages) == 0 {
		stages = scheduler.DefaultStages()
	}
	parallelism := conf.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	aggregation := Aggregation(conf.Aggregation)
	if aggregation != Computed {
		aggregation = Accepted
	}
	return &Evaluator{
		stage:       scheduler.AllOf(SourceOffer, stages...),
		parallelism: parallelism,
		aggregation: aggregation,
		log:         logger.New("evaluator"),
	}
}

// Evaluate runs the pipeline against every offer in parallel. Results are
// sorted by offer ID. An error from any stage fails the whole call.
func (e *Evaluator) Evaluate(ctx context.Context, t *task.Task, offers []*offer.Offer) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	results := make([]Result, len(offers))
	var (
		mu   sync.Mutex
		errs *multierror.Error
	)

	wp := workerpool.New(e.parallelism)
	for i, o := range offers {
		i, o := i, o
		wp.Submit(func() {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				errs = multierror.Append(errs, err)
				mu.Unlock()
				return
			}
			r, err := e.evaluate(o, t)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("offer %s: %w", o.ID, err))
				mu.Unlock()
				return
			}
			results[i] = r
		})
	}
	wp.StopWait()

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	sortByOfferID(results)
	metrics.ObserveEvaluation(time.Since(start))
	return results, nil
}

func (e *Evaluator) evaluate(o *offer.Offer, t *task.Task) (Result, error) {
	out, err := e.stage.Evaluate(o, t)
	if err != nil {
		return Result{}, err
	}
	metrics.ObserveOutcome(out)

	log := e.log.WithFields("task", t.Name, "offer", o.ID.String())
	log.Debug("evaluated offer", "tree", Tree(out))

	if !out.Passing() {
		reasons := make([]string, 0)
		for _, f := range outcome.Failures(out) {
			if len(f.Children()) == 0 {
				reasons = append(reasons, f.String())
			}
		}
		log.Info("declined offer", "reasons", reasons)
		return Result{Offer: o, Outcome: out, Recommendations: []offer.Recommendation{}}, nil
	}

	accepted := outcome.AcceptedRecommendations(out)
	computed := out.Recommendations()
	if len(accepted) != len(computed) {
		log.Warn("passing offer has recommendations under failing outcomes",
			"accepted", len(accepted), "computed", len(computed), "aggregation", string(e.aggregation))
	}

	recs := accepted
	if e.aggregation == Computed {
		recs = computed
	}
	return Result{Offer: o, Outcome: out, Recommendations: recs}, nil
}

// Passing returns the results whose outcome passed, keeping their order.
func Passing(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Passing() {
			out = append(out, r)
		}
	}
	return out
}

// Offers returns the offer of each result.
func Offers(results []Result) []*offer.Offer {
	out := make([]*offer.Offer, 0, len(results))
	for _, r := range results {
		out = append(out, r.Offer)
	}
	return out
}

// Find returns the result for the offer with the given ID.
func Find(results []Result, o *offer.Offer) (Result, bool) {
	if o == nil {
		return Result{}, false
	}
	for _, r := range results {
		if r.Offer.ID == o.ID {
			return r, true
		}
	}
	return Result{}, false
}

func sortByOfferID(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Offer.ID.String() < results[j].Offer.ID.String()
	})
}
