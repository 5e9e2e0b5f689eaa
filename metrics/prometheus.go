package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"offercube/outcome"
	"offercube/task"
)

func init() {
	prometheus.MustRegister(outcomes)
	prometheus.MustRegister(evaluations)
	prometheus.MustRegister(evaluationDuration)
	prometheus.MustRegister(taskStates)
}

var outcomes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "offercube",
		Subsystem: "evaluator",
		Name:      "outcomes_total",
		Help:      "Number of outcomes produced, by verdict and source.",
	},
	[]string{"verdict", "source"},
)

var evaluations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "offercube",
		Subsystem: "evaluator",
		Name:      "offers_total",
		Help:      "Number of offers evaluated, by verdict.",
	},
	[]string{"verdict"},
)

var evaluationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "offercube",
	Subsystem: "evaluator",
	Name:      "evaluation_duration_seconds",
	Help:      "Time taken to evaluate every offer against one task.",
	Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
})

var taskStates = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "offercube",
		Subsystem: "tasks",
		Name:      "state_count",
		Help:      "Number of tasks in each state.",
	},
	[]string{"state"},
)

func init() {
	resetTaskStates()
}

func resetTaskStates() {
	for _, s := range task.States() {
		taskStates.WithLabelValues(s.String()).Set(0)
	}
}

// ObserveOutcome counts the root verdict of an offer evaluation and every
// outcome in its tree.
func ObserveOutcome(o *outcome.Outcome) {
	if o == nil {
		return
	}
	evaluations.WithLabelValues(o.Verdict().String()).Inc()
	outcome.Walk(o, func(_ int, n *outcome.Outcome) bool {
		outcomes.WithLabelValues(n.Verdict().String(), string(n.Source())).Inc()
		return true
	})
}

// ObserveEvaluation records how long one evaluation round took.
func ObserveEvaluation(d time.Duration) {
	evaluationDuration.Observe(d.Seconds())
}

// TaskStateCounter is implemented by anything that can count tasks in
// each state.
type TaskStateCounter interface {
	TaskStateCounts() (map[task.State]int, error)
}

// UpdateTaskStates sets the task state gauge from counter.
func UpdateTaskStates(counter TaskStateCounter) error {
	counts, err := counter.TaskStateCounts()
	if err != nil {
		return err
	}
	resetTaskStates()
	for s, n := range counts {
		taskStates.WithLabelValues(s.String()).Set(float64(n))
	}
	return nil
}

// WatchTaskStates updates the task state gauge every interval.
// This blocks until the context is canceled.
func WatchTaskStates(ctx context.Context, counter TaskStateCounter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = UpdateTaskStates(counter)
		}
	}
}
