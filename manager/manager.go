package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/golang-collections/collections/queue"
	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"offercube/config"
	"offercube/evaluator"
	"offercube/logger"
	"offercube/metrics"
	"offercube/offer"
	"offercube/scheduler"
	"offercube/store"
	"offercube/task"
)

// ErrNotLaunched is returned when stopping a task that is not running.
var ErrNotLaunched = errors.New("task is not launched")

// Decision records how one pending task was matched against the offers
// available at the time. Lines holds the rendered outcome tree of the
// chosen offer, or of every offer when none matched.
type Decision struct {
	ID              uuid.UUID `json:"id"`
	TaskID          uuid.UUID `json:"task_id"`
	TaskName        string    `json:"task_name"`
	OfferID         uuid.UUID `json:"offer_id"`
	Passed          bool      `json:"passed"`
	Offers          int       `json:"offers"`
	Lines           []string  `json:"lines"`
	Recommendations []string  `json:"recommendations"`
	Time            time.Time `json:"time"`
}

type Manager struct {
	mu         sync.Mutex
	Pending    *queue.Queue
	TaskDb     store.Store[*task.Task]
	OfferDb    store.Store[*offer.Offer]
	DecisionDb store.Store[*Decision]
	Evaluator  *evaluator.Evaluator
	Picker     scheduler.Picker
	Launcher   task.Launcher
	Interval   time.Duration

	log logger.Logger
}

// New returns a Manager with stores opened on db, or in memory when db is
// nil. launcher may be nil, in which case matched tasks are not started.
func New(conf config.Config, db *bbolt.DB, launcher task.Launcher) (*Manager, error) {
	picker, err := scheduler.NewPicker(conf.Scheduler.Picker)
	if err != nil {
		return nil, err
	}

	ts, err := store.New[*task.Task](db, "tasks")
	if err != nil {
		return nil, err
	}
	ofs, err := store.New[*offer.Offer](db, "offers")
	if err != nil {
		return nil, err
	}
	ds, err := store.New[*Decision](db, "decisions")
	if err != nil {
		return nil, err
	}

	m := &Manager{
		Pending:    queue.New(),
		TaskDb:     ts,
		OfferDb:    ofs,
		DecisionDb: ds,
		Evaluator:  evaluator.New(conf.Evaluator),
		Picker:     picker,
		Launcher:   launcher,
		Interval:   conf.Manager.Interval,
		log:        logger.New("manager"),
	}

	if err := m.requeuePending(); err != nil {
		return nil, err
	}
	return m, nil
}

// requeuePending puts tasks left pending in a persistent store back on the
// queue.
func (m *Manager) requeuePending() error {
	tasks, err := m.TaskDb.List()
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].SubmitTime.Before(tasks[j].SubmitTime) })
	for _, t := range tasks {
		if t.State == task.Pending {
			m.Pending.Enqueue(t.ID)
		}
	}
	return nil
}

// AddTask stores a pending task and queues it for evaluation.
func (m *Manager) AddTask(t *task.Task) error {
	if t.State != task.Pending {
		return fmt.Errorf("task %s is %v, only pending tasks can be added", t.ID, t.State)
	}
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.TaskDb.Put(t.ID.String(), t); err != nil {
		return fmt.Errorf("storing task %s: %w", t.ID, err)
	}
	m.Pending.Enqueue(t.ID)
	m.log.Info("task queued", "task", t.Name, "id", t.ID.String())
	return nil
}

// AddOffer stores an offer. Tasks that previously found no match are
// queued again.
func (m *Manager) AddOffer(o *offer.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.OfferDb.Put(o.ID.String(), o); err != nil {
		return fmt.Errorf("storing offer %s: %w", o.ID, err)
	}
	m.log.Info("offer added", "offer", o.ID.String(), "hostname", o.Hostname)

	tasks, err := m.TaskDb.List()
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}
	for _, t := range tasks {
		if t.State != task.Unmatched {
			continue
		}
		if err := t.Transition(task.Pending); err != nil {
			return err
		}
		if err := m.TaskDb.Put(t.ID.String(), t); err != nil {
			return fmt.Errorf("storing task %s: %w", t.ID, err)
		}
		m.Pending.Enqueue(t.ID)
		m.log.Debug("task requeued", "task", t.Name)
	}
	return nil
}

func (m *Manager) GetTasks() ([]*task.Task, error) {
	return m.TaskDb.List()
}

func (m *Manager) GetTask(id string) (*task.Task, error) {
	return m.TaskDb.Get(id)
}

func (m *Manager) GetOffers() ([]*offer.Offer, error) {
	return m.OfferDb.List()
}

// Decisions returns every decision, oldest first.
func (m *Manager) Decisions() ([]*Decision, error) {
	ds, err := m.DecisionDb.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(ds, func(i, j int) bool { return ds[i].Time.Before(ds[j].Time) })
	return ds, nil
}

// TaskStateCounts counts tasks in each state.
func (m *Manager) TaskStateCounts() (map[task.State]int, error) {
	tasks, err := m.TaskDb.List()
	if err != nil {
		return nil, err
	}
	counts := make(map[task.State]int)
	for _, t := range tasks {
		counts[t.State]++
	}
	return counts, nil
}

// Evaluate runs a task against the stored offers without changing any
// state.
func (m *Manager) Evaluate(ctx context.Context, t *task.Task) ([]evaluator.Result, error) {
	offers, err := m.OfferDb.List()
	if err != nil {
		return nil, fmt.Errorf("listing offers: %w", err)
	}
	return m.Evaluator.Evaluate(ctx, t, offers)
}

// ProcessNext takes the next pending task off the queue, evaluates it
// against every stored offer and records the decision. It returns nil when
// the queue is empty.
func (m *Manager) ProcessNext(ctx context.Context) (*Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Pending.Len() == 0 {
		return nil, nil
	}
	id := m.Pending.Dequeue().(uuid.UUID)

	t, err := m.TaskDb.Get(id.String())
	if err != nil {
		return nil, fmt.Errorf("unable to schedule task %s: %w", id, err)
	}
	if t.State != task.Pending {
		m.log.Debug("skipping task that is no longer pending", "task", t.Name, "state", t.State.String())
		return nil, nil
	}

	results, err := m.Evaluate(ctx, t)
	if err != nil {
		m.Pending.Enqueue(id)
		return nil, fmt.Errorf("evaluating task %s: %w", t.Name, err)
	}

	d := &Decision{
		ID:       uuid.New(),
		TaskID:   t.ID,
		TaskName: t.Name,
		Offers:   len(results),
		Lines:    []string{},
		Time:     time.Now(),
	}

	passing := evaluator.Passing(results)
	chosen := scheduler.Select(m.Picker, t, evaluator.Offers(passing))
	if chosen == nil {
		for _, r := range results {
			d.Lines = append(d.Lines, evaluator.Lines(r.Outcome)...)
		}
		d.Recommendations = []string{}
		if err := t.Transition(task.Unmatched); err != nil {
			return nil, err
		}
		m.log.Info("no offer matched task", "task", t.Name, "offers", len(results))
	} else {
		r, _ := evaluator.Find(passing, chosen)
		d.Passed = true
		d.OfferID = chosen.ID
		d.Lines = evaluator.Lines(r.Outcome)
		d.Recommendations = offer.Strings(r.Recommendations)

		if err := t.Transition(task.Matched); err != nil {
			return nil, err
		}
		t.OfferID = chosen.ID
		t.ScheduledOn = chosen.Hostname
		if err := m.OfferDb.Delete(chosen.ID.String()); err != nil {
			m.log.Warn("unable to remove accepted offer", "offer", chosen.ID.String(), "error", err)
		}
		m.log.Info("task matched", "task", t.Name, "offer", chosen.ID.String(), "hostname", chosen.Hostname)

		if m.Launcher != nil {
			m.launch(ctx, t, r.Recommendations)
		}
	}

	if err := m.TaskDb.Put(t.ID.String(), t); err != nil {
		return nil, fmt.Errorf("storing task %s: %w", t.ID, err)
	}
	if err := m.DecisionDb.Put(d.ID.String(), d); err != nil {
		return nil, fmt.Errorf("storing decision %s: %w", d.ID, err)
	}
	return d, nil
}

func (m *Manager) launch(ctx context.Context, t *task.Task, recs []offer.Recommendation) {
	var launch *offer.LaunchRecommendation
	for _, r := range recs {
		if l, ok := r.(*offer.LaunchRecommendation); ok {
			launch = l
		}
	}
	if launch == nil {
		m.log.Warn("matched offer carries no launch recommendation", "task", t.Name)
		return
	}

	id, err := m.Launcher.Launch(ctx, launch)
	if err != nil {
		m.log.Error("launch failed", err)
		m.transition(t, task.Failed)
		return
	}
	t.ContainerID = id
	if m.transition(t, task.Launched) {
		m.log.Info("task launched", "task", t.Name, "container", id)
	}
}

// transition moves t to dst, logging instead of failing when the move is
// not allowed. It reports whether the state changed.
func (m *Manager) transition(t *task.Task, dst task.State) bool {
	if err := t.Transition(dst); err != nil {
		m.log.Warn("invalid task transition", "task", t.Name, "from", t.State.String(), "to", dst.String(), "error", err)
		return false
	}
	return true
}

// StopTask stops a launched task.
func (m *Manager) StopTask(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, err := m.TaskDb.Get(id)
	if err != nil {
		return err
	}
	if t.State != task.Launched || m.Launcher == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotLaunched)
	}
	if err := m.Launcher.Stop(ctx, t.ContainerID); err != nil {
		return err
	}
	if err := t.Transition(task.Killed); err != nil {
		return err
	}
	return m.TaskDb.Put(t.ID.String(), t)
}

// ProcessTasks drains the pending queue.
func (m *Manager) ProcessTasks(ctx context.Context) {
	for ctx.Err() == nil {
		d, err := m.ProcessNext(ctx)
		if err != nil {
			m.log.Error("processing task", err)
			return
		}
		if d == nil && m.queueLen() == 0 {
			return
		}
	}
}

func (m *Manager) queueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pending.Len()
}

// Run processes the queue every Interval until ctx is canceled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		m.log.Debug("processing pending tasks", "queued", m.queueLen())
		m.ProcessTasks(ctx)
		if err := metrics.UpdateTaskStates(m); err != nil {
			m.log.Warn("unable to count task states", "error", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
