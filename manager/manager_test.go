package manager

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offercube/config"
	"offercube/logger"
	"offercube/offer"
	"offercube/store"
	"offercube/task"
)

func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

type fakeLauncher struct {
	launched []*offer.LaunchRecommendation
	stopped  []string
	err      error
}

func (f *fakeLauncher) Launch(_ context.Context, rec *offer.LaunchRecommendation) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.launched = append(f.launched, rec)
	return "container-" + rec.TaskName, nil
}

func (f *fakeLauncher) Stop(_ context.Context, id string) error {
	f.stopped = append(f.stopped, id)
	return nil
}

func newManager(t *testing.T, launcher task.Launcher) *Manager {
	m, err := New(config.DefaultConfig(), nil, launcher)
	require.NoError(t, err)
	return m
}

func pendingTask(name string, cpu float64) *task.Task {
	return &task.Task{
		ID:         uuid.New(),
		Name:       name,
		Image:      "nginx",
		Role:       offer.AnyRole,
		State:      task.Pending,
		Cpu:        cpu,
		Memory:     256,
		SubmitTime: time.Now(),
	}
}

func hostOffer(host string, cpus float64) *offer.Offer {
	return offer.New("agent-"+host, host,
		offer.Scalar(offer.CPUs, cpus),
		offer.Scalar(offer.Mem, 1024),
	)
}

func TestProcessNextEmptyQueue(t *testing.T) {
	m := newManager(t, nil)
	d, err := m.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestProcessNextMatches(t *testing.T) {
	launcher := &fakeLauncher{}
	m := newManager(t, launcher)

	o := hostOffer("a", 4)
	require.NoError(t, m.AddOffer(o))
	tk := pendingTask("web", 2)
	require.NoError(t, m.AddTask(tk))

	d, err := m.ProcessNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.True(t, d.Passed)
	assert.Equal(t, o.ID, d.OfferID)
	assert.Equal(t, tk.ID, d.TaskID)
	assert.Equal(t, "PASS(OfferEvaluator): all 7 stages passed", d.Lines[0])
	assert.NotEmpty(t, d.Recommendations)

	stored, err := m.GetTask(tk.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.Launched, stored.State)
	assert.Equal(t, "container-web", stored.ContainerID)
	assert.Equal(t, "a", stored.ScheduledOn)
	require.Len(t, launcher.launched, 1)
	assert.Equal(t, o.ID, launcher.launched[0].Offer)

	offers, err := m.GetOffers()
	require.NoError(t, err)
	assert.Empty(t, offers)

	decisions, err := m.Decisions()
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, d.ID, decisions[0].ID)
}

func TestProcessNextWithoutLauncher(t *testing.T) {
	m := newManager(t, nil)
	require.NoError(t, m.AddOffer(hostOffer("a", 4)))
	tk := pendingTask("web", 1)
	require.NoError(t, m.AddTask(tk))

	_, err := m.ProcessNext(context.Background())
	require.NoError(t, err)

	stored, err := m.GetTask(tk.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.Matched, stored.State)
}

func TestInvalidTransitionIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.Discard()

	m := newManager(t, &fakeLauncher{})
	tk := pendingTask("web", 1)

	assert.False(t, m.transition(tk, task.Launched))
	assert.Equal(t, task.Pending, tk.State)
	assert.Contains(t, buf.String(), "invalid task transition")
	assert.Contains(t, buf.String(), "task=web")

	buf.Reset()
	assert.True(t, m.transition(tk, task.Matched))
	assert.Equal(t, task.Matched, tk.State)
	assert.Empty(t, buf.String())
}

func TestLaunchFailure(t *testing.T) {
	m := newManager(t, &fakeLauncher{err: errors.New("no docker")})
	require.NoError(t, m.AddOffer(hostOffer("a", 4)))
	tk := pendingTask("web", 1)
	require.NoError(t, m.AddTask(tk))

	_, err := m.ProcessNext(context.Background())
	require.NoError(t, err)

	stored, err := m.GetTask(tk.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.Failed, stored.State)
}

func TestUnmatchedTaskIsRequeuedByNewOffer(t *testing.T) {
	m := newManager(t, nil)
	require.NoError(t, m.AddOffer(hostOffer("small", 1)))
	tk := pendingTask("big", 8)
	require.NoError(t, m.AddTask(tk))

	d, err := m.ProcessNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.False(t, d.Passed)
	assert.Equal(t, uuid.Nil, d.OfferID)
	assert.Empty(t, d.Recommendations)
	assert.Contains(t, d.Lines[0], "FAIL(OfferEvaluator)")

	stored, err := m.GetTask(tk.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.Unmatched, stored.State)

	big := hostOffer("big", 16)
	require.NoError(t, m.AddOffer(big))
	stored, err = m.GetTask(tk.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.Pending, stored.State)

	d, err = m.ProcessNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.Passed)
	assert.Equal(t, big.ID, d.OfferID)
}

func TestAddTaskRejectsNonPending(t *testing.T) {
	m := newManager(t, nil)
	tk := pendingTask("web", 1)
	tk.State = task.Launched
	assert.Error(t, m.AddTask(tk))
}

func TestStopTask(t *testing.T) {
	launcher := &fakeLauncher{}
	m := newManager(t, launcher)
	require.NoError(t, m.AddOffer(hostOffer("a", 4)))
	tk := pendingTask("web", 1)
	require.NoError(t, m.AddTask(tk))
	_, err := m.ProcessNext(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.StopTask(context.Background(), tk.ID.String()))
	assert.Equal(t, []string{"container-web"}, launcher.stopped)

	stored, err := m.GetTask(tk.ID.String())
	require.NoError(t, err)
	assert.Equal(t, task.Killed, stored.State)

	assert.ErrorIs(t, m.StopTask(context.Background(), tk.ID.String()), ErrNotLaunched)
	assert.ErrorIs(t, m.StopTask(context.Background(), uuid.NewString()), store.ErrNotFound)
}

func TestProcessTasksDrainsQueue(t *testing.T) {
	m := newManager(t, nil)
	for _, h := range []string{"a", "b", "c"} {
		require.NoError(t, m.AddOffer(hostOffer(h, 4)))
	}
	for _, n := range []string{"one", "two", "three"} {
		require.NoError(t, m.AddTask(pendingTask(n, 1)))
	}

	m.ProcessTasks(context.Background())

	counts, err := m.TaskStateCounts()
	require.NoError(t, err)
	assert.Equal(t, map[task.State]int{task.Matched: 3}, counts)

	offers, err := m.GetOffers()
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestPersistentManagerRequeuesPending(t *testing.T) {
	conf := config.DefaultConfig()
	conf.Store = config.Store{Type: "persistent", Path: filepath.Join(t.TempDir(), "offercube.db")}
	db, err := store.Open(conf.Store)
	require.NoError(t, err)
	defer db.Close()

	first, err := New(conf, db, nil)
	require.NoError(t, err)
	tk := pendingTask("web", 1)
	require.NoError(t, first.AddTask(tk))

	second, err := New(conf, db, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Pending.Len())

	require.NoError(t, second.AddOffer(hostOffer("a", 2)))
	d, err := second.ProcessNext(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.True(t, d.Passed)

	decisions, err := second.Decisions()
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, d.Lines, decisions[0].Lines)
}
