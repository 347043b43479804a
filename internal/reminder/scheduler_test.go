package reminder

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sandeepkv93/taskly/internal/model"
)

type recordingDispatcher struct {
	mu          sync.Mutex
	calls       []string
	active      map[string]model.Reminder
	registerErr error
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{active: make(map[string]model.Reminder)}
}

func (d *recordingDispatcher) Register(_ context.Context, r model.Reminder) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, "register "+r.ID)
	if d.registerErr != nil {
		return d.registerErr
	}
	d.active[r.ID] = r
	return nil
}

func (d *recordingDispatcher) Cancel(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range ids {
		d.calls = append(d.calls, "cancel "+id)
		delete(d.active, id)
	}
	return nil
}

func (d *recordingDispatcher) activeIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.active))
	for id := range d.active {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (d *recordingDispatcher) callLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

func startScheduler(t *testing.T, d Dispatcher, opts ...Option) *Scheduler {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	s := NewScheduler(d, opts...)
	s.Start()
	t.Cleanup(s.Stop)
	return s
}

func flush(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Flush(ctx))
}

func TestScheduleTwiceKeepsTwoReminders(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	task := taskDueIn(2 * time.Hour)
	s.Schedule(task)
	s.Schedule(task)
	flush(t, s)

	assert.Equal(t, []string{"task-1#30m", "task-1#at"}, d.activeIDs())
	assert.Equal(t, []string{
		"cancel task-1#at", "cancel task-1#30m", "register task-1#at", "register task-1#30m",
		"cancel task-1#at", "cancel task-1#30m", "register task-1#at", "register task-1#30m",
	}, d.callLog())
}

func TestCancelAfterScheduleLeavesNothing(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	task := taskDueIn(2 * time.Hour)
	s.Schedule(task)
	ids := s.Cancel(task)
	flush(t, s)

	assert.Equal(t, []string{"task-1#at", "task-1#30m"}, ids)
	assert.Empty(t, d.activeIDs())
}

func TestCancelUnknownTaskIsNoop(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	s.Cancel(model.Task{ID: "never-scheduled"})
	assert.Len(t, s.Cancel(model.Task{}), 2, "unsaved tasks cancel their placeholder ids")
	flush(t, s)
	assert.Empty(t, d.activeIDs())
}

func TestDoneRoundTripRestoresReminders(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	task := taskDueIn(3 * time.Hour)
	s.Schedule(task)
	flush(t, s)
	fresh := d.activeIDs()

	task.Done = true
	s.Schedule(task)
	flush(t, s)
	assert.Empty(t, d.activeIDs())

	task.Done = false
	s.Schedule(task)
	flush(t, s)
	assert.Equal(t, fresh, d.activeIDs())
}

func TestSchedulePlaceholderIDLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	d := newRecordingDispatcher()
	s := startScheduler(t, d,
		WithLogger(zap.New(core)),
		WithPlaceholder(func(model.Task) string { return "local-1" }))

	task := taskDueIn(time.Hour)
	task.ID = ""
	plan := s.Schedule(task)
	flush(t, s)

	assert.True(t, plan.Placeholder)
	assert.Equal(t, "local-1", plan.TaskID)
	assert.Equal(t, []string{"local-1#30m", "local-1#at"}, d.activeIDs())
	assert.Equal(t, 1, logs.FilterMessage("scheduling reminders under placeholder id").Len())
}

func TestRegisterFailureIsNonFatal(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	metrics := NewMetrics(nil)
	d := newRecordingDispatcher()
	d.registerErr = errors.New("notifications not authorized")
	s := startScheduler(t, d, WithLogger(zap.New(core)), WithMetrics(metrics))

	s.Schedule(taskDueIn(2 * time.Hour))
	flush(t, s)

	assert.Equal(t, 2, logs.FilterMessage("register reminder failed").Len())
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.Failures.WithLabelValues("register")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.Cancelled))
}

func TestReconcileCancelsVanishedTasks(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	kept := taskDueIn(2 * time.Hour)
	gone := taskDueIn(4 * time.Hour)
	gone.ID = "task-2"
	s.Reconcile(nil, []model.Task{kept, gone})
	flush(t, s)
	assert.Len(t, d.activeIDs(), 4)

	s.Reconcile([]model.Task{kept, gone}, []model.Task{kept})
	flush(t, s)
	assert.Equal(t, []string{"task-1#30m", "task-1#at"}, d.activeIDs())
}

func TestDailyReminderToggle(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	r := s.EnableDaily()
	s.EnableDaily()
	flush(t, s)
	assert.Equal(t, []string{DailyReminderID}, d.activeIDs())
	assert.Equal(t, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC), r.FireAt)

	s.DisableDaily()
	flush(t, s)
	assert.Empty(t, d.activeIDs())
}

func TestStopDrainsQueueAndRejectsFlush(t *testing.T) {
	d := newRecordingDispatcher()
	s := NewScheduler(d, WithClock(func() time.Time { return now }))
	s.Start()
	s.Schedule(taskDueIn(2 * time.Hour))
	s.Stop()

	assert.Len(t, d.activeIDs(), 2)
	assert.ErrorIs(t, s.Flush(context.Background()), ErrSchedulerStopped)
}

func TestPlaceholderIsStablePerTask(t *testing.T) {
	d := newRecordingDispatcher()
	s := startScheduler(t, d)

	task := taskDueIn(time.Hour)
	task.ID = ""
	first := s.Schedule(task)
	second := s.Schedule(task)
	flush(t, s)

	assert.Equal(t, first.TaskID, second.TaskID)
	assert.Len(t, d.activeIDs(), 2)

	other := task
	other.Title = "something else"
	assert.NotEqual(t, PlaceholderID(task), PlaceholderID(other))

	s.Cancel(task)
	flush(t, s)
	assert.Empty(t, d.activeIDs())
}
