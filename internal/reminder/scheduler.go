package reminder

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sandeepkv93/taskly/internal/model"
)

var ErrSchedulerStopped = errors.New("reminder: scheduler stopped")

// Dispatcher is the notification facility reminders are handed to.
// Registering an existing id replaces it; cancelling unknown ids is a no-op.
type Dispatcher interface {
	Register(ctx context.Context, r model.Reminder) error
	Cancel(ctx context.Context, ids []string) error
}

type opKind int

const (
	opCancel opKind = iota
	opRegister
	opBarrier
)

type op struct {
	kind     opKind
	ids      []string
	reminder model.Reminder
	done     chan struct{}
}

// Scheduler plans reminders synchronously and sends them to the dispatcher
// from a single worker goroutine. Requests are sent in submission order, so
// a task's cancellation always reaches the dispatcher before its new
// registrations.
type Scheduler struct {
	dispatcher  Dispatcher
	now         func() time.Time
	placeholder func(model.Task) string
	logger      *zap.Logger
	metrics     *Metrics

	mu      sync.Mutex
	queue   []op
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithPlaceholder overrides how ids are made up for tasks the store has not
// assigned one yet. The same task must map to the same id.
func WithPlaceholder(gen func(model.Task) string) Option {
	return func(s *Scheduler) {
		if gen != nil {
			s.placeholder = gen
		}
	}
}

func NewScheduler(d Dispatcher, opts ...Option) *Scheduler {
	s := &Scheduler{
		dispatcher:  d,
		now:         time.Now,
		placeholder: PlaceholderID,
		logger:      zap.NewNop(),
		queue:       make([]op, 0),
		wakeup:      make(chan struct{}, 1),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	go s.loop()
}

// Stop sends whatever is still queued and then stops the worker.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()
	<-s.doneCh
}

// Schedule replaces the reminders of task. It never blocks on the
// dispatcher.
func (s *Scheduler) Schedule(task model.Task) Plan {
	if task.ID == "" {
		task.ID = s.placeholder(task)
		s.logger.Warn("scheduling reminders under placeholder id",
			zap.String("placeholder_id", task.ID),
			zap.String("title", task.Title))
		plan := PlanFor(task, s.now())
		plan.Placeholder = true
		s.submit(plan)
		return plan
	}
	plan := PlanFor(task, s.now())
	s.submit(plan)
	return plan
}

// PlaceholderID derives a stable stand-in id from a task's title and
// creation time, so scheduling an unsaved task twice replaces rather than
// duplicates its reminders.
func PlaceholderID(task model.Task) string {
	key := task.Title + "\x00" + task.CreatedAt.UTC().Format(time.RFC3339Nano)
	return "local-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// Cancel removes both reminders of task, whether or not they exist.
func (s *Scheduler) Cancel(task model.Task) []string {
	if task.ID == "" {
		task.ID = s.placeholder(task)
	}
	ids := Identifiers(task.ID)
	s.enqueue(op{kind: opCancel, ids: ids})
	return ids
}

// Reconcile brings the dispatcher in line with a fresh snapshot: tasks that
// vanished since prev are cancelled and every task in next is rescheduled.
func (s *Scheduler) Reconcile(prev, next []model.Task) {
	present := make(map[string]bool, len(next))
	for _, t := range next {
		present[t.ID] = true
	}
	for _, t := range prev {
		if !present[t.ID] {
			s.Cancel(t)
		}
	}
	for _, t := range next {
		if t.ID == "" {
			continue
		}
		s.Schedule(t)
	}
}

// EnableDaily registers the next daily check-in. Call it again after the
// reminder fires to arm the following day.
func (s *Scheduler) EnableDaily() model.Reminder {
	r := DailyReminder(s.now())
	s.enqueue(op{kind: opCancel, ids: []string{DailyReminderID}})
	s.enqueue(op{kind: opRegister, reminder: r})
	return r
}

func (s *Scheduler) DisableDaily() {
	s.enqueue(op{kind: opCancel, ids: []string{DailyReminderID}})
}

// Flush waits until every request submitted before the call has been sent.
func (s *Scheduler) Flush(ctx context.Context) error {
	done := make(chan struct{})
	if !s.enqueue(op{kind: opBarrier, done: done}) {
		return ErrSchedulerStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) submit(plan Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		s.logger.Warn("scheduler stopped, dropping reminder plan", zap.String("task_id", plan.TaskID))
		return
	}
	s.queue = append(s.queue, op{kind: opCancel, ids: plan.Cancel})
	for _, r := range plan.Register {
		s.queue = append(s.queue, op{kind: opRegister, reminder: r})
	}
	s.metrics.QueueDepth.Set(float64(len(s.queue)))
	s.signalWakeup()
}

func (s *Scheduler) enqueue(o op) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.queue = append(s.queue, o)
	s.metrics.QueueDepth.Set(float64(len(s.queue)))
	s.signalWakeup()
	return true
}

func (s *Scheduler) signalWakeup() {
	select {
	case s.wakeup <- struct{}{}:
	default:
	}
}

func (s *Scheduler) drain() []op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.queue
	s.queue = make([]op, 0)
	s.metrics.QueueDepth.Set(0)
	return out
}

func (s *Scheduler) loop() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.wakeup:
			s.run(s.drain())
		case <-s.stopCh:
			s.run(s.drain())
			return
		}
	}
}

func (s *Scheduler) run(ops []op) {
	ctx := context.Background()
	for _, o := range ops {
		switch o.kind {
		case opCancel:
			if err := s.dispatcher.Cancel(ctx, o.ids); err != nil {
				s.metrics.Failures.WithLabelValues("cancel").Inc()
				s.logger.Warn("cancel reminders failed", zap.Strings("ids", o.ids), zap.Error(err))
				continue
			}
			s.metrics.Cancelled.Inc()
		case opRegister:
			if err := s.dispatcher.Register(ctx, o.reminder); err != nil {
				s.metrics.Failures.WithLabelValues("register").Inc()
				s.logger.Warn("register reminder failed",
					zap.String("id", o.reminder.ID),
					zap.Time("fire_at", o.reminder.FireAt),
					zap.Error(err))
				continue
			}
			s.metrics.Registered.WithLabelValues(string(o.reminder.Slot)).Inc()
		case opBarrier:
			close(o.done)
		}
	}
}
