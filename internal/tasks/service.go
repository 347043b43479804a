// Package tasks coordinates the task store, the reminder scheduler and the
// filter engine on behalf of one signed-in user.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sandeepkv93/taskly/internal/filter"
	"github.com/sandeepkv93/taskly/internal/model"
	"github.com/sandeepkv93/taskly/internal/reminder"
	"github.com/sandeepkv93/taskly/internal/storage"
)

var (
	ErrSnapshot        = errors.New("tasks: snapshot failed")
	ErrUnknownCategory = errors.New("tasks: category is not in the category set")
	ErrTaskNotFound    = errors.New("tasks: task not found")
	ErrAmbiguousRef    = errors.New("tasks: task reference matches several tasks")
	ErrAlreadyStarted  = errors.New("tasks: service already started")
)

// Reminders is the subset of the reminder scheduler the service drives.
type Reminders interface {
	Schedule(task model.Task) reminder.Plan
	Cancel(task model.Task) []string
	Reconcile(prev, next []model.Task)
}

// NoReminders is used by one-shot commands that have no dispatcher; a
// running session picks the change up from the change feed and schedules.
type NoReminders struct{}

func (NoReminders) Schedule(task model.Task) reminder.Plan { return reminder.Plan{TaskID: task.ID} }
func (NoReminders) Cancel(model.Task) []string             { return nil }
func (NoReminders) Reconcile(_, _ []model.Task)            {}

// Update is one change of the held snapshot. Err is set when the store
// failed to deliver a snapshot; the held tasks are then the previous ones.
type Update struct {
	Tasks []model.Task
	Err   error
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

type Service struct {
	session   model.Session
	store     storage.Store
	reminders Reminders
	engine    *filter.Engine
	now       func() time.Time
	logger    *zap.Logger
	metrics   *Metrics

	mu         sync.RWMutex
	tasks      []model.Task
	categories model.Categories
	started    bool

	updates chan Update
}

func NewService(session model.Session, store storage.Store, reminders Reminders, engine *filter.Engine, opts ...Option) (*Service, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errors.New("tasks: nil store")
	}
	if reminders == nil {
		reminders = NoReminders{}
	}
	if engine == nil {
		engine = filter.NewEngine(filter.DefaultCalendar(), nil)
	}
	s := &Service{
		session:    session,
		store:      store,
		reminders:  reminders,
		engine:     engine,
		now:        time.Now,
		logger:     zap.NewNop(),
		categories: model.DefaultCategories.Clone(),
		updates:    make(chan Update, 16),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s, nil
}

// Updates delivers every snapshot change after Start. It is closed when the
// context given to Start ends.
func (s *Service) Updates() <-chan Update {
	return s.updates
}

// Start subscribes to the user's tasks. Each snapshot replaces the held set
// wholesale and reminders are reconciled against it, so changes written by
// other processes get their reminders too.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	snaps, err := s.store.Subscribe(ctx, s.session.UserID)
	if err != nil {
		return err
	}
	go s.consume(ctx, snaps)
	return nil
}

func (s *Service) consume(ctx context.Context, snaps <-chan storage.Snapshot) {
	defer close(s.updates)
	for snap := range snaps {
		u := s.apply(snap)
		select {
		case s.updates <- u:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) apply(snap storage.Snapshot) Update {
	if snap.Err != nil {
		s.metrics.Snapshots.WithLabelValues("error").Inc()
		s.logger.Warn("task snapshot failed, keeping previous tasks",
			zap.String("user_id", s.session.UserID), zap.Error(snap.Err))
		return Update{Tasks: s.Tasks(), Err: fmt.Errorf("%w: %w", ErrSnapshot, snap.Err)}
	}
	next := cloneTasks(snap.Tasks)
	s.mu.Lock()
	prev := s.tasks
	s.tasks = next
	s.mu.Unlock()

	s.metrics.Snapshots.WithLabelValues("ok").Inc()
	s.metrics.Tasks.Set(float64(len(next)))
	s.reminders.Reconcile(prev, next)
	return Update{Tasks: cloneTasks(next)}
}

// Refresh loads the task set directly from the store. One-shot commands use
// it instead of Start.
func (s *Service) Refresh(ctx context.Context) ([]model.Task, error) {
	list, err := s.store.List(ctx, s.session.UserID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.tasks = cloneTasks(list)
	s.mu.Unlock()
	return cloneTasks(list), nil
}

func (s *Service) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

func (s *Service) Views(f model.FilterState) filter.Partition {
	return s.engine.Evaluate(s.Tasks(), f)
}

func (s *Service) SetCategories(c model.Categories) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = c.Clone()
}

func (s *Service) Categories() model.Categories {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.categories.Clone()
}

// Find looks a task up in the held snapshot.
func (s *Service) Find(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Resolve finds the task whose id equals ref or uniquely starts with it.
func (s *Service) Resolve(ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, ErrTaskNotFound
	}
	if t, ok := s.Find(ref); ok {
		return t, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var match model.Task
	n := 0
	for _, t := range s.tasks {
		if strings.HasPrefix(t.ID, ref) {
			match = t
			n++
		}
	}
	switch n {
	case 0:
		return model.Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, ref)
	case 1:
		return match, nil
	default:
		return model.Task{}, fmt.Errorf("%w: %s", ErrAmbiguousRef, ref)
	}
}

// Add persists a new task and, once the store has confirmed its id,
// schedules its reminders. An empty category means the first one in the
// set.
func (s *Service) Add(ctx context.Context, in model.NewTask) (model.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return model.Task{}, model.ErrTitleRequired
	}
	cats := s.Categories()
	switch {
	case in.Category == "" && len(cats) > 0:
		in.Category = cats[0]
	case in.Category == "":
		in.Category = model.DefaultCategories[0]
	case len(cats) > 0 && !cats.Contains(in.Category):
		return model.Task{}, fmt.Errorf("%w: %s", ErrUnknownCategory, in.Category)
	}

	id, err := s.store.Create(ctx, s.session.UserID, in)
	if err != nil {
		s.logger.Warn("create task failed", zap.String("title", in.Title), zap.Error(err))
		return model.Task{}, err
	}
	task := model.Task{
		ID:        id,
		Title:     in.Title,
		Category:  in.Category,
		DueDate:   in.DueDate,
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: s.now(),
	}
	s.reminders.Schedule(task)
	return task, nil
}

// SetDone toggles completion. Completing cancels reminders; reopening
// schedules them again from the due date.
func (s *Service) SetDone(ctx context.Context, id string, done bool) (model.Task, error) {
	task, err := s.mutate(ctx, id, model.DonePatch(done))
	if err != nil {
		return model.Task{}, err
	}
	if task.Done {
		s.reminders.Cancel(task)
	} else {
		s.reminders.Schedule(task)
	}
	return task, nil
}

// SetDueDate sets or, with nil, clears the due date and reschedules.
func (s *Service) SetDueDate(ctx context.Context, id string, due *time.Time) (model.Task, error) {
	task, err := s.mutate(ctx, id, model.DueDatePatch(due))
	if err != nil {
		return model.Task{}, err
	}
	s.reminders.Schedule(task)
	return task, nil
}

// Update applies a partial edit and reschedules, so a new title reaches the
// registered reminders. A category must be in the set.
func (s *Service) Update(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	if patch.Category != nil {
		if cats := s.Categories(); len(cats) > 0 && !cats.Contains(*patch.Category) {
			return model.Task{}, fmt.Errorf("%w: %s", ErrUnknownCategory, *patch.Category)
		}
	}
	task, err := s.mutate(ctx, id, patch)
	if err != nil {
		return model.Task{}, err
	}
	s.reminders.Schedule(task)
	return task, nil
}

// Delete cancels the task's reminders and removes it from the store.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.reminders.Cancel(model.Task{ID: id})
	if err := s.store.Delete(ctx, s.session.UserID, id); err != nil {
		s.logger.Warn("delete task failed", zap.String("task_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) mutate(ctx context.Context, id string, patch model.Patch) (model.Task, error) {
	if err := s.store.Update(ctx, s.session.UserID, id, patch); err != nil {
		s.logger.Warn("update task failed", zap.String("task_id", id), zap.Error(err))
		return model.Task{}, err
	}
	current, ok := s.Find(id)
	if !ok {
		fetched, err := s.store.Get(ctx, s.session.UserID, id)
		if err != nil {
			return model.Task{}, err
		}
		return fetched, nil
	}
	return patch.Apply(current), nil
}

func cloneTasks(in []model.Task) []model.Task {
	if in == nil {
		return nil
	}
	out := make([]model.Task, len(in))
	copy(out, in)
	return out
}
