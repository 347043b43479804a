package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sandeepkv93/taskly/internal/changefeed"
	"github.com/sandeepkv93/taskly/internal/model"
)

// Fixed width so text ordering in SQLite matches chronological ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type Option func(*SQLiteStore)

func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *SQLiteStore) { s.newID = newID }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *SQLiteStore) { s.logger = logger }
}

// SQLiteStore is the authoritative task store. Every committed write
// publishes a change notice on the bus; subscriptions reload on notice.
type SQLiteStore struct {
	db     *sql.DB
	bus    changefeed.Bus
	now    func() time.Time
	newID  func() string
	logger *zap.Logger
}

func NewSQLiteStore(db *sql.DB, bus changefeed.Bus, opts ...Option) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if bus == nil {
		return nil, errors.New("storage: nil change bus")
	}
	s := &SQLiteStore{
		db:     db,
		bus:    bus,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// OpenSQLite opens path, applies migrations and returns a ready store.
func OpenSQLite(path string, bus changefeed.Bus, opts ...Option) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := NewSQLiteStore(db, bus, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Create(ctx context.Context, userID string, in model.NewTask) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}
	id := s.newID()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, user_id, title, category, done, due_at, notes, created_at)
		VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		id, userID, strings.TrimSpace(in.Title), in.Category, nullTime(in.DueDate),
		strings.TrimSpace(in.Notes), formatTime(s.now()),
	)
	if err != nil {
		return "", fmt.Errorf("storage: create task: %w", err)
	}
	s.notify(ctx, userID)
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, userID, id string) (model.Task, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, category, done, due_at, notes, created_at
		FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, ErrNotFound
		}
		return model.Task{}, err
	}
	return task, nil
}

func (s *SQLiteStore) Update(ctx context.Context, userID, id string, patch model.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx, `
		SELECT id, title, category, done, due_at, notes, created_at
		FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	current, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE tasks SET title = ?, category = ?, done = ?, due_at = ?, notes = ?
		WHERE user_id = ? AND id = ?`,
		next.Title, next.Category, boolInt(next.Done), nullTime(next.DueDate), next.Notes, userID, id,
	); err != nil {
		return fmt.Errorf("storage: update task: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: commit update: %w", err)
	}
	s.notify(ctx, userID)
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("storage: delete task: %w", err)
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	s.notify(ctx, userID)
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, userID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, category, done, due_at, notes, created_at
		FROM tasks WHERE user_id = ?
		ORDER BY created_at ASC, rowid ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("storage: list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

// Subscribe emits the user's current task set, then a fresh full set after
// every change notice. Notices arriving during a reload collapse into one
// follow-up reload. The channel closes when ctx ends.
func (s *SQLiteStore) Subscribe(ctx context.Context, userID string) (<-chan Snapshot, error) {
	signal := make(chan struct{}, 1)
	sub, err := s.bus.Subscribe(userID, func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("storage: subscribe: %w", err)
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer func() {
			if err := sub.Unsubscribe(); err != nil {
				s.logger.Warn("unsubscribe change feed failed", zap.String("user_id", userID), zap.Error(err))
			}
		}()
		for {
			snap := s.load(ctx, userID)
			if ctx.Err() != nil {
				return
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (s *SQLiteStore) load(ctx context.Context, userID string) Snapshot {
	tasks, err := s.List(ctx, userID)
	if err != nil {
		s.logger.Warn("reload task snapshot failed", zap.String("user_id", userID), zap.Error(err))
		return Snapshot{Err: err}
	}
	return Snapshot{Tasks: tasks}
}

func (s *SQLiteStore) notify(ctx context.Context, userID string) {
	if err := s.bus.Publish(ctx, userID); err != nil {
		s.logger.Warn("publish task change failed", zap.String("user_id", userID), zap.Error(err))
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func nullTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return formatTime(*t)
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func parseRequiredTime(value string) (time.Time, error) {
	out, err := time.Parse(sqliteTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("storage: parse time %q: %w", value, err)
	}
	return out, nil
}

func parseNullableTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	out, err := parseRequiredTime(value.String)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var out model.Task
	var done int
	var due sql.NullString
	var created string
	if err := s.Scan(&out.ID, &out.Title, &out.Category, &done, &due, &out.Notes, &created); err != nil {
		return model.Task{}, err
	}
	createdAt, err := parseRequiredTime(created)
	if err != nil {
		return model.Task{}, err
	}
	dueAt, err := parseNullableTime(due)
	if err != nil {
		return model.Task{}, err
	}
	out.Done = done == 1
	out.DueDate = dueAt
	out.CreatedAt = createdAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
