package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/taskly/internal/changefeed"
	"github.com/sandeepkv93/taskly/internal/model"
)

type testClock struct {
	now time.Time
}

// Each read advances a second so creation order is observable.
func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func setupStore(t *testing.T) (*SQLiteStore, *changefeed.MemoryBus) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "taskly-test.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	bus := changefeed.NewMemoryBus()
	clock := &testClock{now: time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)}
	seq := 0
	store, err := NewSQLiteStore(db, bus,
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("task-%d", seq)
		}),
	)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, bus
}

func TestTaskCRUDAndList(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	due := time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC)

	id, err := store.Create(ctx, "user-1", model.NewTask{
		Title:    "  Write schema ",
		Category: "💼",
		DueDate:  &due,
		Notes:    "Design storage layout",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)

	got, err := store.Get(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, "Write schema", got.Title)
	assert.Equal(t, "💼", got.Category)
	assert.False(t, got.Done)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))

	title := "Write schema v2"
	require.NoError(t, store.Update(ctx, "user-1", id, model.Patch{Title: &title, Done: boolPtr(true)}))
	got, err = store.Get(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.True(t, got.Done)
	require.NotNil(t, got.DueDate, "untouched fields survive a partial update")

	require.NoError(t, store.Update(ctx, "user-1", id, model.DueDatePatch(nil)))
	got, err = store.Get(ctx, "user-1", id)
	require.NoError(t, err)
	assert.Nil(t, got.DueDate)

	require.NoError(t, store.Delete(ctx, "user-1", id))
	_, err = store.Get(ctx, "user-1", id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "user-1", id), ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "user-1", id, model.DonePatch(false)), ErrNotFound)
}

func TestCreateRejectsInvalidTask(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.Create(t.Context(), "user-1", model.NewTask{Title: "  ", Category: "📝"})
	if !errors.Is(err, model.ErrTitleRequired) {
		t.Fatalf("expected ErrTitleRequired, got %v", err)
	}
	err = store.Update(t.Context(), "user-1", "task-1", model.Patch{})
	if !errors.Is(err, model.ErrEmptyPatch) {
		t.Fatalf("expected ErrEmptyPatch, got %v", err)
	}
}

func TestListIsScopedPerUserAndOrderedByCreation(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		_, err := store.Create(ctx, "alice", model.NewTask{Title: title, Category: "📝"})
		require.NoError(t, err)
	}
	bobID, err := store.Create(ctx, "bob", model.NewTask{Title: "bob's", Category: "🏠"})
	require.NoError(t, err)

	tasks, err := store.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"first", "second", "third"}, titles(tasks))

	_, err = store.Get(ctx, "alice", bobID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "alice", bobID), ErrNotFound)
}

func TestSubscribeEmitsInitialAndReplacementSnapshots(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	_, err := store.Create(ctx, "alice", model.NewTask{Title: "existing", Category: "📝"})
	require.NoError(t, err)

	snaps, err := store.Subscribe(ctx, "alice")
	require.NoError(t, err)

	first := nextSnapshot(t, snaps)
	require.NoError(t, first.Err)
	assert.Equal(t, []string{"existing"}, titles(first.Tasks))

	_, err = store.Create(ctx, "alice", model.NewTask{Title: "added", Category: "💼"})
	require.NoError(t, err)
	second := nextSnapshot(t, snaps)
	require.NoError(t, second.Err)
	assert.Equal(t, []string{"existing", "added"}, titles(second.Tasks))

	cancel()
	select {
	case _, ok := <-snaps:
		for ok {
			_, ok = <-snaps
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not close after cancel")
	}
}

func TestSubscribeIgnoresOtherUsers(t *testing.T) {
	store, _ := setupStore(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	snaps, err := store.Subscribe(ctx, "alice")
	require.NoError(t, err)
	first := nextSnapshot(t, snaps)
	assert.Empty(t, first.Tasks)

	_, err = store.Create(ctx, "bob", model.NewTask{Title: "not yours", Category: "📝"})
	require.NoError(t, err)

	select {
	case snap := <-snaps:
		t.Fatalf("unexpected snapshot for alice: %#v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSubscribeReportsReloadErrors(t *testing.T) {
	store, bus := setupStore(t)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	snaps, err := store.Subscribe(ctx, "alice")
	require.NoError(t, err)
	_ = nextSnapshot(t, snaps)

	_, err = store.db.Exec(`DROP TABLE tasks`)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, "alice"))

	snap := nextSnapshot(t, snaps)
	assert.Error(t, snap.Err)
	assert.Nil(t, snap.Tasks)
}

func nextSnapshot(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("snapshot channel closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

func titles(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, task.Title)
	}
	return out
}

func boolPtr(v bool) *bool {
	return &v
}

func TestSubscribeSeesWritesFromAnotherProcess(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "shared.db")
	open := func() *SQLiteStore {
		bus, err := changefeed.WatchFile(dbPath, changefeed.WithSettle(10*time.Millisecond))
		require.NoError(t, err)
		t.Cleanup(func() { _ = bus.Close() })
		store, err := OpenSQLite(dbPath, bus)
		require.NoError(t, err)
		t.Cleanup(func() { _ = store.Close() })
		return store
	}
	running := open()
	oneShot := open()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	snaps, err := running.Subscribe(ctx, "alice")
	require.NoError(t, err)
	first := nextSnapshot(t, snaps)
	require.NoError(t, first.Err)
	require.Empty(t, first.Tasks)

	_, err = oneShot.Create(ctx, "alice", model.NewTask{Title: "from the cli", Category: "📝"})
	require.NoError(t, err)

	deadline := time.After(3 * time.Second)
	for {
		select {
		case snap := <-snaps:
			require.NoError(t, snap.Err)
			if len(snap.Tasks) == 1 {
				assert.Equal(t, "from the cli", snap.Tasks[0].Title)
				return
			}
		case <-deadline:
			t.Fatal("running subscriber never saw the other store's write")
		}
	}
}
