package notify

import (
	"context"
	"testing"
	"time"

	"github.com/sandeepkv93/taskly/internal/model"
)

func reminderAt(id string, at time.Time) model.Reminder {
	return model.Reminder{ID: id, TaskID: "task-1", FireAt: at, Title: "Due now", Body: "Pay rent"}
}

func TestDispatcherFiresInOrder(t *testing.T) {
	d := NewLocalDispatcher(8)
	d.Start()
	defer d.Stop()

	ctx := context.Background()
	now := time.Now()
	if err := d.Register(ctx, reminderAt("later", now.Add(80*time.Millisecond))); err != nil {
		t.Fatalf("register later: %v", err)
	}
	if err := d.Register(ctx, reminderAt("sooner", now.Add(20*time.Millisecond))); err != nil {
		t.Fatalf("register sooner: %v", err)
	}

	first := waitReminder(t, d.C(), time.Second)
	second := waitReminder(t, d.C(), time.Second)
	if first.ID != "sooner" || second.ID != "later" {
		t.Fatalf("unexpected order: first=%s second=%s", first.ID, second.ID)
	}
	if len(d.Pending()) != 0 {
		t.Fatalf("expected nothing pending after firing, got %v", d.Pending())
	}
}

func TestDispatcherRegisterReplacesSameID(t *testing.T) {
	d := NewLocalDispatcher(8)
	d.Start()
	defer d.Stop()

	ctx := context.Background()
	now := time.Now()
	if err := d.Register(ctx, reminderAt("task-1#at", now.Add(time.Hour))); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := d.Register(ctx, reminderAt("task-1#at", now.Add(30*time.Millisecond))); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if got := len(d.Pending()); got != 1 {
		t.Fatalf("expected one pending reminder, got %d", got)
	}

	ev := waitReminder(t, d.C(), time.Second)
	if ev.ID != "task-1#at" {
		t.Fatalf("unexpected reminder: %s", ev.ID)
	}
	select {
	case extra := <-d.C():
		t.Fatalf("replaced reminder fired twice: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDispatcherCancelPreventsFiring(t *testing.T) {
	d := NewLocalDispatcher(8)
	d.Start()
	defer d.Stop()

	ctx := context.Background()
	now := time.Now()
	if err := d.Register(ctx, reminderAt("task-1#at", now.Add(40*time.Millisecond))); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := d.Register(ctx, reminderAt("task-1#30m", now.Add(20*time.Millisecond))); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := d.Cancel(ctx, []string{"task-1#at", "task-1#30m", "unknown"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	select {
	case ev := <-d.C():
		t.Fatalf("cancelled reminder fired: %+v", ev)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestDispatcherNonBlockingDropsWhenConsumerIsSlow(t *testing.T) {
	d := NewLocalDispatcher(1)
	d.Start()
	defer d.Stop()

	at := time.Now().Add(20 * time.Millisecond)
	for i := 0; i < 25; i++ {
		r := reminderAt("task-"+string(rune('a'+i))+"#at", at)
		if err := d.Register(context.Background(), r); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	time.Sleep(120 * time.Millisecond)
	if d.Dropped() == 0 {
		t.Fatalf("expected dropped reminders > 0, got %d", d.Dropped())
	}
}

func TestDispatcherValidatesReminder(t *testing.T) {
	d := NewLocalDispatcher(1)
	if err := d.Register(context.Background(), model.Reminder{ID: "bad"}); err != ErrInvalidFireTime {
		t.Fatalf("expected ErrInvalidFireTime, got %v", err)
	}
	d.Stop()
	if err := d.Register(context.Background(), reminderAt("x#at", time.Now().Add(time.Hour))); err != ErrDispatcherStopped {
		t.Fatalf("expected ErrDispatcherStopped, got %v", err)
	}
}

func TestDispatcherPendingSortedByFireTime(t *testing.T) {
	d := NewLocalDispatcher(1)
	ctx := context.Background()
	base := time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC)
	for _, r := range []model.Reminder{
		reminderAt("c#at", base.Add(3*time.Hour)),
		reminderAt("a#at", base.Add(time.Hour)),
		reminderAt("b#at", base.Add(2*time.Hour)),
	} {
		if err := d.Register(ctx, r); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	pending := d.Pending()
	if len(pending) != 3 || pending[0].ID != "a#at" || pending[2].ID != "c#at" {
		t.Fatalf("unexpected pending order: %+v", pending)
	}
}

func waitReminder(t *testing.T, ch <-chan model.Reminder, timeout time.Duration) model.Reminder {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for reminder")
		return model.Reminder{}
	}
}
