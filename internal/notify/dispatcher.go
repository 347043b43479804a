// Package notify delivers reminders in-process: a timer heap keyed by
// reminder id stands in for the operating system's scheduled-notification
// facility.
package notify

import (
	"container/heap"
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/taskly/internal/model"
)

var (
	ErrInvalidFireTime   = errors.New("notify: invalid fire time")
	ErrDispatcherStopped = errors.New("notify: dispatcher stopped")
)

type queueItem struct {
	reminder model.Reminder
	index    int
}

type priorityQueue []*queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].reminder.FireAt.Before(pq[j].reminder.FireAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*queueItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[0 : n-1]
	return item
}

// LocalDispatcher holds one-shot reminders until they are due and emits them
// on C. Emission never blocks; reminders nobody is reading are dropped and
// counted.
type LocalDispatcher struct {
	mu      sync.Mutex
	queue   priorityQueue
	byID    map[string]*queueItem
	out     chan model.Reminder
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	now     func() time.Time
	started bool
	stopped bool
	dropped uint64
}

func NewLocalDispatcher(bufferSize int) *LocalDispatcher {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &LocalDispatcher{
		queue:  make(priorityQueue, 0),
		byID:   make(map[string]*queueItem),
		out:    make(chan model.Reminder, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
		now:    time.Now,
	}
}

func (d *LocalDispatcher) C() <-chan model.Reminder {
	return d.out
}

func (d *LocalDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	heap.Init(&d.queue)
	go d.loop()
}

func (d *LocalDispatcher) Stop() {
	d.mu.Lock()
	if !d.started || d.stopped {
		d.stopped = true
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopCh)
	d.mu.Unlock()
	<-d.doneCh
}

// Register schedules r, replacing any pending reminder with the same id.
func (d *LocalDispatcher) Register(_ context.Context, r model.Reminder) error {
	if r.FireAt.IsZero() {
		return ErrInvalidFireTime
	}
	if err := r.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrDispatcherStopped
	}
	if existing, ok := d.byID[r.ID]; ok {
		existing.reminder = r
		heap.Fix(&d.queue, existing.index)
	} else {
		item := &queueItem{reminder: r}
		heap.Push(&d.queue, item)
		d.byID[r.ID] = item
	}
	d.signalWakeup()
	return nil
}

// Cancel drops pending reminders with the given ids. Unknown ids are ignored.
func (d *LocalDispatcher) Cancel(_ context.Context, ids []string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	removed := false
	for _, id := range ids {
		item, ok := d.byID[id]
		if !ok {
			continue
		}
		heap.Remove(&d.queue, item.index)
		delete(d.byID, id)
		removed = true
	}
	if removed {
		d.signalWakeup()
	}
	return nil
}

// Pending lists the reminders not yet fired, soonest first.
func (d *LocalDispatcher) Pending() []model.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]model.Reminder, 0, len(d.queue))
	for _, item := range d.queue {
		out = append(out, item.reminder)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

func (d *LocalDispatcher) Dropped() uint64 {
	return atomic.LoadUint64(&d.dropped)
}

func (d *LocalDispatcher) loop() {
	defer close(d.doneCh)
	defer close(d.out)

	var timer *time.Timer
	for {
		next, hasNext := d.peek()
		if !hasNext {
			select {
			case <-d.wakeup:
				continue
			case <-d.stopCh:
				return
			}
		}

		wait := next.FireAt.Sub(d.now())
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			for _, r := range d.popDue(d.now()) {
				select {
				case d.out <- r:
				default:
					atomic.AddUint64(&d.dropped, 1)
				}
			}
		case <-d.wakeup:
			continue
		case <-d.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (d *LocalDispatcher) signalWakeup() {
	select {
	case d.wakeup <- struct{}{}:
	default:
	}
}

func (d *LocalDispatcher) peek() (model.Reminder, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return model.Reminder{}, false
	}
	return d.queue[0].reminder, true
}

func (d *LocalDispatcher) popDue(now time.Time) []model.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]model.Reminder, 0)
	for len(d.queue) > 0 {
		next := d.queue[0].reminder
		if next.FireAt.After(now) {
			break
		}
		item := heap.Pop(&d.queue).(*queueItem)
		delete(d.byID, item.reminder.ID)
		out = append(out, item.reminder)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
