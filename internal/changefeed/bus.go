// Package changefeed carries "this user's tasks changed" notices between
// writers and live subscriptions. Notices carry no payload; subscribers
// reload the full task set.
package changefeed

import (
	"context"
	"sync"
)

type Handler func()

type Subscription interface {
	Unsubscribe() error
}

type Bus interface {
	Publish(ctx context.Context, userID string) error
	Subscribe(userID string, fn Handler) (Subscription, error)
	Close() error
}

// MemoryBus delivers notices within one process. Handlers run synchronously
// on the publishing goroutine and must not block.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
	closed bool
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]Handler)}
}

func (b *MemoryBus) Publish(_ context.Context, userID string) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	handlers := make([]Handler, 0, len(b.subs[userID]))
	for _, fn := range b.subs[userID] {
		handlers = append(handlers, fn)
	}
	b.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

func (b *MemoryBus) Subscribe(userID string, fn Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]Handler)
	}
	b.nextID++
	id := b.nextID
	b.subs[userID][id] = fn
	return memorySubscription{bus: b, userID: userID, id: id}, nil
}

// users lists the user ids that currently have subscribers.
func (b *MemoryBus) users() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.subs))
	for id, handlers := range b.subs {
		if len(handlers) > 0 {
			out = append(out, id)
		}
	}
	return out
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[string]map[int]Handler)
	return nil
}

type memorySubscription struct {
	bus    *MemoryBus
	userID string
	id     int
}

func (s memorySubscription) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs[s.userID], s.id)
	return nil
}
