package changefeed

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultSettle = 50 * time.Millisecond

type WatchOption func(*WatchBus)

// WithSettle sets how long the bus waits after the last file write before
// notifying subscribers.
func WithSettle(d time.Duration) WatchOption {
	return func(b *WatchBus) { b.settle = d }
}

func WithWatchLogger(logger *zap.Logger) WatchOption {
	return func(b *WatchBus) { b.logger = logger }
}

// WatchBus is the default bus when no NATS server is configured. Writes in
// this process are delivered in memory; writes by other processes are
// noticed through the database file and its write-ahead log. A file change
// does not say whose tasks changed, so every subscribed user reloads.
type WatchBus struct {
	local   *MemoryBus
	watcher *fsnotify.Watcher
	names   map[string]struct{}
	settle  time.Duration
	logger  *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatchFile watches the SQLite database at dbPath. The directory is created
// if missing since the store has not opened the file yet.
func WatchFile(dbPath string, opts ...WatchOption) (*WatchBus, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("changefeed: resolve %s: %w", dbPath, err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("changefeed: create %s: %w", dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("changefeed: new watcher: %w", err)
	}
	// Watch the directory; SQLite creates and removes the -wal file.
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("changefeed: watch %s: %w", dir, err)
	}
	base := filepath.Base(abs)
	b := &WatchBus{
		local:   NewMemoryBus(),
		watcher: watcher,
		names:   map[string]struct{}{base: {}, base + "-wal": {}},
		settle:  defaultSettle,
		logger:  zap.NewNop(),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.run()
	return b, nil
}

func (b *WatchBus) Publish(ctx context.Context, userID string) error {
	return b.local.Publish(ctx, userID)
}

func (b *WatchBus) Subscribe(userID string, fn Handler) (Subscription, error) {
	return b.local.Subscribe(userID, fn)
}

func (b *WatchBus) Close() error {
	b.stopOnce.Do(func() {
		close(b.stop)
		_ = b.watcher.Close()
		<-b.done
	})
	return b.local.Close()
}

func (b *WatchBus) run() {
	defer close(b.done)
	var fire <-chan time.Time
	for {
		select {
		case <-b.stop:
			return
		case ev, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if !b.relevant(ev) {
				continue
			}
			if fire == nil {
				fire = time.After(b.settle)
			}
		case <-fire:
			fire = nil
			b.notifyAll()
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			b.logger.Warn("watch database failed", zap.Error(err))
		}
	}
}

func (b *WatchBus) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}
	_, ok := b.names[filepath.Base(ev.Name)]
	return ok
}

func (b *WatchBus) notifyAll() {
	for _, userID := range b.local.users() {
		if err := b.local.Publish(context.Background(), userID); err != nil {
			return
		}
	}
}
