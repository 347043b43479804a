package changefeed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
)

var ErrClosed = errors.New("changefeed: bus closed")

const subjectPrefix = "taskly.users."

// NATSBus fans notices out through a NATS server so several taskly
// processes sharing one database see each other's writes.
type NATSBus struct {
	nc    *nats.Conn
	owned bool
}

// ConnectNATS dials url and owns the connection.
func ConnectNATS(url string) (*NATSBus, error) {
	nc, err := nats.Connect(url,
		nats.Name("taskly"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
	)
	if err != nil {
		return nil, fmt.Errorf("changefeed: connect %s: %w", url, err)
	}
	return &NATSBus{nc: nc, owned: true}, nil
}

// NewNATSBus wraps an existing connection; Close leaves it open.
func NewNATSBus(nc *nats.Conn) *NATSBus {
	return &NATSBus{nc: nc}
}

// Subject returns the subject notices for userID are published on. The id
// is encoded so dots and spaces cannot split the subject.
func Subject(userID string) string {
	return subjectPrefix + base64.RawURLEncoding.EncodeToString([]byte(userID)) + ".tasks"
}

func (b *NATSBus) Publish(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.nc.IsClosed() {
		return ErrClosed
	}
	if err := b.nc.Publish(Subject(userID), nil); err != nil {
		return fmt.Errorf("changefeed: publish: %w", err)
	}
	return nil
}

func (b *NATSBus) Subscribe(userID string, fn Handler) (Subscription, error) {
	if b.nc.IsClosed() {
		return nil, ErrClosed
	}
	sub, err := b.nc.Subscribe(Subject(userID), func(*nats.Msg) { fn() })
	if err != nil {
		return nil, fmt.Errorf("changefeed: subscribe: %w", err)
	}
	return sub, nil
}

func (b *NATSBus) Close() error {
	if !b.owned {
		return nil
	}
	return b.nc.Drain()
}
