package storage

import (
	"context"
	"errors"

	"github.com/sandeepkv93/taskly/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Snapshot is one emission of a live subscription: either the full task
// set for the user or the error that prevented loading it.
type Snapshot struct {
	Tasks []model.Task
	Err   error
}

type Store interface {
	Create(ctx context.Context, userID string, in model.NewTask) (string, error)
	Update(ctx context.Context, userID, id string, patch model.Patch) error
	Delete(ctx context.Context, userID, id string) error
	Get(ctx context.Context, userID, id string) (model.Task, error)
	List(ctx context.Context, userID string) ([]model.Task, error)
	Subscribe(ctx context.Context, userID string) (<-chan Snapshot, error)
}
