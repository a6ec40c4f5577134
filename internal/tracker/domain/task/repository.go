package task

import (
	"context"
	"time"
)

// Repository defines persistence operations for tasks.
// List returns tasks in insertion order.
type Repository interface {
	List(ctx context.Context) ([]*Task, error)
	FindByID(ctx context.Context, id int64) (*Task, error)
	// Insert stores a new task. It fails with ErrDuplicateID when the id is taken.
	Insert(ctx context.Context, task *Task) error
	// Save replaces a stored task, or inserts it when its id is new.
	Save(ctx context.Context, task *Task) error
	Delete(ctx context.Context, id int64) error
	// NextID returns an id derived from now that no stored task uses.
	NextID(ctx context.Context, now time.Time) (int64, error)
}
