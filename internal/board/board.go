package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/pkg/taskclient"
)

// ErrUnknownTask is returned for ids missing from the current snapshot.
var ErrUnknownTask = errors.New("task is not on the board")

// Store is the task store as seen by the board.
type Store interface {
	List(ctx context.Context) ([]taskclient.Task, error)
	Create(ctx context.Context, in taskclient.NewTask) (*taskclient.Task, error)
	SetCompleted(ctx context.Context, id int64, completed bool) (*taskclient.Task, error)
	Delete(ctx context.Context, id int64) error
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger used for failed fetches and mutations.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Board) { b.logger = logger }
}

// WithLocation sets the zone that decides which day is today.
func WithLocation(loc *time.Location) Option {
	return func(b *Board) { b.loc = loc }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// Board holds the current snapshot and the reminder panel. Every successful
// mutation is followed by a full refresh.
type Board struct {
	store  Store
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time

	mu        sync.RWMutex
	snapshot  Snapshot
	reminders ReminderPanel
}

// New creates an empty board over store. Call Refresh to load it.
func New(store Store, opts ...Option) *Board {
	b := &Board{
		store:  store,
		logger: slog.Default(),
		loc:    time.UTC,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot returns the current snapshot.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snapshot
}

// Today is the current day in the board's zone.
func (b *Board) Today() string {
	return Today(b.now(), b.loc)
}

// Reminders returns a copy of the reminder panel.
func (b *Board) Reminders() ReminderPanel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return ReminderPanel{visible: b.reminders.visible, titles: b.reminders.Titles()}
}

// DismissReminders hides the reminder panel until a later refresh finds tasks due.
func (b *Board) DismissReminders() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reminders.Dismiss()
}

// Refresh fetches the whole collection, replaces the snapshot and evaluates
// the reminders. On failure the snapshot is kept.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.store.List(ctx)
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to fetch tasks", "error", err)
		return fmt.Errorf("fetch tasks: %w", err)
	}

	snap := NewSnapshot(FromClientTasks(tasks), b.now())

	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshot = snap
	b.reminders.Evaluate(snap.tasks, Today(snap.fetchedAt, b.loc))
	return nil
}

// Add creates a task and refreshes.
func (b *Board) Add(ctx context.Context, title, description, deadline string) error {
	_, err := b.store.Create(ctx, taskclient.NewTask{
		Title:       title,
		Description: description,
		Deadline:    deadline,
	})
	if err != nil {
		b.logger.ErrorContext(ctx, "failed to add task", "error", err)
		return fmt.Errorf("add task: %w", err)
	}
	return b.Refresh(ctx)
}

// Toggle flips the status the task has in the current snapshot and refreshes.
func (b *Board) Toggle(ctx context.Context, id int64) error {
	t, ok := b.Snapshot().Find(id)
	if !ok {
		return fmt.Errorf("toggle task %d: %w", id, ErrUnknownTask)
	}
	if _, err := b.store.SetCompleted(ctx, id, !t.Completed); err != nil {
		b.logger.ErrorContext(ctx, "failed to update task", "task_id", id, "error", err)
		return fmt.Errorf("toggle task %d: %w", id, err)
	}
	return b.Refresh(ctx)
}

// Remove deletes a task and refreshes.
func (b *Board) Remove(ctx context.Context, id int64) error {
	if err := b.store.Delete(ctx, id); err != nil {
		b.logger.ErrorContext(ctx, "failed to delete task", "task_id", id, "error", err)
		return fmt.Errorf("remove task %d: %w", id, err)
	}
	return b.Refresh(ctx)
}
