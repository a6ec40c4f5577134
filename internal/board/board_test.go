package board

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskboard/pkg/taskclient"
)

// fakeStore is an in-memory task store with injectable failures.
type fakeStore struct {
	mu      sync.Mutex
	tasks   []taskclient.Task
	nextID  int64
	listErr error
	mutErr  error
	lists   int
}

func (s *fakeStore) List(ctx context.Context) ([]taskclient.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return append([]taskclient.Task(nil), s.tasks...), nil
}

func (s *fakeStore) Create(ctx context.Context, in taskclient.NewTask) (*taskclient.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return nil, s.mutErr
	}
	s.nextID++
	t := taskclient.Task{ID: s.nextID, Title: in.Title, Description: in.Description, Deadline: in.Deadline}
	s.tasks = append(s.tasks, t)
	return &t, nil
}

func (s *fakeStore) SetCompleted(ctx context.Context, id int64, completed bool) (*taskclient.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return nil, s.mutErr
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = completed
			t := s.tasks[i]
			return &t, nil
		}
	}
	return nil, taskclient.ErrNotFound
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mutErr != nil {
		return s.mutErr
	}
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return taskclient.ErrNotFound
}

var testNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestBoard(store Store) *Board {
	return New(store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return testNow }),
	)
}

func TestBoard_RefreshReplacesSnapshot(t *testing.T) {
	store := &fakeStore{tasks: []taskclient.Task{{ID: 1, Title: "a"}}}
	b := newTestBoard(store)

	assert.Zero(t, b.Snapshot().Len())

	require.NoError(t, b.Refresh(context.Background()))
	first := b.Snapshot()
	assert.Equal(t, 1, first.Len())
	assert.Equal(t, testNow, first.FetchedAt())

	store.tasks = append(store.tasks, taskclient.Task{ID: 2, Title: "b"})
	require.NoError(t, b.Refresh(context.Background()))

	assert.Equal(t, 1, first.Len(), "earlier snapshots are not modified")
	assert.Equal(t, 2, b.Snapshot().Len())
}

func TestBoard_RefreshFailureKeepsSnapshot(t *testing.T) {
	store := &fakeStore{tasks: []taskclient.Task{{ID: 1, Title: "a"}}}
	b := newTestBoard(store)
	require.NoError(t, b.Refresh(context.Background()))

	store.listErr = errors.New("connection refused")
	err := b.Refresh(context.Background())

	require.Error(t, err)
	assert.Equal(t, 1, b.Snapshot().Len())
}

func TestBoard_MutationsRefetch(t *testing.T) {
	store := &fakeStore{}
	b := newTestBoard(store)
	ctx := context.Background()

	require.NoError(t, b.Add(ctx, "Buy milk", "2 litres", ""))
	assert.Equal(t, 1, store.lists)
	tasks := b.Snapshot().Tasks()
	require.Len(t, tasks, 1)
	id := tasks[0].ID
	assert.False(t, tasks[0].Completed)

	require.NoError(t, b.Toggle(ctx, id))
	assert.Equal(t, 2, store.lists)
	got, _ := b.Snapshot().Find(id)
	assert.True(t, got.Completed)

	require.NoError(t, b.Toggle(ctx, id))
	got, _ = b.Snapshot().Find(id)
	assert.False(t, got.Completed)
	assert.Equal(t, "2 litres", got.Description)

	require.NoError(t, b.Remove(ctx, id))
	assert.Equal(t, 4, store.lists)
	assert.Zero(t, b.Snapshot().Len())
}

func TestBoard_FailedMutationLeavesSnapshot(t *testing.T) {
	store := &fakeStore{tasks: []taskclient.Task{{ID: 1, Title: "a"}}}
	b := newTestBoard(store)
	ctx := context.Background()
	require.NoError(t, b.Refresh(ctx))
	before := b.Snapshot()

	store.mutErr = errors.New("boom")

	assert.Error(t, b.Add(ctx, "b", "", ""))
	assert.Error(t, b.Toggle(ctx, 1))
	assert.Error(t, b.Remove(ctx, 1))
	assert.Equal(t, 1, store.lists, "no refetch after a failed mutation")
	assert.Equal(t, before, b.Snapshot())
}

func TestBoard_ToggleUnknownTask(t *testing.T) {
	b := newTestBoard(&fakeStore{})

	err := b.Toggle(context.Background(), 99)

	assert.ErrorIs(t, err, ErrUnknownTask)
}

func TestBoard_RemoveMissingTaskReportsNotFound(t *testing.T) {
	b := newTestBoard(&fakeStore{})

	err := b.Remove(context.Background(), 99)

	assert.ErrorIs(t, err, taskclient.ErrNotFound)
}

func TestBoard_Reminders(t *testing.T) {
	store := &fakeStore{tasks: []taskclient.Task{
		{ID: 1, Title: "Pay rent", Deadline: "2024-03-10"},
		{ID: 2, Title: "Already paid", Deadline: "2024-03-10", Completed: true},
	}}
	b := newTestBoard(store)
	ctx := context.Background()

	require.NoError(t, b.Refresh(ctx))
	r := b.Reminders()
	assert.True(t, r.Visible())
	assert.Equal(t, []string{"Pay rent"}, r.Titles())

	b.DismissReminders()
	assert.False(t, b.Reminders().Visible())

	require.NoError(t, b.Refresh(ctx))
	assert.True(t, b.Reminders().Visible(), "still due, so the next fetch shows it again")

	b.DismissReminders()
	require.NoError(t, b.Toggle(ctx, 1))
	assert.False(t, b.Reminders().Visible())
}

func TestBoard_TodayUsesLocation(t *testing.T) {
	b := New(&fakeStore{},
		WithClock(func() time.Time { return time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC) }),
		WithLocation(time.FixedZone("UTC+2", 2*60*60)),
	)

	assert.Equal(t, "2024-03-11", b.Today())
}
