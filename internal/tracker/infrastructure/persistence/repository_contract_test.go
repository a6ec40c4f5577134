package persistence_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

type repoFactory func(t *testing.T) (task.Repository, application.UnitOfWork)

type contractOptions struct {
	// serializedUnits is set for stores whose unit of work excludes concurrent writers.
	serializedUnits bool
}

// runRepositoryContract exercises the behaviour every task store must share.
func runRepositoryContract(t *testing.T, newRepo repoFactory, opts contractOptions) {
	t.Run("empty store lists nothing", func(t *testing.T) {
		repo, _ := newRepo(t)

		tasks, err := repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("save appends in insertion order", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		for i, title := range []string{"first", "second", "third"} {
			tk, err := task.NewTask(int64(300-i), title, "", "")
			require.NoError(t, err)
			require.NoError(t, repo.Save(ctx, tk))
		}

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, "first", tasks[0].Title())
		assert.Equal(t, "second", tasks[1].Title())
		assert.Equal(t, "third", tasks[2].Title())
	})

	t.Run("save updates in place", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		a, _ := task.NewTask(1, "a", "desc a", "2024-01-01")
		b, _ := task.NewTask(2, "b", "", "")
		require.NoError(t, repo.Save(ctx, a))
		require.NoError(t, repo.Save(ctx, b))

		a.SetCompleted(true)
		require.NoError(t, repo.Save(ctx, a))

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, int64(1), tasks[0].ID())
		assert.True(t, tasks[0].Completed())
		assert.Equal(t, "desc a", tasks[0].Description())
		assert.Equal(t, "2024-01-01", tasks[0].Deadline())
	})

	t.Run("find by id", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		tk, _ := task.NewTask(77, "Buy milk", "semi-skimmed", "2024-02-02")
		require.NoError(t, repo.Save(ctx, tk))

		found, err := repo.FindByID(ctx, 77)
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", found.Title())
		assert.Equal(t, "semi-skimmed", found.Description())

		_, err = repo.FindByID(ctx, 78)
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
	})

	t.Run("delete removes exactly one", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()

		for id := int64(1); id <= 3; id++ {
			tk, _ := task.NewTask(id, "t", "", "")
			require.NoError(t, repo.Save(ctx, tk))
		}

		require.NoError(t, repo.Delete(ctx, 2))
		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, int64(1), tasks[0].ID())
		assert.Equal(t, int64(3), tasks[1].ID())

		assert.ErrorIs(t, repo.Delete(ctx, 2), task.ErrTaskNotFound)
		tasks, err = repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("next id is unique", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()
		now := time.UnixMilli(1_700_000_000_000)

		id, err := repo.NextID(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, now.UnixMilli(), id)

		tk, _ := task.NewTask(id, "t", "", "")
		require.NoError(t, repo.Save(ctx, tk))

		next, err := repo.NextID(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, id+1, next)
	})

	t.Run("insert never overwrites a taken id", func(t *testing.T) {
		repo, _ := newRepo(t)
		ctx := context.Background()
		now := time.UnixMilli(1_700_000_000_000)

		idA, err := repo.NextID(ctx, now)
		require.NoError(t, err)
		idB, err := repo.NextID(ctx, now)
		require.NoError(t, err)
		require.Equal(t, idA, idB)

		a, _ := task.NewTask(idA, "A", "", "")
		b, _ := task.NewTask(idB, "B", "", "")
		require.NoError(t, repo.Insert(ctx, a))
		assert.ErrorIs(t, repo.Insert(ctx, b), task.ErrDuplicateID)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "A", tasks[0].Title())
	})

	t.Run("concurrent creates keep every task", func(t *testing.T) {
		repo, uow := newRepo(t)
		ctx := context.Background()
		h := commands.NewCreateTaskHandler(repo, commands.Deps{UnitOfWork: uow})

		const creators = 5
		var wg sync.WaitGroup
		errs := make(chan error, creators)
		for i := 0; i < creators; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := h.Handle(ctx, commands.CreateTaskCommand{Title: "parallel"})
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, tasks, creators)
		ids := make(map[int64]bool, creators)
		for _, tk := range tasks {
			ids[tk.ID()] = true
		}
		assert.Len(t, ids, creators)
	})

	t.Run("unit of work rollback discards writes", func(t *testing.T) {
		repo, uow := newRepo(t)
		if _, ok := uow.(application.NoopUnitOfWork); ok {
			t.Skip("store has no multi-write transactions")
		}
		ctx := context.Background()

		err := application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
			tk, _ := task.NewTask(5, "discarded", "", "")
			if err := repo.Save(txCtx, tk); err != nil {
				return err
			}
			return errors.New("abort")
		})
		require.Error(t, err)

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("concurrent units of work lose no updates", func(t *testing.T) {
		if !opts.serializedUnits {
			t.Skip("store does not serialize units of work")
		}
		repo, uow := newRepo(t)
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
					id, err := repo.NextID(txCtx, time.UnixMilli(1_700_000_000_000))
					if err != nil {
						return err
					}
					tk, err := task.NewTask(id, "parallel", "", "")
					if err != nil {
						return err
					}
					return repo.Save(txCtx, tk)
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		tasks, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, tasks, 10)
	})
}
