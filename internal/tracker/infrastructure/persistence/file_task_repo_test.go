package persistence_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/tracker/infrastructure/persistence"
)

func TestFileTaskRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) (task.Repository, application.UnitOfWork) {
		repo := persistence.NewFileTaskRepository(filepath.Join(t.TempDir(), "tasks.json"))
		return repo, persistence.NewFileUnitOfWork(repo)
	}, contractOptions{serializedUnits: true})
}

func TestFileTaskRepository_DocumentLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "tasks.json")
	repo := persistence.NewFileTaskRepository(path)
	ctx := context.Background()

	tk, err := task.NewTask(1700000000000, "Buy milk", "", "2024-03-01")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tk))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	expected := "[\n" +
		"  {\n" +
		"    \"id\": 1700000000000,\n" +
		"    \"title\": \"Buy milk\",\n" +
		"    \"description\": \"\",\n" +
		"    \"deadline\": \"2024-03-01\",\n" +
		"    \"completed\": false\n" +
		"  }\n" +
		"]"
	assert.Equal(t, expected, string(raw))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileTaskRepository_EmptyDocumentAfterLastDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	repo := persistence.NewFileTaskRepository(path)
	ctx := context.Background()

	tk, _ := task.NewTask(1, "only", "", "")
	require.NoError(t, repo.Save(ctx, tk))
	require.NoError(t, repo.Delete(ctx, 1))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFileTaskRepository_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	doc := []map[string]any{
		{"id": 10, "title": "Pay bills", "description": "rent", "deadline": "2024-04-01", "completed": true},
		{"id": 11, "title": "Call mum"},
	}
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	tasks, err := persistence.NewFileTaskRepository(path).List(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.True(t, tasks[0].Completed())
	assert.Equal(t, "rent", tasks[0].Description())
	assert.Equal(t, "", tasks[1].Deadline())
}

func TestFileTaskRepository_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := persistence.NewFileTaskRepository(path).List(context.Background())
	assert.Error(t, err)
}

func TestFileTaskRepository_WhitespaceDocumentIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("\n  \n"), 0o644))

	tasks, err := persistence.NewFileTaskRepository(path).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestFileUnitOfWork_CommitWritesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	repo := persistence.NewFileTaskRepository(path)
	uow := persistence.NewFileUnitOfWork(repo)
	ctx := context.Background()

	err := application.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
		a, _ := task.NewTask(1, "a", "", "")
		b, _ := task.NewTask(2, "b", "", "")
		if err := repo.Save(txCtx, a); err != nil {
			return err
		}
		// Nothing is on disk until commit.
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
		return repo.Save(txCtx, b)
	})
	require.NoError(t, err)

	tasks, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestFileUnitOfWork_ReadOnlyCommitLeavesFileAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	repo := persistence.NewFileTaskRepository(path)

	err := application.WithUnitOfWork(context.Background(), persistence.NewFileUnitOfWork(repo), func(txCtx context.Context) error {
		_, err := repo.List(txCtx)
		return err
	})
	require.NoError(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
