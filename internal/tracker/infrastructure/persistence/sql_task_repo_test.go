package persistence_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database/postgres"
	_ "github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/tracker/infrastructure/persistence"
)

func TestSQLiteTaskRepository_Contract(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) (task.Repository, application.UnitOfWork) {
		ctx := context.Background()
		conn, err := database.NewConnection(ctx, database.Config{
			URL: filepath.Join(t.TempDir(), "tasks.db"),
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		require.NoError(t, migrations.Run(ctx, conn))

		return persistence.NewSQLiteTaskRepository(conn), database.NewUnitOfWork(conn)
	}, contractOptions{serializedUnits: true})
}

func TestPostgresTaskRepository_Contract(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	runRepositoryContract(t, func(t *testing.T) (task.Repository, application.UnitOfWork) {
		ctx := context.Background()
		conn, err := database.NewConnection(ctx, database.Config{URL: dbURL})
		if err != nil {
			t.Skipf("Failed to connect to test database: %v", err)
		}
		t.Cleanup(func() { _ = conn.Close() })
		require.NoError(t, migrations.Run(ctx, conn))
		_, _ = conn.Exec(ctx, "DELETE FROM tasks")

		return persistence.NewPostgresTaskRepository(conn), database.NewUnitOfWork(conn)
	}, contractOptions{})
}
