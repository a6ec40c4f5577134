package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	sharedApplication "github.com/felixgeelhaar/taskboard/internal/shared/application"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/internal/tracker/infrastructure/persistence"
)

// StoreKind names a task store backend.
type StoreKind string

const (
	StoreFile     StoreKind = "file"
	StoreSQLite   StoreKind = "sqlite"
	StorePostgres StoreKind = "postgres"
	StoreRedis    StoreKind = "redis"
)

// RedisKeyPrefix namespaces the redis store keys.
const RedisKeyPrefix = "taskboard"

// DetectStore picks the backend for a store URL. Anything that is not a
// recognised database URL is treated as a JSON file path.
func DetectStore(url string) StoreKind {
	switch {
	case url == "redis", strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return StoreRedis
	case database.IsPostgresURL(url):
		return StorePostgres
	case database.IsSQLiteURL(url):
		return StoreSQLite
	default:
		return StoreFile
	}
}

// Store is an opened task store with the unit of work that matches it.
type Store struct {
	Kind       StoreKind
	Repo       task.Repository
	UnitOfWork sharedApplication.UnitOfWork
	Ping       func(ctx context.Context) error

	// Set only for the SQL and redis backends.
	DBConn      database.Connection
	RedisClient *redis.Client
}

// Close releases the store's connections.
func (s *Store) Close() error {
	if s.DBConn != nil {
		return s.DBConn.Close()
	}
	if s.RedisClient != nil {
		return s.RedisClient.Close()
	}
	return nil
}

// OpenStore opens the store named by url. For the bare "redis" form the
// connection comes from redisURL. SQL stores are migrated before use.
func OpenStore(ctx context.Context, url, redisURL string, logger *slog.Logger) (*Store, error) {
	kind := DetectStore(url)

	switch kind {
	case StorePostgres, StoreSQLite:
		conn, err := database.NewConnection(ctx, database.Config{URL: url})
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", kind, err)
		}
		if err := migrations.Run(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate %s store: %w", kind, err)
		}
		logger.Info("task store opened", "kind", kind)
		return &Store{
			Kind:       kind,
			Repo:       persistence.NewSQLTaskRepository(conn),
			UnitOfWork: database.NewUnitOfWork(conn),
			Ping:       conn.Ping,
			DBConn:     conn,
		}, nil

	case StoreRedis:
		if url == "redis" {
			url = redisURL
		}
		if url == "" {
			return nil, fmt.Errorf("open redis store: REDIS_URL is not set")
		}
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.Info("task store opened", "kind", kind, "addr", opts.Addr)
		return &Store{
			Kind:        kind,
			Repo:        persistence.NewRedisTaskRepository(client, RedisKeyPrefix),
			UnitOfWork:  sharedApplication.NoopUnitOfWork{},
			Ping:        func(ctx context.Context) error { return client.Ping(ctx).Err() },
			RedisClient: client,
		}, nil

	default:
		path, err := security.ValidateFilePath(url)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		if err := security.ValidateDir(path); err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		repo := persistence.NewFileTaskRepository(path)
		logger.Info("task store opened", "kind", kind, "path", repo.Path())
		return &Store{
			Kind:       kind,
			Repo:       repo,
			UnitOfWork: persistence.NewFileUnitOfWork(repo),
			Ping: func(ctx context.Context) error {
				_, err := repo.List(ctx)
				return err
			},
		}, nil
	}
}
