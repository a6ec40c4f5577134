package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

const (
	listTasksSQL  = `SELECT id, title, description, deadline, completed FROM tasks ORDER BY seq`
	findTaskSQL   = `SELECT id, title, description, deadline, completed FROM tasks WHERE id = ?`
	deleteTaskSQL = `DELETE FROM tasks WHERE id = ?`
	maxTaskIDSQL  = `SELECT COALESCE(MAX(id), 0) FROM tasks`
	insertTaskSQL = `INSERT INTO tasks (id, title, description, deadline, completed)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`
	upsertTaskSQL = `INSERT INTO tasks (id, title, description, deadline, completed)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
    title = excluded.title,
    description = excluded.description,
    deadline = excluded.deadline,
    completed = excluded.completed`
)

// SQLTaskRepository implements task.Repository over the tasks table.
// Insertion order is kept by the seq column.
type SQLTaskRepository struct {
	conn   database.Connection
	rebind func(query string) string
}

// NewSQLiteTaskRepository creates a repository for a SQLite connection.
func NewSQLiteTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn, rebind: func(q string) string { return q }}
}

// NewPostgresTaskRepository creates a repository for a PostgreSQL connection.
func NewPostgresTaskRepository(conn database.Connection) *SQLTaskRepository {
	return &SQLTaskRepository{conn: conn, rebind: dollarPlaceholders}
}

// NewSQLTaskRepository picks the placeholder style from the connection's driver.
func NewSQLTaskRepository(conn database.Connection) *SQLTaskRepository {
	if conn.Driver() == database.DriverPostgres {
		return NewPostgresTaskRepository(conn)
	}
	return NewSQLiteTaskRepository(conn)
}

func (r *SQLTaskRepository) executor(ctx context.Context) database.Executor {
	return database.ExecutorFromContext(ctx, r.conn)
}

// List returns all tasks in insertion order.
func (r *SQLTaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	rows, err := r.executor(ctx).Query(ctx, r.rebind(listTasksSQL))
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*task.Task, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, rec.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// FindByID returns the task with the given id.
func (r *SQLTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	rec, err := scanRecord(r.executor(ctx).QueryRow(ctx, r.rebind(findTaskSQL), id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return rec.toDomain(), nil
}

// Insert adds a new row. A row already holding the id makes it fail with
// task.ErrDuplicateID and leaves that row untouched.
func (r *SQLTaskRepository) Insert(ctx context.Context, t *task.Task) error {
	rec := toRecord(t)
	affected, err := r.executor(ctx).Exec(ctx, r.rebind(insertTaskSQL),
		rec.ID, rec.Title, rec.Description, rec.Deadline, rec.Completed)
	if err != nil {
		return fmt.Errorf("insert task %d: %w", rec.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("insert task %d: %w", rec.ID, task.ErrDuplicateID)
	}
	return nil
}

// Save inserts the task or updates the existing row with the same id.
func (r *SQLTaskRepository) Save(ctx context.Context, t *task.Task) error {
	rec := toRecord(t)
	_, err := r.executor(ctx).Exec(ctx, r.rebind(upsertTaskSQL),
		rec.ID, rec.Title, rec.Description, rec.Deadline, rec.Completed)
	if err != nil {
		return fmt.Errorf("save task %d: %w", rec.ID, err)
	}
	return nil
}

// Delete removes the task with the given id.
func (r *SQLTaskRepository) Delete(ctx context.Context, id int64) error {
	affected, err := r.executor(ctx).Exec(ctx, r.rebind(deleteTaskSQL), id)
	if err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	if affected == 0 {
		return task.ErrTaskNotFound
	}
	return nil
}

// NextID returns a timestamp id greater than every stored id when the clock lags.
func (r *SQLTaskRepository) NextID(ctx context.Context, now time.Time) (int64, error) {
	var max int64
	if err := r.executor(ctx).QueryRow(ctx, r.rebind(maxTaskIDSQL)).Scan(&max); err != nil {
		return 0, fmt.Errorf("query max task id: %w", err)
	}
	return task.NextTimestampID(now, max), nil
}

func scanRecord(row database.Row) (taskRecord, error) {
	var rec taskRecord
	err := row.Scan(&rec.ID, &rec.Title, &rec.Description, &rec.Deadline, &rec.Completed)
	return rec, err
}

// dollarPlaceholders rewrites ? placeholders to PostgreSQL's $n form.
func dollarPlaceholders(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
