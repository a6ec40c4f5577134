package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

// FileTaskRepository implements task.Repository over a single pretty-printed JSON array.
// Every write replaces the file atomically: the new document is written to a temp file
// in the same directory, synced, and renamed over the old one.
type FileTaskRepository struct {
	path string
	mu   sync.Mutex
}

// NewFileTaskRepository creates a repository backed by the JSON file at path.
// The file does not need to exist yet.
func NewFileTaskRepository(path string) *FileTaskRepository {
	return &FileTaskRepository{path: path}
}

// Path returns the backing file path.
func (r *FileTaskRepository) Path() string {
	return r.path
}

// List returns all tasks in document order.
func (r *FileTaskRepository) List(ctx context.Context) ([]*task.Task, error) {
	var out []*task.Task
	err := r.withRecords(ctx, false, func(records *[]taskRecord) error {
		out = make([]*task.Task, 0, len(*records))
		for _, rec := range *records {
			out = append(out, rec.toDomain())
		}
		return nil
	})
	return out, err
}

// FindByID returns the task with the given id.
func (r *FileTaskRepository) FindByID(ctx context.Context, id int64) (*task.Task, error) {
	var found *task.Task
	err := r.withRecords(ctx, false, func(records *[]taskRecord) error {
		for _, rec := range *records {
			if rec.ID == id {
				found = rec.toDomain()
				return nil
			}
		}
		return task.ErrTaskNotFound
	})
	return found, err
}

// Insert appends a new task. An id already stored fails with task.ErrDuplicateID.
func (r *FileTaskRepository) Insert(ctx context.Context, t *task.Task) error {
	return r.withRecords(ctx, true, func(records *[]taskRecord) error {
		rec := toRecord(t)
		for _, existing := range *records {
			if existing.ID == rec.ID {
				return fmt.Errorf("insert task %d: %w", rec.ID, task.ErrDuplicateID)
			}
		}
		*records = append(*records, rec)
		return nil
	})
}

// Save updates the task in place, or appends it when its id is new.
func (r *FileTaskRepository) Save(ctx context.Context, t *task.Task) error {
	return r.withRecords(ctx, true, func(records *[]taskRecord) error {
		rec := toRecord(t)
		for i := range *records {
			if (*records)[i].ID == rec.ID {
				(*records)[i] = rec
				return nil
			}
		}
		*records = append(*records, rec)
		return nil
	})
}

// Delete removes the task with the given id.
func (r *FileTaskRepository) Delete(ctx context.Context, id int64) error {
	return r.withRecords(ctx, true, func(records *[]taskRecord) error {
		kept := (*records)[:0:0]
		for _, rec := range *records {
			if rec.ID != id {
				kept = append(kept, rec)
			}
		}
		if len(kept) == len(*records) {
			return task.ErrTaskNotFound
		}
		*records = kept
		return nil
	})
}

// NextID returns a timestamp id not used by any stored task.
func (r *FileTaskRepository) NextID(ctx context.Context, now time.Time) (int64, error) {
	var id int64
	err := r.withRecords(ctx, false, func(records *[]taskRecord) error {
		id = task.NextTimestampID(now, maxID(*records))
		return nil
	})
	return id, err
}

// withRecords runs fn against the current document.
// Inside a FileUnitOfWork the working copy of that unit is used and written on commit;
// otherwise the call holds the lock for one read-modify-write cycle.
func (r *FileTaskRepository) withRecords(ctx context.Context, mutate bool, fn func(records *[]taskRecord) error) error {
	if tx, ok := fileTxFromContext(ctx, r); ok {
		if err := fn(&tx.records); err != nil {
			return err
		}
		if mutate {
			tx.dirty = true
		}
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	if err := fn(&records); err != nil {
		return err
	}
	if !mutate {
		return nil
	}
	return r.store(records)
}

// load reads the document. A missing or empty file is an empty collection.
func (r *FileTaskRepository) load() ([]taskRecord, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []taskRecord{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []taskRecord{}, nil
	}

	var records []taskRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	if records == nil {
		records = []taskRecord{}
	}
	return records, nil
}

// store writes the document with two-space indentation via temp file and rename.
func (r *FileTaskRepository) store(records []taskRecord) error {
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", r.path, err)
	}
	return nil
}
