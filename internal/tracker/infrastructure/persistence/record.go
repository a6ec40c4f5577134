package persistence

import "github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"

// taskRecord is the stored shape of a task. Field order matches the JSON document layout.
type taskRecord struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Completed   bool   `json:"completed"`
}

func toRecord(t *task.Task) taskRecord {
	return taskRecord{
		ID:          t.ID(),
		Title:       t.Title(),
		Description: t.Description(),
		Deadline:    t.Deadline(),
		Completed:   t.Completed(),
	}
}

func (r taskRecord) toDomain() *task.Task {
	return task.Rehydrate(r.ID, r.Title, r.Description, r.Deadline, r.Completed)
}

func maxID(records []taskRecord) int64 {
	var max int64
	for _, r := range records {
		if r.ID > max {
			max = r.ID
		}
	}
	return max
}
