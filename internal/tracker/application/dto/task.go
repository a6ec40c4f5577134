// Package dto holds the task representation shared by the tracker's handlers and adapters.
package dto

import "github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"

// TaskDTO is the wire shape of a task.
type TaskDTO struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
	Completed   bool   `json:"completed"`
}

// FromTask maps a task aggregate to its DTO.
func FromTask(t *task.Task) TaskDTO {
	return TaskDTO{
		ID:          t.ID(),
		Title:       t.Title(),
		Description: t.Description(),
		Deadline:    t.Deadline(),
		Completed:   t.Completed(),
	}
}

// FromTasks maps tasks in order. The result is never nil.
func FromTasks(tasks []*task.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, FromTask(t))
	}
	return out
}
