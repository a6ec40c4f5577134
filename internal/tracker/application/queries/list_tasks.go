package queries

import (
	"context"

	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/dto"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

// ListTasksQuery requests the whole collection.
type ListTasksQuery struct{}

// ListTasksHandler handles the ListTasksQuery.
type ListTasksHandler struct {
	taskRepo task.Repository
}

// NewListTasksHandler creates a new ListTasksHandler.
func NewListTasksHandler(taskRepo task.Repository) *ListTasksHandler {
	return &ListTasksHandler{taskRepo: taskRepo}
}

// Handle returns every task in insertion order. A read failure yields no partial result.
func (h *ListTasksHandler) Handle(ctx context.Context, _ ListTasksQuery) ([]dto.TaskDTO, error) {
	tasks, err := h.taskRepo.List(ctx)
	if err != nil {
		return nil, apperr.Storage("list tasks", apperr.MsgReadTasks, err)
	}
	return dto.FromTasks(tasks), nil
}
