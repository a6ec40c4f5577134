package commands

import (
	"context"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// DeleteTaskCommand removes one task.
type DeleteTaskCommand struct {
	TaskID int64
}

// CommandName implements application.Command.
func (DeleteTaskCommand) CommandName() string { return "delete_task" }

// DeleteTaskHandler handles the DeleteTaskCommand.
type DeleteTaskHandler struct {
	taskRepo task.Repository
	deps     Deps
}

// NewDeleteTaskHandler creates a new DeleteTaskHandler.
func NewDeleteTaskHandler(taskRepo task.Repository, deps Deps) *DeleteTaskHandler {
	return &DeleteTaskHandler{
		taskRepo: taskRepo,
		deps:     deps.withDefaults(),
	}
}

// Handle removes exactly one task or reports task.ErrTaskNotFound.
func (h *DeleteTaskHandler) Handle(ctx context.Context, cmd DeleteTaskCommand) error {
	if cmd.TaskID <= 0 {
		return task.ErrTaskNotFound
	}

	var events []domain.DomainEvent

	_, err := run(ctx, h.deps, cmd.CommandName(), func(txCtx context.Context) (struct{}, error) {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return struct{}{}, err
		}

		if err := h.taskRepo.Delete(txCtx, cmd.TaskID); err != nil {
			return struct{}{}, err
		}

		t.MarkDeleted()
		events = t.PullEvents()
		return struct{}{}, nil
	})
	if err != nil {
		return apperr.Wrap("delete task", apperr.MsgDeleteTask, err)
	}

	h.deps.Metrics.Counter(observability.MetricTasksDeleted, 1)
	h.deps.dispatch(ctx, events)
	return nil
}
