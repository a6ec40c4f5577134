package commands

import (
	"context"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/dto"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// UpdateTaskStatusCommand overwrites the completion flag of one task.
type UpdateTaskStatusCommand struct {
	TaskID    int64
	Completed bool
}

// CommandName implements application.Command.
func (UpdateTaskStatusCommand) CommandName() string { return "update_task_status" }

// UpdateTaskStatusHandler handles the UpdateTaskStatusCommand.
type UpdateTaskStatusHandler struct {
	taskRepo task.Repository
	deps     Deps
}

// NewUpdateTaskStatusHandler creates a new UpdateTaskStatusHandler.
func NewUpdateTaskStatusHandler(taskRepo task.Repository, deps Deps) *UpdateTaskStatusHandler {
	return &UpdateTaskStatusHandler{
		taskRepo: taskRepo,
		deps:     deps.withDefaults(),
	}
}

// Handle sets completed on the task and returns it. Other fields are left untouched.
func (h *UpdateTaskStatusHandler) Handle(ctx context.Context, cmd UpdateTaskStatusCommand) (*dto.TaskDTO, error) {
	if cmd.TaskID <= 0 {
		return nil, task.ErrTaskNotFound
	}

	var events []domain.DomainEvent

	updated, err := run(ctx, h.deps, cmd.CommandName(), func(txCtx context.Context) (*dto.TaskDTO, error) {
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return nil, err
		}

		t.SetCompleted(cmd.Completed)
		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return nil, err
		}

		events = t.PullEvents()
		result := dto.FromTask(t)
		return &result, nil
	})
	if err != nil {
		return nil, apperr.Wrap("update task", apperr.MsgUpdateTask, err)
	}

	if len(events) > 0 {
		h.deps.Metrics.Counter(observability.MetricTasksStatusChanged, 1)
	}
	h.deps.dispatch(ctx, events)
	return updated, nil
}
