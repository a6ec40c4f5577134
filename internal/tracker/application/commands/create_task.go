package commands

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/dto"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
)

// maxCreateAttempts bounds how often a create retries after losing an id to a
// concurrent create.
const maxCreateAttempts = 5

// CreateTaskCommand contains the data needed to create a task.
type CreateTaskCommand struct {
	Title       string
	Description string
	Deadline    string
}

// CommandName implements application.Command.
func (CreateTaskCommand) CommandName() string { return "create_task" }

// CreateTaskHandler handles the CreateTaskCommand.
type CreateTaskHandler struct {
	taskRepo task.Repository
	deps     Deps
	now      func() time.Time
}

// NewCreateTaskHandler creates a new CreateTaskHandler.
func NewCreateTaskHandler(taskRepo task.Repository, deps Deps) *CreateTaskHandler {
	return &CreateTaskHandler{
		taskRepo: taskRepo,
		deps:     deps.withDefaults(),
		now:      time.Now,
	}
}

// Handle assigns an id, appends the task and returns it as stored.
// An id taken by a concurrent create is replaced by a fresh one.
func (h *CreateTaskHandler) Handle(ctx context.Context, cmd CreateTaskCommand) (*dto.TaskDTO, error) {
	var (
		events  []domain.DomainEvent
		created *dto.TaskDTO
		err     error
	)
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		created, events, err = h.create(ctx, cmd)
		if !errors.Is(err, task.ErrDuplicateID) {
			break
		}
		h.deps.Logger.Warn("task id taken by a concurrent create, retrying",
			"attempt", attempt+1, "error", err)
	}
	if err != nil {
		return nil, apperr.Wrap("create task", apperr.MsgCreateTask, err)
	}

	h.deps.Metrics.Counter(observability.MetricTasksCreated, 1)
	h.deps.dispatch(ctx, events)
	return created, nil
}

// create runs one attempt in its own unit of work.
func (h *CreateTaskHandler) create(ctx context.Context, cmd CreateTaskCommand) (*dto.TaskDTO, []domain.DomainEvent, error) {
	var events []domain.DomainEvent

	created, err := run(ctx, h.deps, cmd.CommandName(), func(txCtx context.Context) (*dto.TaskDTO, error) {
		id, err := h.taskRepo.NextID(txCtx, h.now())
		if err != nil {
			return nil, err
		}

		t, err := task.NewTask(id, cmd.Title, cmd.Description, cmd.Deadline)
		if err != nil {
			return nil, err
		}

		if err := h.taskRepo.Insert(txCtx, t); err != nil {
			return nil, err
		}

		events = t.PullEvents()
		result := dto.FromTask(t)
		return &result, nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, events, nil
}
