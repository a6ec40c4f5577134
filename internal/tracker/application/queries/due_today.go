package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/dto"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

// DueTodayQuery asks for open tasks whose deadline is Day (YYYY-MM-DD).
// An empty Day means today in the handler's time zone.
type DueTodayQuery struct {
	Day string
}

// DueTodayHandler handles the DueTodayQuery.
type DueTodayHandler struct {
	taskRepo task.Repository
	loc      *time.Location
	now      func() time.Time
}

// NewDueTodayHandler creates a new DueTodayHandler. A nil location means UTC.
func NewDueTodayHandler(taskRepo task.Repository, loc *time.Location) *DueTodayHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &DueTodayHandler{taskRepo: taskRepo, loc: loc, now: time.Now}
}

// Today returns the current calendar day in the handler's time zone.
func (h *DueTodayHandler) Today() string {
	return h.now().In(h.loc).Format(task.DateLayout)
}

// Handle returns matching tasks in insertion order.
func (h *DueTodayHandler) Handle(ctx context.Context, query DueTodayQuery) ([]dto.TaskDTO, error) {
	day := query.Day
	if day == "" {
		day = h.Today()
	} else if err := task.ValidateDeadline(day); err != nil {
		return nil, apperr.Invalid("due today", "day must be a YYYY-MM-DD date")
	}

	tasks, err := h.taskRepo.List(ctx)
	if err != nil {
		return nil, apperr.Storage("due today", apperr.MsgReadTasks, err)
	}

	due := make([]*task.Task, 0)
	for _, t := range tasks {
		if t.IsDueOn(day) {
			due = append(due, t)
		}
	}
	return dto.FromTasks(due), nil
}
