package task

import (
	"strconv"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
)

const (
	AggregateType = "Task"

	RoutingKeyCreated       = "tracker.task.created"
	RoutingKeyStatusChanged = "tracker.task.status_changed"
	RoutingKeyDeleted       = "tracker.task.deleted"
)

// TaskCreated is emitted when a new task is created.
type TaskCreated struct {
	domain.BaseEvent
	TaskID   int64  `json:"task_id"`
	Title    string `json:"title"`
	Deadline string `json:"deadline,omitempty"`
}

// NewTaskCreated creates a TaskCreated event.
func NewTaskCreated(taskID int64, title, deadline string) *TaskCreated {
	return &TaskCreated{
		BaseEvent: domain.NewBaseEvent(strconv.FormatInt(taskID, 10), AggregateType, RoutingKeyCreated),
		TaskID:    taskID,
		Title:     title,
		Deadline:  deadline,
	}
}

// TaskStatusChanged is emitted when a task is marked complete or pending.
type TaskStatusChanged struct {
	domain.BaseEvent
	TaskID    int64 `json:"task_id"`
	Completed bool  `json:"completed"`
}

// NewTaskStatusChanged creates a TaskStatusChanged event.
func NewTaskStatusChanged(taskID int64, completed bool) *TaskStatusChanged {
	return &TaskStatusChanged{
		BaseEvent: domain.NewBaseEvent(strconv.FormatInt(taskID, 10), AggregateType, RoutingKeyStatusChanged),
		TaskID:    taskID,
		Completed: completed,
	}
}

// TaskDeleted is emitted when a task is removed.
type TaskDeleted struct {
	domain.BaseEvent
	TaskID int64 `json:"task_id"`
}

// NewTaskDeleted creates a TaskDeleted event.
func NewTaskDeleted(taskID int64) *TaskDeleted {
	return &TaskDeleted{
		BaseEvent: domain.NewBaseEvent(strconv.FormatInt(taskID, 10), AggregateType, RoutingKeyDeleted),
		TaskID:    taskID,
	}
}
