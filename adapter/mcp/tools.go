// Package mcp exposes the task store as MCP tools and resources.
package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/taskboard/internal/board"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/dto"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

// ToolDependencies provides the handlers behind the MCP tools.
type ToolDependencies struct {
	CreateTask       *commands.CreateTaskHandler
	UpdateTaskStatus *commands.UpdateTaskStatusHandler
	DeleteTask       *commands.DeleteTaskHandler
	ListTasks        *queries.ListTasksHandler
	DueToday         *queries.DueTodayHandler
}

func (d ToolDependencies) validate() error {
	if d.CreateTask == nil || d.UpdateTaskStatus == nil || d.DeleteTask == nil ||
		d.ListTasks == nil || d.DueToday == nil {
		return errors.New("all task handlers are required")
	}
	return nil
}

type taskListInput struct {
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
}

type taskListResult struct {
	Tasks []dto.TaskDTO `json:"tasks"`
	// Total and Progress describe the whole collection, not the filtered tasks.
	Total    int `json:"total"`
	Progress int `json:"progress"`
}

type taskCreateInput struct {
	Title       string `json:"title" jsonschema:"required"`
	Description string `json:"description,omitempty"`
	Deadline    string `json:"deadline,omitempty"`
}

type taskSetStatusInput struct {
	TaskID    string `json:"task_id" jsonschema:"required"`
	Completed bool   `json:"completed"`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"required"`
}

type dueTodayInput struct {
	Day string `json:"day,omitempty"`
}

type dueTodayResult struct {
	Day   string        `json:"day"`
	Tasks []dto.TaskDTO `json:"tasks"`
}

// RegisterTools registers the task tools on srv.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if err := deps.validate(); err != nil {
		return err
	}
	t := tools{deps: deps}

	srv.Tool("task.list").
		Description("List tasks, optionally filtered by a search term and status (all, completed, pending)").
		Handler(t.list)

	srv.Tool("task.create").
		Description("Create a task with an optional description and YYYY-MM-DD deadline").
		Handler(t.create)

	srv.Tool("task.set_status").
		Description("Mark a task completed or pending").
		Handler(t.setStatus)

	srv.Tool("task.delete").
		Description("Delete a task").
		Handler(t.delete)

	srv.Tool("task.due_today").
		Description("List open tasks whose deadline is today, or the given YYYY-MM-DD day").
		Handler(t.dueToday)

	return nil
}

type tools struct {
	deps ToolDependencies
}

func (t tools) list(ctx context.Context, input taskListInput) (*taskListResult, error) {
	status, err := board.ParseStatusFilter(input.Status)
	if err != nil {
		return nil, err
	}
	all, err := t.deps.ListTasks.Handle(ctx, queries.ListTasksQuery{})
	if err != nil {
		return nil, err
	}

	filter := board.Filter{Search: input.Search, Status: status}
	views := toViews(all)
	result := &taskListResult{
		Tasks:    make([]dto.TaskDTO, 0, len(all)),
		Total:    len(all),
		Progress: board.Progress(views),
	}
	for i, v := range views {
		if filter.Matches(v) {
			result.Tasks = append(result.Tasks, all[i])
		}
	}
	return result, nil
}

func (t tools) create(ctx context.Context, input taskCreateInput) (*dto.TaskDTO, error) {
	return t.deps.CreateTask.Handle(ctx, commands.CreateTaskCommand{
		Title:       input.Title,
		Description: input.Description,
		Deadline:    input.Deadline,
	})
}

func (t tools) setStatus(ctx context.Context, input taskSetStatusInput) (*dto.TaskDTO, error) {
	id, err := parseTaskID(input.TaskID)
	if err != nil {
		return nil, err
	}
	return t.deps.UpdateTaskStatus.Handle(ctx, commands.UpdateTaskStatusCommand{
		TaskID:    id,
		Completed: input.Completed,
	})
}

func (t tools) delete(ctx context.Context, input taskIDInput) (map[string]any, error) {
	id, err := parseTaskID(input.TaskID)
	if err != nil {
		return nil, err
	}
	if err := t.deps.DeleteTask.Handle(ctx, commands.DeleteTaskCommand{TaskID: id}); err != nil {
		return nil, err
	}
	return map[string]any{"task_id": id, "deleted": true}, nil
}

func (t tools) dueToday(ctx context.Context, input dueTodayInput) (*dueTodayResult, error) {
	day := input.Day
	if day == "" {
		day = t.deps.DueToday.Today()
	}
	tasks, err := t.deps.DueToday.Handle(ctx, queries.DueTodayQuery{Day: day})
	if err != nil {
		return nil, err
	}
	return &dueTodayResult{Day: day, Tasks: tasks}, nil
}

func parseTaskID(value string) (int64, error) {
	if value == "" {
		return 0, errors.New("task_id is required")
	}
	id, err := task.ParseID(value)
	if err != nil {
		return 0, fmt.Errorf("invalid task_id %q: %w", value, err)
	}
	return id, nil
}

func toViews(tasks []dto.TaskDTO) []board.TaskView {
	views := make([]board.TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, board.TaskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Deadline:    t.Deadline,
			Completed:   t.Completed,
		})
	}
	return views
}
