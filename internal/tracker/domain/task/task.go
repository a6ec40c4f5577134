package task

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/taskboard/internal/shared/domain"
)

// DateLayout is the wire and storage format of a deadline.
const DateLayout = "2006-01-02"

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrEmptyTitle      = errors.New("task title cannot be empty")
	ErrInvalidDeadline = errors.New("task deadline must be a YYYY-MM-DD date")
	ErrInvalidID       = errors.New("task id must be a positive integer")
	ErrDuplicateID     = errors.New("task id already in use")
)

// Task is a tracked unit of work. Only its completion flag changes after creation.
type Task struct {
	domain.Recorder
	id          int64
	title       string
	description string
	deadline    string
	completed   bool
}

// NewTask creates a pending task. The deadline may be empty.
// Title and deadline are trimmed of surrounding whitespace; the description is kept as given.
func NewTask(id int64, title, description, deadline string) (*Task, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	deadline = strings.TrimSpace(deadline)
	if err := ValidateDeadline(deadline); err != nil {
		return nil, err
	}

	t := &Task{
		id:          id,
		title:       title,
		description: description,
		deadline:    deadline,
	}

	t.Record(NewTaskCreated(t.id, t.title, t.deadline))

	return t, nil
}

// Rehydrate recreates a task from persisted state without recording events.
func Rehydrate(id int64, title, description, deadline string, completed bool) *Task {
	return &Task{
		id:          id,
		title:       title,
		description: description,
		deadline:    deadline,
		completed:   completed,
	}
}

// Getters

func (t *Task) ID() int64           { return t.id }
func (t *Task) Title() string       { return t.title }
func (t *Task) Description() string { return t.description }
func (t *Task) Deadline() string    { return t.deadline }
func (t *Task) Completed() bool     { return t.completed }

// IDString returns the id in its decimal form, as used in routes and event envelopes.
func (t *Task) IDString() string {
	return strconv.FormatInt(t.id, 10)
}

// SetCompleted overwrites the completion flag.
// An event is recorded only when the value actually changes.
func (t *Task) SetCompleted(completed bool) {
	if t.completed == completed {
		return
	}
	t.completed = completed
	t.Record(NewTaskStatusChanged(t.id, completed))
}

// MarkDeleted records the removal of the task.
func (t *Task) MarkDeleted() {
	t.Record(NewTaskDeleted(t.id))
}

// IsDueOn reports whether the task is still open and its deadline is the given day.
func (t *Task) IsDueOn(day string) bool {
	return !t.completed && t.deadline != "" && t.deadline == day
}

// ValidateDeadline accepts an empty string or a calendar date in DateLayout.
func ValidateDeadline(deadline string) error {
	if deadline == "" {
		return nil
	}
	if _, err := time.Parse(DateLayout, deadline); err != nil {
		return ErrInvalidDeadline
	}
	return nil
}

// ParseID parses a task id from its decimal form.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
