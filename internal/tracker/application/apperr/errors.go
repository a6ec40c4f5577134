// Package apperr classifies tracker failures into the kinds the adapters report.
package apperr

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

// Caller-facing messages for storage failures, one per store operation.
const (
	MsgReadTasks  = "Error reading tasks"
	MsgCreateTask = "Error creating task"
	MsgUpdateTask = "Error updating task"
	MsgDeleteTask = "Error deleting task"
	MsgNotFound   = "Task not found"
)

// Kind is the category of a failure as seen by callers.
type Kind int

const (
	// KindStorage covers read and write failures of the task store.
	KindStorage Kind = iota
	// KindNotFound means the referenced task does not exist.
	KindNotFound
	// KindInvalidInput means the request was rejected before touching storage.
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "storage"
	}
}

// Error wraps an error with its kind and the operation that failed.
type Error struct {
	Kind Kind
	// Op is the operation that failed, e.g. "create task".
	Op string
	// Message is safe to show to API callers.
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Invalid creates an invalid input error.
func Invalid(op, message string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: message}
}

// Storage wraps a storage failure.
func Storage(op, message string, err error) *Error {
	return &Error{Kind: KindStorage, Op: op, Message: message, Err: err}
}

// Wrap classifies err for op. Domain and already classified errors are
// returned unchanged; anything else becomes a storage error carrying message.
func Wrap(op, message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) || KindOf(err) != KindStorage {
		return err
	}
	return Storage(op, message, err)
}

// KindOf classifies err. Domain sentinels are recognised anywhere in the chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		return KindNotFound
	case errors.Is(err, task.ErrEmptyTitle),
		errors.Is(err, task.ErrInvalidDeadline),
		errors.Is(err, task.ErrInvalidID):
		return KindInvalidInput
	default:
		return KindStorage
	}
}

// MessageOf returns the caller-facing message of err, or fallback when it carries none.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	switch KindOf(err) {
	case KindNotFound:
		return MsgNotFound
	case KindInvalidInput:
		return err.Error()
	default:
		return fallback
	}
}
