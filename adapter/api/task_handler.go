package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/commands"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// CreateTaskRequest is the body of POST /tasks.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Deadline    string `json:"deadline"`
}

// UpdateTaskStatusRequest is the body of PUT /tasks/{id}.
type UpdateTaskStatusRequest struct {
	Completed bool `json:"completed"`
}

// TaskHandler handles the task store endpoints.
type TaskHandler struct {
	createTask       *commands.CreateTaskHandler
	updateTaskStatus *commands.UpdateTaskStatusHandler
	deleteTask       *commands.DeleteTaskHandler
	listTasks        *queries.ListTasksHandler
	validator        *Validator
	logger           *slog.Logger
}

// TaskHandlerConfig holds dependencies for TaskHandler.
type TaskHandlerConfig struct {
	CreateTask       *commands.CreateTaskHandler
	UpdateTaskStatus *commands.UpdateTaskStatusHandler
	DeleteTask       *commands.DeleteTaskHandler
	ListTasks        *queries.ListTasksHandler
	// Validator defaults to the built-in request schemas.
	Validator *Validator
	Logger    *slog.Logger
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(cfg TaskHandlerConfig) *TaskHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	validator := cfg.Validator
	if validator == nil {
		validator = MustNewValidator()
	}
	return &TaskHandler{
		createTask:       cfg.CreateTask,
		updateTaskStatus: cfg.UpdateTaskStatus,
		deleteTask:       cfg.DeleteTask,
		listTasks:        cfg.ListTasks,
		validator:        validator,
		logger:           logger,
	}
}

// ListTasks handles GET /tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.listTasks.Handle(r.Context(), queries.ListTasksQuery{})
	if err != nil {
		h.fail(w, r, "list tasks", err, apperr.MsgReadTasks)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// CreateTask handles POST /tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	req, err := h.validator.DecodeCreateTask(body)
	if err != nil {
		h.fail(w, r, "create task", err, apperr.MsgCreateTask)
		return
	}

	created, err := h.createTask.Handle(r.Context(), commands.CreateTaskCommand{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
	})
	if err != nil {
		h.fail(w, r, "create task", err, apperr.MsgCreateTask)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateTaskStatus handles PUT /tasks/{id}.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	req, err := h.validator.DecodeUpdateStatus(body)
	if err != nil {
		h.fail(w, r, "update task", err, apperr.MsgUpdateTask)
		return
	}

	updated, err := h.updateTaskStatus.Handle(r.Context(), commands.UpdateTaskStatusCommand{
		TaskID:    id,
		Completed: req.Completed,
	})
	if err != nil {
		h.fail(w, r, "update task", err, apperr.MsgUpdateTask)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTask handles DELETE /tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.deleteTask.Handle(r.Context(), commands.DeleteTaskCommand{TaskID: id}); err != nil {
		h.fail(w, r, "delete task", err, apperr.MsgDeleteTask)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses the {id} segment. A value that is not an id cannot name a
// stored task, so it is reported as not found.
func (h *TaskHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := task.ParseID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, apperr.MsgNotFound)
		return 0, false
	}
	return id, true
}

func (h *TaskHandler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "unreadable request body")
		return nil, false
	}
	return body, true
}

// fail maps err to a status and writes it. Storage failures are logged with
// their cause; callers only see the fixed message.
func (h *TaskHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error, fallback string) {
	var inputErr *InputError
	if errors.As(err, &inputErr) {
		writeError(w, http.StatusBadRequest, inputErr.Error())
		return
	}

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, apperr.MsgNotFound)
	case apperr.KindInvalidInput:
		writeError(w, http.StatusBadRequest, apperr.MessageOf(err, fallback))
	default:
		h.logger.ErrorContext(r.Context(), "task store operation failed",
			"operation", op,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, apperr.MessageOf(err, fallback))
	}
}
