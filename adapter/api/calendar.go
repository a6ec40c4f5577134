package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/emersion/go-ical"

	"github.com/felixgeelhaar/taskboard/internal/tracker/application/apperr"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/dto"
	"github.com/felixgeelhaar/taskboard/internal/tracker/application/queries"
	"github.com/felixgeelhaar/taskboard/internal/tracker/domain/task"
)

const calendarProductID = "-//Taskboard//Task Export//EN"

// ExportCalendar handles GET /tasks.ics. Every task becomes a VTODO; tasks
// with a deadline carry it as an all-day DUE date.
func (h *TaskHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.listTasks.Handle(r.Context(), queries.ListTasksQuery{})
	if err != nil {
		h.fail(w, r, "export calendar", err, apperr.MsgReadTasks)
		return
	}

	var buf bytes.Buffer
	if err := WriteCalendar(&buf, tasks, time.Now().UTC()); err != nil {
		h.fail(w, r, "export calendar", err, apperr.MsgReadTasks)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="tasks.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// WriteCalendar encodes tasks as an iCalendar stream of VTODO components.
func WriteCalendar(out io.Writer, tasks []dto.TaskDTO, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, t := range tasks {
		cal.Children = append(cal.Children, toTodo(t, stamp))
	}

	return ical.NewEncoder(out).Encode(cal)
}

func toTodo(t dto.TaskDTO, stamp time.Time) *ical.Component {
	todo := ical.NewComponent(ical.CompToDo)
	todo.Props.SetText(ical.PropUID, strconv.FormatInt(t.ID, 10)+"@taskboard")
	todo.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	todo.Props.SetText(ical.PropSummary, t.Title)
	if t.Description != "" {
		todo.Props.SetText(ical.PropDescription, t.Description)
	}
	if due, err := time.Parse(task.DateLayout, t.Deadline); err == nil {
		todo.Props.SetDate(ical.PropDue, due)
	}

	status := "NEEDS-ACTION"
	if t.Completed {
		status = "COMPLETED"
	}
	todo.Props.SetText(ical.PropStatus, status)
	return todo
}
