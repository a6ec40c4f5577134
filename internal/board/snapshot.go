// Package board is the client side of the task tracker: it keeps the last
// fetched collection and derives the filtered view, progress and reminders.
package board

import (
	"slices"
	"time"

	"github.com/felixgeelhaar/taskboard/pkg/taskclient"
)

// TaskView is a task as the client displays it.
type TaskView struct {
	ID          int64
	Title       string
	Description string
	Deadline    string
	Completed   bool
}

// FromClientTasks converts store responses to views.
func FromClientTasks(tasks []taskclient.Task) []TaskView {
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, TaskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Deadline:    t.Deadline,
			Completed:   t.Completed,
		})
	}
	return views
}

// Snapshot is one fetched copy of the collection. It is never modified after
// construction; a new fetch produces a new Snapshot.
type Snapshot struct {
	tasks     []TaskView
	fetchedAt time.Time
}

// NewSnapshot copies tasks into a snapshot taken at fetchedAt.
func NewSnapshot(tasks []TaskView, fetchedAt time.Time) Snapshot {
	return Snapshot{tasks: slices.Clone(tasks), fetchedAt: fetchedAt}
}

// Tasks returns a copy of the tasks in store order.
func (s Snapshot) Tasks() []TaskView {
	return slices.Clone(s.tasks)
}

// FetchedAt is when the snapshot was taken. Zero before the first fetch.
func (s Snapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

// Len returns the number of tasks.
func (s Snapshot) Len() int {
	return len(s.tasks)
}

// Find looks a task up by id.
func (s Snapshot) Find(id int64) (TaskView, bool) {
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return TaskView{}, false
}
