package board

import (
	"slices"
	"time"
)

const dateLayout = "2006-01-02"

// Today formats now as a YYYY-MM-DD date in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(dateLayout)
}

// DueToday returns the incomplete tasks whose deadline is today.
func DueToday(tasks []TaskView, today string) []TaskView {
	var due []TaskView
	for _, t := range tasks {
		if !t.Completed && t.Deadline != "" && t.Deadline == today {
			due = append(due, t)
		}
	}
	return due
}

// ReminderPanel lists the tasks due today. Evaluating can only reveal it;
// it stays visible until dismissed.
type ReminderPanel struct {
	visible bool
	titles  []string
}

// Evaluate shows the panel with the titles of tasks due today. With nothing
// due the panel keeps its current state and titles.
func (p *ReminderPanel) Evaluate(tasks []TaskView, today string) {
	due := DueToday(tasks, today)
	if len(due) == 0 {
		return
	}
	titles := make([]string, 0, len(due))
	for _, t := range due {
		titles = append(titles, t.Title)
	}
	p.titles = titles
	p.visible = true
}

// Dismiss hides the panel.
func (p *ReminderPanel) Dismiss() {
	p.visible = false
}

// Visible reports whether the panel is shown.
func (p ReminderPanel) Visible() bool {
	return p.visible
}

// Titles returns the listed task titles.
func (p ReminderPanel) Titles() []string {
	return slices.Clone(p.titles)
}
