package board

import (
	"fmt"
	"math"
	"strings"
)

// StatusFilter restricts the view by completion.
type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

// ParseStatusFilter accepts all, completed or pending in any case. Empty means all.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return StatusAll, nil
	case StatusAll, StatusCompleted, StatusPending:
		return f, nil
	default:
		return "", fmt.Errorf("unknown status filter %q (want all, completed or pending)", raw)
	}
}

// Next cycles all -> pending -> completed -> all.
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case StatusAll, "":
		return StatusPending
	case StatusPending:
		return StatusCompleted
	default:
		return StatusAll
	}
}

func (f StatusFilter) matches(completed bool) bool {
	switch f {
	case StatusCompleted:
		return completed
	case StatusPending:
		return !completed
	default:
		return true
	}
}

// Filter combines a search term with a status filter.
type Filter struct {
	// Search is matched case-insensitively against title and description.
	Search string
	Status StatusFilter
}

// Matches reports whether t passes both the search and the status filter.
func (f Filter) Matches(t TaskView) bool {
	if !f.Status.matches(t.Completed) {
		return false
	}
	if f.Search == "" {
		return true
	}
	term := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

// Apply returns the matching tasks in their original order.
func (f Filter) Apply(tasks []TaskView) []TaskView {
	out := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Progress is the rounded percentage of completed tasks, 0 for no tasks.
func Progress(tasks []TaskView) int {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Completed {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(len(tasks))))
}

// ToggleLabel names the action that flips a task's status.
func ToggleLabel(completed bool) string {
	if completed {
		return "Mark Pending"
	}
	return "Mark Complete"
}
