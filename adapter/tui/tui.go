// Package tui is the interactive terminal client of the task store.
package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/felixgeelhaar/taskboard/internal/board"
)

type mode int

const (
	modeList mode = iota
	modeSearch
	modeAdd
)

const progressWidth = 30

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	barFullStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	reminderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)
)

var formLabels = [3]string{"Title", "Description", "Deadline (YYYY-MM-DD)"}

// refreshedMsg reports the end of a fetch or of a mutation and its refetch.
type refreshedMsg struct {
	action string
	err    error
}

// Model is the bubbletea model over a board.
type Model struct {
	ctx    context.Context
	board  *board.Board
	filter board.Filter
	cursor int
	mode   mode

	form      [3]string
	formFocus int

	busy bool
	err  error
}

// New creates a model. Init loads the board.
func New(ctx context.Context, b *board.Board) *Model {
	return &Model{
		ctx:    ctx,
		board:  b,
		filter: board.Filter{Status: board.StatusAll},
	}
}

// Run starts the interactive client on the terminal.
func Run(ctx context.Context, b *board.Board) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("board requires a TTY")
	}
	program := tea.NewProgram(New(ctx, b), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	m.busy = true
	return m.run("refresh", m.board.Refresh)
}

// run performs op off the update loop.
func (m *Model) run(action string, op func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return refreshedMsg{action: action, err: op(ctx)}
	}
}

// visible is the filtered view of the current snapshot.
func (m *Model) visible() []board.TaskView {
	return m.filter.Apply(m.board.Snapshot().Tasks())
}

func (m *Model) selected() (board.TaskView, bool) {
	tasks := m.visible()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return board.TaskView{}, false
	}
	return tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshedMsg:
		m.busy = false
		m.err = msg.err
		m.clampCursor()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeAdd:
			return m.updateForm(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.visible())-1 {
			m.cursor++
		}
	case "/":
		m.mode = modeSearch
	case "esc":
		m.filter.Search = ""
		m.clampCursor()
	case "tab":
		m.filter.Status = m.filter.Status.Next()
		m.clampCursor()
	case "1":
		m.filter.Status = board.StatusAll
		m.clampCursor()
	case "2":
		m.filter.Status = board.StatusPending
		m.clampCursor()
	case "3":
		m.filter.Status = board.StatusCompleted
		m.clampCursor()
	case "x":
		m.board.DismissReminders()
	case "r":
		m.busy = true
		return m, m.run("refresh", m.board.Refresh)
	case "a":
		m.mode = modeAdd
		m.form = [3]string{}
		m.formFocus = 0
	case " ", "enter":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.run("toggle", func(ctx context.Context) error {
			return m.board.Toggle(ctx, t.ID)
		})
	case "d":
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.busy = true
		return m, m.run("delete", func(ctx context.Context) error {
			return m.board.Remove(ctx, t.ID)
		})
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.mode = modeList
	case "esc":
		m.filter.Search = ""
		m.mode = modeList
	case "backspace":
		m.filter.Search = dropLastRune(m.filter.Search)
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.filter.Search += string(msg.Runes)
		}
	}
	m.clampCursor()
	return m, nil
}

func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = modeList
	case "tab", "down":
		m.formFocus = (m.formFocus + 1) % len(m.form)
	case "shift+tab", "up":
		m.formFocus = (m.formFocus + len(m.form) - 1) % len(m.form)
	case "backspace":
		m.form[m.formFocus] = dropLastRune(m.form[m.formFocus])
	case "enter":
		if m.formFocus < len(m.form)-1 {
			m.formFocus++
			return m, nil
		}
		title, description, deadline := m.form[0], m.form[1], strings.TrimSpace(m.form[2])
		m.mode = modeList
		m.busy = true
		return m, m.run("add", func(ctx context.Context) error {
			return m.board.Add(ctx, title, description, deadline)
		})
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.form[m.formFocus] += string(msg.Runes)
		}
	}
	return m, nil
}

func dropLastRune(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Taskboard") + "\n\n")

	snap := m.board.Snapshot()
	all := snap.Tasks()
	writeProgress(&b, board.Progress(all))

	if r := m.board.Reminders(); r.Visible() {
		var lines []string
		lines = append(lines, "Due today:")
		for _, title := range r.Titles() {
			lines = append(lines, "  - "+title)
		}
		lines = append(lines, mutedStyle.Render("x to dismiss"))
		b.WriteString(reminderStyle.Render(strings.Join(lines, "\n")) + "\n\n")
	}

	search := m.filter.Search
	if m.mode == modeSearch {
		search += "_"
	}
	b.WriteString(fmt.Sprintf("Status: %s   Search: %s\n\n", m.filter.Status, search))

	if m.mode == modeAdd {
		writeForm(&b, m.form, m.formFocus)
	} else {
		writeTasks(&b, m.filter.Apply(all), m.cursor, snap.FetchedAt().IsZero())
	}

	if m.busy {
		b.WriteString(mutedStyle.Render("working...") + "\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: "+m.err.Error()) + "\n")
	}
	b.WriteString(mutedStyle.Render(footer(m.mode)) + "\n")
	return b.String()
}

func writeProgress(b *strings.Builder, pct int) {
	filled := pct * progressWidth / 100
	bar := barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", progressWidth-filled))
	b.WriteString(fmt.Sprintf("%s %d%%\n\n", bar, pct))
}

func writeTasks(b *strings.Builder, tasks []board.TaskView, cursor int, loading bool) {
	if loading {
		b.WriteString("Loading...\n\n")
		return
	}
	if len(tasks) == 0 {
		b.WriteString("  No tasks.\n\n")
		return
	}
	for i, t := range tasks {
		mark := "[ ]"
		title := t.Title
		if t.Completed {
			mark = "[x]"
			title = doneStyle.Render(title)
		}
		prefix := "  "
		if i == cursor {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s\n", prefix, mark, title,
			mutedStyle.Render("("+board.ToggleLabel(t.Completed)+")")))
		if t.Description != "" {
			b.WriteString("      " + t.Description + "\n")
		}
		if t.Deadline != "" {
			b.WriteString("      " + mutedStyle.Render("Deadline: "+t.Deadline) + "\n")
		}
	}
	b.WriteString("\n")
}

func writeForm(b *strings.Builder, form [3]string, focus int) {
	b.WriteString("New task\n\n")
	for i, label := range formLabels {
		prefix := "  "
		value := form[i]
		if i == focus {
			prefix = cursorStyle.Render("> ")
			value += "_"
		}
		b.WriteString(fmt.Sprintf("%s%s: %s\n", prefix, label, value))
	}
	b.WriteString("\n")
}

func footer(m mode) string {
	switch m {
	case modeSearch:
		return "type to search | enter done | esc clear"
	case modeAdd:
		return "tab next field | enter next/submit | esc cancel"
	default:
		return "a add | space toggle | d delete | / search | tab status | x dismiss | r refresh | q quit"
	}
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
