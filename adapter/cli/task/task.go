package task

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/felixgeelhaar/taskboard/internal/board"
	"github.com/felixgeelhaar/taskboard/pkg/taskclient"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
	Long:  `Create, list, toggle, and delete tasks in a running task store.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(toggleCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(dueCmd)
}

func client() (*taskclient.Client, error) {
	a, err := cli.GetApp()
	if err != nil {
		return nil, err
	}
	return a.Client()
}

func loadBoard(cmd *cobra.Command) (*board.Board, error) {
	a, err := cli.GetApp()
	if err != nil {
		return nil, err
	}
	b, err := a.Board()
	if err != nil {
		return nil, err
	}
	if err := b.Refresh(cmd.Context()); err != nil {
		return nil, err
	}
	return b, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task ID %q", raw)
	}
	return id, nil
}

// describe turns store errors into messages for the terminal.
func describe(id int64, err error) error {
	switch {
	case errors.Is(err, taskclient.ErrNotFound), errors.Is(err, board.ErrUnknownTask):
		return fmt.Errorf("task %d not found", id)
	case errors.Is(err, taskclient.ErrCircuitOpen):
		return fmt.Errorf("task store unavailable, try again later: %w", err)
	default:
		return err
	}
}

func printTask(out io.Writer, t board.TaskView) {
	mark := "[ ]"
	if t.Completed {
		mark = "[x]"
	}
	fmt.Fprintf(out, "%s %d  %s  (%s)\n", mark, t.ID, t.Title, board.ToggleLabel(t.Completed))
	if t.Description != "" {
		fmt.Fprintf(out, "      %s\n", t.Description)
	}
	if t.Deadline != "" {
		fmt.Fprintf(out, "      deadline: %s\n", t.Deadline)
	}
}
