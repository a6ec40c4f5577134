package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/internal/board"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle [task-id]",
	Short: "Flip a task between pending and completed",
	Long: `Flip a task between pending and completed.

Examples:
  taskboard task toggle 3`,
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		b, err := loadBoard(cmd)
		if err != nil {
			return err
		}
		if err := b.Toggle(cmd.Context(), id); err != nil {
			return describe(id, err)
		}

		t, ok := b.Snapshot().Find(id)
		if !ok {
			return describe(id, board.ErrUnknownTask)
		}
		state := "pending"
		if t.Completed {
			state = "completed"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", id, state)
		return nil
	},
}
