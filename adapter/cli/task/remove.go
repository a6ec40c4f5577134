package task

import (
	"fmt"

	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Short:   "Delete a task",
	Aliases: []string{"delete"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c, err := client()
		if err != nil {
			return err
		}
		if err := c.Delete(cmd.Context(), id); err != nil {
			return describe(id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task deleted: %d\n", id)
		return nil
	},
}
