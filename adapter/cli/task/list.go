package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/internal/board"
)

var (
	search string
	status string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Long: `List tasks with the overall completion progress.

Filter Options:
  --search   Case-insensitive text in the title or description
  --status   all, pending, or completed

Examples:
  taskboard task list
  taskboard task list --status pending
  taskboard task list --search milk`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := board.ParseStatusFilter(status)
		if err != nil {
			return err
		}
		b, err := loadBoard(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		all := b.Snapshot().Tasks()
		tasks := board.Filter{Search: search, Status: st}.Apply(all)
		if len(tasks) == 0 {
			fmt.Fprintln(out, "No tasks found.")
		}
		for _, t := range tasks {
			printTask(out, t)
		}
		fmt.Fprintf(out, "Progress: %d%%\n", board.Progress(all))
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&search, "search", "s", "", "filter by text in title or description")
	listCmd.Flags().StringVar(&status, "status", "all", "filter by status (all, pending, completed)")
}
