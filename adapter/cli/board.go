package cli

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/adapter/tui"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive task board",
	Long: `Open the interactive task board against a running task store.

The board shows the completion progress, a reminder panel for tasks due
today and the task list with search and status filters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := GetApp()
		if err != nil {
			return err
		}
		b, err := a.Board()
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), b)
	},
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
