package task

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dueCmd = &cobra.Command{
	Use:     "due",
	Short:   "Show pending tasks due today",
	Aliases: []string{"reminders"},
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := loadBoard(cmd)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		r := b.Reminders()
		if !r.Visible() {
			fmt.Fprintf(out, "Nothing due today (%s).\n", b.Today())
			return nil
		}
		fmt.Fprintln(out, "Due today:")
		for _, title := range r.Titles() {
			fmt.Fprintf(out, "  - %s\n", title)
		}
		return nil
	},
}
