package task

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/pkg/taskclient"
)

var (
	description string
	deadline    string
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Create a new task",
	Long: `Create a new task with a title and optional description and deadline.

Examples:
  taskboard task add "Buy milk"
  taskboard task add "Pay rent" --deadline 2024-04-01
  taskboard task add "Call Bob" --description "about lunch"`,
	Aliases: []string{"create"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := client()
		if err != nil {
			return err
		}

		created, err := c.Create(cmd.Context(), taskclient.NewTask{
			Title:       args[0],
			Description: description,
			Deadline:    deadline,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task created: %d\n", created.ID)
		fmt.Fprintf(out, "  title: %s\n", created.Title)
		if created.Deadline != "" {
			fmt.Fprintf(out, "  deadline: %s\n", created.Deadline)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	addCmd.Flags().StringVar(&deadline, "deadline", "", "deadline (YYYY-MM-DD)")
}
