package mcp

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/taskboard/adapter/cli"
	"github.com/felixgeelhaar/taskboard/internal/app"
	mcpinternal "github.com/felixgeelhaar/taskboard/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the MCP server on the configured MCP address.

The server opens the task store directly. Set MCP_AUTH_TOKEN to
require a bearer token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := cli.GetApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		container, err := app.NewContainer(ctx, a.Config, a.Logger)
		if err != nil {
			return err
		}
		defer container.Close()

		err = mcpinternal.Serve(ctx, a.Config, mcpinternal.ToolDependencies(container), cli.Version, a.Logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
