// Package mcp runs the MCP server over the application container.
package mcp

import (
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"

	mcplocal "github.com/felixgeelhaar/taskboard/adapter/mcp"
	"github.com/felixgeelhaar/taskboard/internal/app"
)

const serverName = "taskboard-mcp"

// ToolDependencies picks the tool handlers out of the container.
func ToolDependencies(c *app.Container) mcplocal.ToolDependencies {
	return mcplocal.ToolDependencies{
		CreateTask:       c.CreateTaskHandler,
		UpdateTaskStatus: c.UpdateTaskStatusHandler,
		DeleteTask:       c.DeleteTaskHandler,
		ListTasks:        c.ListTasksHandler,
		DueToday:         c.DueTodayHandler,
	}
}

// NewServer registers the task tools and resources on a fresh server.
// Missing tool handlers are an error. A resource that fails to register is
// only logged, since the tools alone cover every operation.
func NewServer(deps mcplocal.ToolDependencies, version string, logger *slog.Logger) (*mcpgo.Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if version == "" {
		version = "dev"
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:         serverName,
		Version:      version,
		Capabilities: mcpgo.Capabilities{Tools: true, Resources: true},
	})
	if err := mcplocal.RegisterTools(srv, deps); err != nil {
		return nil, err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("mcp resources unavailable", "error", err)
	}
	return srv, nil
}
