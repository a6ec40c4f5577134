package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/felixgeelhaar/taskboard/internal/tracker/application/queries"
)

// RegisterResources registers the read-only task resources.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if err := deps.validate(); err != nil {
		return err
	}

	srv.Resource("taskboard://tasks").
		Name("Tasks").
		Description("All tasks in store order").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := deps.ListTasks.Handle(ctx, queries.ListTasksQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("taskboard://tasks/due-today").
		Name("Due today").
		Description("Open tasks whose deadline is today").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			tasks, err := deps.DueToday.Handle(ctx, queries.DueTodayQuery{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
