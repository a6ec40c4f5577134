package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/taskboard/adapter/api"
	"github.com/felixgeelhaar/taskboard/internal/app"
	mcpinternal "github.com/felixgeelhaar/taskboard/internal/mcp"
)

const shutdownTimeout = 10 * time.Second

var (
	serveMCP      bool
	serveActivity bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task store",
	Long: `Run the task store HTTP service.

Routes:
  GET    /tasks        list all tasks
  POST   /tasks        create a task
  PUT    /tasks/{id}   set the completed flag
  DELETE /tasks/{id}   delete a task
  GET    /tasks.ics    export tasks as iCalendar to-dos
  GET    /health       health of the store and event bus
  GET    /metrics      request and command metrics

Examples:
  taskboard serve
  taskboard serve --mcp --activity`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := GetApp()
		if err != nil {
			return err
		}
		if serveMCP && a.Config.IsProduction() && a.Config.MCPAuthToken == "" {
			return errors.New("--mcp in production requires MCP_AUTH_TOKEN")
		}
		ctx := cmd.Context()

		container, err := app.NewContainer(ctx, a.Config, a.Logger)
		if err != nil {
			return err
		}
		defer container.Close()

		if serveActivity && !container.Subscribe(cmd.OutOrStdout()) {
			a.Logger.Warn("events go to RabbitMQ; use 'taskboard events tail' to follow them")
		}

		server := NewAPIServer(container)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			a.Logger.Info("task store listening", "addr", a.Config.HTTPAddr, "store", container.Store.Kind)
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			a.Logger.Info("shutting down task store")
			return server.Shutdown(shutdownCtx)
		})
		if serveMCP {
			g.Go(func() error {
				err := mcpinternal.Serve(ctx, a.Config, mcpinternal.ToolDependencies(container), Version, a.Logger)
				if err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		}
		return g.Wait()
	},
}

// NewAPIServer builds the HTTP task store over a container's handlers.
func NewAPIServer(container *app.Container) *api.Server {
	cfg := container.Config
	handler := api.NewTaskHandler(api.TaskHandlerConfig{
		CreateTask:       container.CreateTaskHandler,
		UpdateTaskStatus: container.UpdateTaskStatusHandler,
		DeleteTask:       container.DeleteTaskHandler,
		ListTasks:        container.ListTasksHandler,
		Logger:           container.Logger,
	})
	return api.NewServer(api.ServerConfig{
		Addr:           cfg.HTTPAddr,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, handler, container.Health, container.Metrics, container.Logger)
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "also serve the MCP interface on the configured MCP address")
	serveCmd.Flags().BoolVar(&serveActivity, "activity", false, "print task events to stdout")
	rootCmd.AddCommand(serveCmd)
}
