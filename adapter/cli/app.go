package cli

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/felixgeelhaar/taskboard/internal/board"
	"github.com/felixgeelhaar/taskboard/internal/shared/infrastructure/convert"
	"github.com/felixgeelhaar/taskboard/pkg/config"
	"github.com/felixgeelhaar/taskboard/pkg/observability"
	"github.com/felixgeelhaar/taskboard/pkg/taskclient"
)

// App holds the CLI application dependencies.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	clientOnce sync.Once
	client     *taskclient.Client
	clientErr  error
}

// NewApp creates a CLI application over cfg.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NoopMetrics{},
	}
}

// Client returns the task store client. It is built on first use.
func (a *App) Client() (*taskclient.Client, error) {
	a.clientOnce.Do(func() {
		cfg := a.Config
		maxFailures, err := convert.IntToUint32(cfg.BreakerMaxFailures)
		if err != nil {
			a.clientErr = fmt.Errorf("breaker_max_failures: %w", err)
			return
		}
		a.client, a.clientErr = taskclient.New(cfg.APIURL,
			taskclient.WithHTTPClient(&http.Client{Timeout: cfg.ClientTimeout}),
			taskclient.WithBreakerSettings(taskclient.BreakerSettings{
				MaxFailures: maxFailures,
				Timeout:     cfg.BreakerTimeout,
			}),
			taskclient.WithLogger(a.Logger),
			taskclient.WithMetrics(a.Metrics),
		)
	})
	return a.client, a.clientErr
}

// Board returns a new, empty board over the task store client.
func (a *App) Board() (*board.Board, error) {
	client, err := a.Client()
	if err != nil {
		return nil, err
	}
	loc, err := a.Config.Location()
	if err != nil {
		return nil, err
	}
	return board.New(client,
		board.WithLogger(a.Logger),
		board.WithLocation(loc),
	), nil
}

// currentApp is the global CLI application instance
var (
	appMu      sync.Mutex
	currentApp *App
)

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	appMu.Lock()
	defer appMu.Unlock()
	currentApp = a
}

// GetApp returns the global CLI application instance. When none was set it
// loads configuration honoring the --config and --api-url flags.
func GetApp() (*App, error) {
	appMu.Lock()
	defer appMu.Unlock()
	if currentApp != nil {
		return currentApp, nil
	}

	cfg, err := config.LoadFrom(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	currentApp = NewApp(cfg, Logger())
	return currentApp, nil
}
