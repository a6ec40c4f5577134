// Package observability provides structured logging, metrics, health checks
// and request correlation for taskboard processes.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogConfig configures NewLogger.
type LogConfig struct {
	Level   string // debug, info, warn or error
	Format  string // text or json
	Output  io.Writer
	Source  bool
	Service string
	Version string
}

// LogConfigFor returns the settings for an environment. Production logs
// JSON to stdout with source locations, everything else logs text to stderr.
func LogConfigFor(env string) LogConfig {
	if env == "production" {
		return LogConfig{Level: "info", Format: "json", Output: os.Stdout, Source: true, Service: "taskboard"}
	}
	return LogConfig{Level: "info", Format: "text", Output: os.Stderr, Service: "taskboard", Version: "dev"}
}

// NewLogger builds a logger that stamps every record with the service and
// with the request and correlation ids found in the context.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level), AddSource: cfg.Source}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}

	var attrs []slog.Attr
	if cfg.Service != "" {
		attrs = append(attrs, slog.String("service", cfg.Service))
	}
	if cfg.Version != "" {
		attrs = append(attrs, slog.String("version", cfg.Version))
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}
	return slog.New(contextHandler{Handler: h})
}

// LoggerFor builds a logger from loaded configuration values. Empty values
// keep the environment's defaults.
func LoggerFor(env, level, format, version string) *slog.Logger {
	cfg := LogConfigFor(env)
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}
	if version != "" {
		cfg.Version = version
	}
	return NewLogger(cfg)
}

// LoggerFromEnv is LoggerFor over APP_ENV, LOG_LEVEL and LOG_FORMAT. It is
// used before the configuration file has been read.
func LoggerFromEnv() *slog.Logger {
	return LoggerFor(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), "")
}

// ParseLevel maps a level name to slog. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler adds the ids carried by the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if ids, ok := ctx.Value(idsKey{}).(requestIDs); ok {
		if ids.correlation != "" {
			r.AddAttrs(slog.String(CorrelationIDKey, ids.correlation))
		}
		if ids.request != "" {
			r.AddAttrs(slog.String(RequestIDKey, ids.request))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
