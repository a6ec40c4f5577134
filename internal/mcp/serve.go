package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"

	mcplocal "github.com/felixgeelhaar/taskboard/adapter/mcp"
	"github.com/felixgeelhaar/taskboard/pkg/config"
)

// Serve exposes the tools over HTTP on cfg.MCPAddr until ctx is canceled.
// With cfg.MCPAuthToken set every request needs that bearer token.
func Serve(ctx context.Context, cfg *config.Config, deps mcplocal.ToolDependencies, version string, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("mcp: config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv, err := NewServer(deps, version, logger)
	if err != nil {
		return err
	}

	logger.Info("mcp server listening", "addr", cfg.MCPAddr, "auth", cfg.MCPAuthToken != "")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil,
		mcpgo.WithMiddleware(middlewareStack(cfg.MCPAuthToken, logger)...))
}

func middlewareStack(token string, logger *slog.Logger) []middleware.Middleware {
	log := slogFields{logger: logger}
	stack := middleware.DefaultStack(log)
	if token == "" {
		logger.Warn("MCP_AUTH_TOKEN not set, mcp requests are unauthenticated")
		return stack
	}
	auth := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		token: {ID: "taskboard", Name: "taskboard"},
	}))
	return append([]middleware.Middleware{middleware.Auth(auth, middleware.WithAuthLogger(log))}, stack...)
}

// slogFields feeds middleware log lines into slog.
type slogFields struct {
	logger *slog.Logger
}

func (l slogFields) emit(level slog.Level, msg string, fields []middleware.Field) {
	attrs := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		attrs = append(attrs, f.Key, f.Value)
	}
	l.logger.Log(context.Background(), level, msg, attrs...)
}

func (l slogFields) Debug(msg string, fields ...middleware.Field) {
	l.emit(slog.LevelDebug, msg, fields)
}
func (l slogFields) Info(msg string, fields ...middleware.Field) { l.emit(slog.LevelInfo, msg, fields) }
func (l slogFields) Warn(msg string, fields ...middleware.Field) { l.emit(slog.LevelWarn, msg, fields) }
func (l slogFields) Error(msg string, fields ...middleware.Field) {
	l.emit(slog.LevelError, msg, fields)
}
