package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/geosolve/internal/config"
	"github.com/aretw0/geosolve/pkg/adapters/mcp"
)

// ServeMCP exposes the engine as MCP tools over stdio or SSE.
func ServeMCP(ctx context.Context, cfg *config.Config, transport string, port int, logger *slog.Logger) error {
	engine, cleanup, err := createEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()
	defer engine.Close(context.Background())

	srv := mcp.NewServer(engine, mcp.WithLogger(logger))

	switch transport {
	case "stdio":
		logger.Info("Starting geosolve MCP Server (Stdio)")
		return srv.ServeStdio()
	case "sse":
		sigCtx := NewSignalContext(ctx)
		defer sigCtx.Cancel()
		logger.Info("Starting geosolve MCP Server (SSE)", "port", port)
		if err := srv.ServeSSE(sigCtx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		logger.Info("MCP Server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport %q, supported: stdio, sse", transport)
	}
}
