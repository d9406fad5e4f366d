package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/config"
	httpAdapter "github.com/aretw0/geosolve/pkg/adapters/http"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal.
const shutdownTimeout = 5 * time.Second

// Serve runs the HTTP API until the context is cancelled or a signal arrives.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	streams := httpAdapter.NewStreamManager(logger)
	engine, cleanup, err := createEngine(cfg, logger,
		geosolve.WithStatusListener(streams.Publish),
		geosolve.WithRenderLoop(cfg.Viewport.FPS, cfg.Viewport.Supersample),
	)
	if err != nil {
		return err
	}
	defer cleanup()

	sigCtx := NewSignalContext(ctx)
	defer sigCtx.Cancel()

	if err := engine.Start(sigCtx); err != nil {
		return err
	}
	defer engine.Close(context.Background())

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpAdapter.NewHandler(engine.Manager(),
			httpAdapter.WithStreams(streams),
			httpAdapter.WithRenderLoop(engine.Loop()),
			httpAdapter.WithMetrics(engine.Metrics().Handler()),
			httpAdapter.WithLogger(logger),
		),
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting geosolve server", "addr", srv.Addr, "solver", cfg.Solver.URL, "definition", cfg.Definition)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-sigCtx.Done():
		logger.Info("Start shutdown", "signal", sigCtx.Signal())

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("geosolve server stopped gracefully")
		return nil
	}
}
