package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/config"
	"github.com/aretw0/geosolve/pkg/adapters/file"
	"github.com/aretw0/geosolve/pkg/adapters/redis"
	backend "github.com/redis/go-redis/v9"
)

// redisPrefix namespaces every key the service writes.
const redisPrefix = "geosolve:"

// createEngine initializes an engine from the configuration. The returned
// cleanup releases external connections and must be called after Close.
func createEngine(cfg *config.Config, logger *slog.Logger, extra ...geosolve.Option) (*geosolve.Engine, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	table, err := cfg.ClassificationTable()
	if err != nil {
		return nil, nil, err
	}
	preset, err := cfg.StylePreset()
	if err != nil {
		return nil, nil, err
	}

	opts := []geosolve.Option{
		geosolve.WithLogger(logger),
		geosolve.WithDefinition(cfg.Definition),
		geosolve.WithTable(table),
		geosolve.WithStyles(preset.Styles, preset.Background),
		geosolve.WithControls(cfg.Controls),
		geosolve.WithViewportSize(cfg.Viewport.Width, cfg.Viewport.Height),
		geosolve.WithSolverTimeout(cfg.Solver.Timeout),
		geosolve.WithSolvePath(cfg.Solver.Path),
	}

	cleanup := func() {}
	if cfg.Server.RedisURL != "" {
		redisOpts, err := backend.ParseURL(cfg.Server.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid redis url: %w", err)
		}
		client := backend.NewClient(redisOpts)
		cleanup = func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", "err", err)
			}
		}
		opts = append(opts,
			geosolve.WithLocker(redis.NewLocker(client, redisPrefix)),
			geosolve.WithArtifactStore(redis.NewFromClient(client, redis.WithPrefix(redisPrefix+"artifact:"))),
		)
		logger.Info("Using redis for locks and exports", "addr", redisOpts.Addr)
	} else {
		opts = append(opts, geosolve.WithArtifactStore(file.New(cfg.ExportDir)))
	}

	engine, err := geosolve.New(cfg.Solver.URL, append(opts, extra...)...)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, cleanup, nil
}
