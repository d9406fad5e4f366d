package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/geosolve/internal/cli"
	"github.com/aretw0/geosolve/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "geosolve",
	Short: "geosolve sends 3D models to a remote parametric solver",
	Long: `geosolve uploads a model file to a remote solver, decodes the returned geometry
into a scene and exports the result. It runs once from the command line, as an
HTTP service with live viewports, or as an MCP server.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Configuration file (default "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().String("solver", "", "Solver base URL")
	rootCmd.PersistentFlags().String("definition", "", "Remote definition to solve")
	rootCmd.PersistentFlags().String("preset", "", "Classification and style preset")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
}

// loadConfig reads the configuration and applies the flags that were set.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	overrides := map[string]*string{
		"solver":     &cfg.Solver.URL,
		"definition": &cfg.Definition,
		"preset":     &cfg.Preset,
		"log-level":  &cfg.LogLevel,
		"log-format": &cfg.LogFormat,
	}
	for name, dst := range overrides {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}

	logger, err := cli.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
