package main

import (
	"os"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/cli"
	"github.com/aretw0/geosolve/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves sessions over HTTP: uploads, control changes, scene frames, status events and downloads.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("redis") {
			cfg.Server.RedisURL, _ = cmd.Flags().GetString("redis")
		}
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, geosolve.Version)
		}
		return cli.Serve(cmd.Context(), cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
	serveCmd.Flags().String("redis", "", "Redis URL for shared locks and exports")
}
