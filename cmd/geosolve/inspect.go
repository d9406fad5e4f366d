package main

import (
	"os"

	"github.com/aretw0/geosolve/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Classify a model file without solving it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		format := cli.FormatMarkdown
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			format = cli.FormatJSON
		}
		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			format = cli.FormatMermaid
		}
		return cli.Inspect(cfg, args[0], format, os.Stdout, logger)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("json", false, "Print the report as JSON")
	inspectCmd.Flags().Bool("graph", false, "Print the classification flow as a Mermaid diagram")
}
