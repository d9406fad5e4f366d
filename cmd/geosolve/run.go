package main

import (
	"os"

	"github.com/aretw0/geosolve/internal/cli"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Solve one model file",
	Long:  `Uploads a model file, solves it with the configured definition and prints the outcome.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sets, _ := cmd.Flags().GetStringArray("set")
		export, _ := cmd.Flags().GetBool("export")
		frame, _ := cmd.Flags().GetString("frame")
		quiet, _ := cmd.Flags().GetBool("quiet")
		if cmd.Flags().Changed("export-dir") {
			cfg.ExportDir, _ = cmd.Flags().GetString("export-dir")
		}

		return cli.Run(cmd.Context(), cli.RunOptions{
			Config: cfg,
			File:   args[0],
			Sets:   sets,
			Export: export,
			Frame:  frame,
			Quiet:  quiet,
			Out:    os.Stdout,
		}, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArray("set", nil, "Control value as id=value (repeatable)")
	runCmd.Flags().BoolP("export", "e", false, "Export the result")
	runCmd.Flags().String("export-dir", "", "Directory exports are written to")
	runCmd.Flags().String("frame", "", "Write a PNG frame of the scene to this path")
	runCmd.Flags().BoolP("quiet", "q", false, "Print nothing on success")
}
