package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/geosolve"
	"github.com/aretw0/geosolve/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of geosolve",
	Run: func(cmd *cobra.Command, args []string) {
		if banner, _ := cmd.Flags().GetBool("banner"); banner {
			tui.PrintBanner(cmd.OutOrStdout(), geosolve.Version)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "geosolve version %s\n", strings.TrimSpace(geosolve.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("banner", false, "Print the banner")
}
