package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/appdeck/internal/compute"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number and compute backend",
	Run: func(cmd *cobra.Command, _ []string) {
		_, info := compute.Probe(compute.ModeAuto)
		fmt.Fprintf(cmd.OutOrStdout(), "appdeck version %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "compute: %s (%s)\n", info.Backend, info.Features)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
