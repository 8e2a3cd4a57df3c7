package cmd

import (
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
)

// set at build time via -ldflags "-X github.com/markusressel/fanhold/cmd.Version=..."
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of fanhold",
	Long:  `All software has versions. This is fanhold's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Printfln(Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
