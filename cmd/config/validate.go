package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validates the current configuration",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// note: config file path parameter comes from the root command (-c)
		_, config, err := global.LoadConfig()
		if err != nil {
			ui.Error("Validation failed: %v", err)
			os.Exit(1)
		}

		ui.Success("Config looks good! :) %d sensors, %d fans, %d groups", len(config.Sensors), len(config.Fans), len(config.Groups))
		for _, group := range config.Groups {
			line := fmt.Sprintf("%s: %d profiles, fans %s", group.DisplayName(), len(group.Profiles), strings.Join(group.Fans, ", "))
			if group.Override != nil && group.Override.Enabled {
				line += fmt.Sprintf(", pinned to tier %d", group.Override.Tier)
			}
			ui.Printfln("%s", line)
		}
		return nil
	},
}

func init() {
	Command.AddCommand(validateCmd)
}
