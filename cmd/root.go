package cmd

import (
	"fmt"
	"os"

	"github.com/markusressel/fanhold/cmd/config"
	"github.com/markusressel/fanhold/cmd/fan"
	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/cmd/override"
	"github.com/markusressel/fanhold/cmd/sensor"
	"github.com/markusressel/fanhold/internal"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fanhold",
	Short: "A daemon that keeps fans at stable speed tiers.",
	Long: `fanhold controls groups of fans based on temperature sensors.
Each group runs at one of a few fixed speed profiles and only switches
between them after a configurable delay, so fan noise does not follow
every short temperature spike.`,
	// this is the default command to run when no subcommand is specified
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		printHeader()

		store, config, err := global.LoadConfig()
		if err != nil {
			ui.ErrorAndNotify("Config Validation Error", err.Error())
			os.Exit(1)
		}

		if err = internal.RunDaemon(store, config); err != nil {
			ui.Error("%v", err)
			os.Exit(1)
		}
		ui.Info("Done.")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is /etc/fanhold/fanhold.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(config.Command)
	rootCmd.AddCommand(fan.Command)
	rootCmd.AddCommand(sensor.Command)
	rootCmd.AddCommand(override.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("fan", pterm.NewStyle(pterm.FgLightBlue)),
		pterm.NewLettersFromStringWithStyle("hold", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("fanhold")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		setupUi()
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
