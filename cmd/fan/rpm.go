package fan

import (
	"context"
	"fmt"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/fans"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rpmCmd = &cobra.Command{
	Use:   "rpm",
	Short: "Get the current speed reading of a fan",
	Long:  `Prints the rpm of a pwm fan. Driver fans report their speed in percent, followed by the rpm if the driver knows it.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		speed, err := fan.GetSpeed(context.Background())
		if err != nil {
			return err
		}
		fmt.Print(formatSpeed(fan.GetKind(), speed))
		return nil
	},
}

func formatSpeed(kind configuration.FanKind, speed fans.Speed) string {
	if kind != configuration.FanKindDriver {
		return fmt.Sprintf("%d", speed.Rpm)
	}
	if speed.Rpm > 0 {
		return fmt.Sprintf("%d%% (%d rpm)", speed.Value, speed.Rpm)
	}
	return fmt.Sprintf("%d%%", speed.Value)
}

func init() {
	Command.AddCommand(rpmCmd)
}
