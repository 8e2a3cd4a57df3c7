package fan

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/markusressel/fanhold/internal/fans"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var modeCmd = &cobra.Command{
	Use:   "mode",
	Short: "Get/Set the current control mode of a fan",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		ctx := context.Background()

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		if len(args) > 0 {
			mode, err := parseControlMode(args[0])
			if err != nil {
				return err
			}
			if err = fan.SetControlMode(ctx, mode); err != nil {
				return err
			}
		}

		mode, err := fan.GetControlMode(ctx)
		if err != nil {
			return err
		}

		switch mode {
		case fans.ControlModeDisabled:
			fmt.Printf("No control, 100%% all the time (%d)", mode)
		case fans.ControlModePWM:
			fmt.Printf("Manual control, gives fanhold control (%d)", mode)
		case fans.ControlModeAutomatic:
			fmt.Printf("Automatic control by integrated hardware or driver (%d)", mode)
		default:
			fmt.Printf("Unknown (%d)", mode)
		}
		return nil
	},
}

func parseControlMode(arg string) (fans.ControlMode, error) {
	argAsInt, err := strconv.Atoi(arg)
	if err != nil {
		switch strings.ToLower(arg) {
		case "auto":
			return fans.ControlModeAutomatic, nil
		case "pwm", "manual":
			return fans.ControlModePWM, nil
		case "disabled":
			return fans.ControlModeDisabled, nil
		}
		return 0, fmt.Errorf("unknown mode: %s, must be an integer in (0..2) or one of: 'auto', 'pwm', 'disabled'", arg)
	}

	mode := fans.ControlMode(argAsInt)
	switch mode {
	case fans.ControlModeAutomatic, fans.ControlModePWM, fans.ControlModeDisabled:
		return mode, nil
	}
	return 0, fmt.Errorf("unknown mode: %d, must be an integer in (0..2) or one of: 'auto', 'pwm', 'disabled'", argAsInt)
}

func init() {
	Command.AddCommand(modeCmd)
}
