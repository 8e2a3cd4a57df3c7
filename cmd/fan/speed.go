package fan

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var speedCmd = &cobra.Command{
	Use:   "speed",
	Short: "Get/Set the current command of a fan, a pwm value ([0..255]) or a percentage for driver fans",
	Long:  ``,
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()
		ctx := context.Background()

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}

		if len(args) <= 0 {
			command, err := fan.GetCommand(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%d", command)
			return nil
		}

		value, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		lower, upper := fan.CommandRange()
		if value < lower || value > upper {
			return fmt.Errorf("value %d is out of range [%d..%d]", value, lower, upper)
		}
		return fan.SetCommand(ctx, value)
	},
}

func init() {
	Command.AddCommand(speedCmd)
}
