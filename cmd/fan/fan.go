package fan

import (
	"fmt"

	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/fans"
	"github.com/markusressel/fanhold/internal/hwmon"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
)

var fanId string

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&fanId,
		"id", "i",
		"",
		"Fan ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getFan(id string) (fans.Fan, error) {
	_, config, err := global.LoadConfig()
	if err != nil {
		ui.Fatal(err.Error())
	}

	fanConfig := config.FindFan(id)
	if fanConfig == nil {
		var availableFanIds []string
		for _, f := range config.Fans {
			availableFanIds = append(availableFanIds, f.ID)
		}
		return nil, fmt.Errorf("no fan with id found: %s, options: %s", id, availableFanIds)
	}

	var chips []*hwmon.Chip
	if fanConfig.HwMon != nil {
		chips = hwmon.GetChips()
	}
	return fans.NewFan(*fanConfig, chips)
}
