package override

import (
	"context"

	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/api"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
)

var (
	groupId string
	tier    int
	persist bool
)

var Command = &cobra.Command{
	Use:              "override",
	Short:            "Pin a group of a running daemon to a fixed tier",
	Long:             ``,
	TraverseChildren: true,
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Pin a group to the given tier",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := global.ApiClient().SetOverride(context.Background(), api.OverrideRequest{
			Group:   groupId,
			Enabled: true,
			Tier:    tier,
			Persist: persist,
		})
		if err != nil {
			return err
		}
		ui.Success("Group %s is pinned to tier %d", groupId, tier)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Hand a group back to automatic tier selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := global.ApiClient().ClearOverride(context.Background(), groupId); err != nil {
			return err
		}
		ui.Success("Group %s is back in automatic mode", groupId)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&groupId,
		"group", "g",
		"",
		"Group ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("group")

	setCmd.Flags().IntVarP(&tier, "tier", "t", 0, "Tier to pin the group to, 0 is the idle profile")
	setCmd.Flags().BoolVarP(&persist, "persist", "p", false, "Write the override to the configuration file")
	_ = setCmd.MarkFlagRequired("tier")

	Command.AddCommand(setCmd)
	Command.AddCommand(clearCmd)
}
