package cmd

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/history"
	"github.com/markusressel/fanhold/internal/persistence"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
)

var (
	historyRange  string
	historySensor string
	historyGroup  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Plot the recorded history of a running daemon",
	Long:  `Plots sensor values, or the tier of a single group, over the given time range`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := history.ParseRange(historyRange); err != nil {
			return err
		}

		samples, err := global.ApiClient().History(context.Background(), historyRange)
		if err != nil {
			return err
		}
		if len(samples) <= 0 {
			ui.Warning("No samples recorded in the last %s", historyRange)
			return nil
		}

		if len(historyGroup) > 0 {
			values := make([]float64, 0, len(samples))
			for _, sample := range samples {
				tier, ok := sample.Groups[historyGroup]
				if !ok {
					values = append(values, math.NaN())
					continue
				}
				values = append(values, float64(tier))
			}
			ui.Printfln(asciigraph.Plot(values,
				asciigraph.Height(10), asciigraph.Width(100), asciigraph.Precision(0),
				asciigraph.Caption(fmt.Sprintf("Tier of %s (%s)", historyGroup, historyRange)),
			))
			return nil
		}

		sensorIds := sensorIdsOf(samples)
		if len(historySensor) > 0 {
			sensorIds = []string{historySensor}
		}

		var series [][]float64
		for _, id := range sensorIds {
			values := make([]float64, 0, len(samples))
			for _, sample := range samples {
				value := sample.Sensors[id]
				if value == nil {
					values = append(values, math.NaN())
					continue
				}
				values = append(values, *value)
			}
			series = append(series, values)
		}

		ui.Printfln(asciigraph.PlotMany(series,
			asciigraph.Height(15), asciigraph.Width(100),
			asciigraph.SeriesLegends(sensorIds...),
			asciigraph.Caption(fmt.Sprintf("Sensors (%s)", historyRange)),
		))
		return nil
	},
}

func sensorIdsOf(samples []persistence.Sample) []string {
	ids := map[string]bool{}
	for _, sample := range samples {
		for _, id := range maps.Keys(sample.Sensors) {
			ids[id] = true
		}
	}
	result := maps.Keys(ids)
	sort.Strings(result)
	return result
}

func init() {
	historyCmd.Flags().StringVarP(&historyRange, "range", "r", "1h", "Time range: "+strings.Join(history.RangeNames, " | "))
	historyCmd.Flags().StringVarP(&historySensor, "sensor", "s", "", "Only plot the sensor with this id")
	historyCmd.Flags().StringVarP(&historyGroup, "group", "g", "", "Plot the tier of the group with this id")
	rootCmd.AddCommand(historyCmd)
}
