package sensor

import (
	"context"
	"fmt"

	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/hwmon"
	"github.com/markusressel/fanhold/internal/sensors"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

var (
	sensorId    string
	showSources bool
)

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Read a sensor once",
	Long:             `Reads all sources of a configured sensor and prints the aggregated value`,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		result, err := readSensor(sensorId)
		if err != nil {
			return err
		}

		if showSources {
			for _, reading := range result.Readings {
				if reading.Value == nil {
					fmt.Printf("%s: N/A (%s)\n", reading.Label, reading.Error)
				} else {
					fmt.Printf("%s: %.1f\n", reading.Label, *reading.Value)
				}
			}
		}

		if result.Value == nil {
			return fmt.Errorf("no source of sensor %s could be read", sensorId)
		}
		fmt.Printf("%.1f", *result.Value)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Sensor ID as specified in the config",
	)
	Command.Flags().BoolVarP(&showSources, "sources", "s", false, "Print every source reading")
	_ = Command.MarkPersistentFlagRequired("id")
}

func readSensor(id string) (sensors.Result, error) {
	_, config, err := global.LoadConfig()
	if err != nil {
		ui.FatalWithoutStacktrace("%v", err)
	}

	aggregator, err := sensors.NewAggregator(config.Sensors, sensors.DefaultDependencies(hwmon.GetChips()), config.HardwareTimeout.Std())
	if err != nil {
		return sensors.Result{}, err
	}

	availableSensorIds := maps.Keys(aggregator.Sensors())
	slices.Sort(availableSensorIds)
	if !slices.Contains(availableSensorIds, id) {
		return sensors.Result{}, fmt.Errorf("no sensor with id found: %s, options: %s", id, availableSensorIds)
	}

	// references to other sensors are only resolved when all levels are read
	results := aggregator.ReadAll(context.Background())
	return results[id], nil
}
