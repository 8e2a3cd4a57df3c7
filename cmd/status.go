package cmd

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/controller"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/hysteresis"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var showChanges bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the state of a running daemon",
	Long:  `Queries the api of a running fanhold daemon and prints all groups, fans and sensors`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := global.ApiClient()
		snapshot, err := client.Status(context.Background())
		if err != nil {
			return err
		}

		tables := []table.Table{groupTable(snapshot), fanTable(snapshot), sensorTable(snapshot)}
		for _, t := range tables {
			var buf bytes.Buffer
			if err := t.WriteTable(&buf, global.TableConfig()); err != nil {
				return err
			}
			ui.Printfln(buf.String())
		}

		if showChanges {
			changes, err := client.Changes(context.Background())
			if err != nil {
				return err
			}
			for _, change := range changes {
				ui.Printfln("%s %s", change.Time.Format("2006-01-02 15:04:05"), change.String())
			}
		}
		return nil
	},
}

func groupTable(snapshot *engine.Snapshot) table.Table {
	var rows [][]string
	for _, group := range snapshot.Groups {
		rows = append(rows, []string{
			group.Name,
			strconv.Itoa(group.CommittedTier),
			group.Profile,
			strconv.Itoa(group.Target),
			strconv.Itoa(group.DemandedTier),
			colorizeGroupStatus(group),
		})
	}
	return table.Table{
		Headers: []string{"Group", "Tier", "Profile", "Target", "Demanded", "Status"},
		Rows:    rows,
	}
}

func colorizeGroupStatus(group engine.GroupSnapshot) string {
	switch group.Status.Kind {
	case hysteresis.KindManual:
		return global.Colorize(group.StatusText, "magenta+b")
	case hysteresis.KindPendingUp, hysteresis.KindEscalated:
		return global.Colorize(group.StatusText, "yellow")
	case hysteresis.KindLocked:
		return global.Colorize(group.StatusText, "cyan")
	default:
		return group.StatusText
	}
}

func fanTable(snapshot *engine.Snapshot) table.Table {
	var rows [][]string
	for _, fan := range snapshot.Fans {
		target := strconv.Itoa(fan.Target)
		if fan.Auto {
			target = "auto"
		}
		rows = append(rows, []string{
			fan.Name,
			fan.Group,
			formatInt(fan.MeasuredSpeed),
			formatInt(fan.Command),
			target,
			colorizeFanStatus(fan.Status),
			fan.Error,
		})
	}
	return table.Table{
		Headers: []string{"Fan", "Group", "Speed", "Command", "Target", "Status", "Error"},
		Rows:    rows,
	}
}

func colorizeFanStatus(status controller.FanStatus) string {
	switch status {
	case controller.FanStatusOk:
		return global.Colorize(string(status), "green")
	case controller.FanStatusAdjusting:
		return global.Colorize(string(status), "yellow")
	default:
		return global.Colorize(string(status), "red+b")
	}
}

func sensorTable(snapshot *engine.Snapshot) table.Table {
	var rows [][]string
	for _, sensor := range snapshot.Sensors {
		var sources []string
		for _, reading := range sensor.Sources {
			sources = append(sources, fmt.Sprintf("%s=%s", reading.Label, formatFloat(reading.Value)))
		}
		rows = append(rows, []string{
			sensor.Name,
			formatFloat(sensor.Value),
			strings.Join(sources, " "),
		})
	}
	return table.Table{
		Headers: []string{"Sensor", "Value", "Sources"},
		Rows:    rows,
	}
}

func formatInt(value *int) string {
	if value == nil {
		return "N/A"
	}
	return strconv.Itoa(*value)
}

func formatFloat(value *float64) string {
	if value == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *value)
}

func init() {
	statusCmd.Flags().BoolVarP(&showChanges, "changes", "", false, "Also print the recent tier changes")
	rootCmd.AddCommand(statusCmd)
}
