package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/markusressel/fanhold/cmd/global"
	"github.com/markusressel/fanhold/internal/hwmon"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all fans and sensors and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		chips := hwmon.GetChips()

		for _, chip := range chips {
			if len(chip.Name) <= 0 {
				continue
			}
			if len(chip.Fans) <= 0 && len(chip.Temps) <= 0 {
				continue
			}

			ui.Printfln("> %s (platform: %s)", chip.Name, chip.Platform)

			tables := []table.Table{
				inputTable("Fans   ", "RPM", chip.Fans),
				inputTable("Sensors", "Value", chip.Temps),
			}

			for idx, t := range tables {
				if t.Rows == nil {
					continue
				}
				var buf bytes.Buffer
				tableErr := t.WriteTable(&buf, global.TableConfig())
				if tableErr != nil {
					ui.Fatal("Error printing table: %v", tableErr)
				}
				tableString := buf.String()
				if idx < (len(tables) - 1) {
					ui.Printf(tableString)
				} else {
					ui.Printfln(tableString)
				}
			}
		}
	},
}

func inputTable(title string, valueHeader string, inputs []hwmon.Input) table.Table {
	sorted := make([]hwmon.Input, len(inputs))
	copy(sorted, inputs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Index < sorted[j].Index
	})

	var rows [][]string
	for _, input := range sorted {
		_, file := filepath.Split(input.Path)
		rows = append(rows, []string{
			"", fmt.Sprintf("%d", input.Index), fmt.Sprintf("%s (%s)", input.Label, file), fmt.Sprintf("%.0f", input.Value),
		})
	}
	return table.Table{
		Headers: []string{title, "Index", "Label", valueHeader},
		Rows:    rows,
	}
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
