package configuration

import (
	"errors"
	"fmt"
	"strings"

	"github.com/looplab/tarjan"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/markusressel/fanhold/internal/util"
	"golang.org/x/exp/slices"
)

const (
	MaxDriverPercent = 100
)

// Validate checks the configuration for inconsistencies. configPath is only used to
// check the permissions of the configuration file if it references executables.
func Validate(config *Configuration, configPath string) error {
	if err := validateGeneral(config); err != nil {
		return err
	}
	if err := validateSensors(config); err != nil {
		return err
	}
	if err := validateFans(config); err != nil {
		return err
	}
	if err := validateGroups(config); err != nil {
		return err
	}

	if len(configPath) > 0 && containsCmdSources(config) {
		if _, err := util.CheckFilePermissionsForExecution(configPath); err != nil {
			return fmt.Errorf("config file '%s' has invalid permissions: %w", configPath, err)
		}
	}

	return nil
}

func validateGeneral(config *Configuration) error {
	if config.TickRate <= 0 {
		return errors.New("tickRate must be > 0")
	}
	if config.HardwareTimeout <= 0 {
		return errors.New("hardwareTimeout must be > 0")
	}
	if config.Controller.Tolerance < 0 {
		return errors.New("controller: tolerance must be >= 0")
	}
	if config.Controller.Step <= 0 {
		return errors.New("controller: step must be >= 1")
	}
	if config.Controller.LargeError < config.Controller.Tolerance {
		return errors.New("controller: largeError must be >= tolerance")
	}
	if config.History.Enabled && config.History.Interval <= 0 {
		return errors.New("history: interval must be > 0")
	}
	return nil
}

func containsCmdSources(config *Configuration) bool {
	for _, sensorConfig := range config.Sensors {
		for _, source := range sensorConfig.Sources {
			if source.Cmd != nil {
				return true
			}
		}
	}
	return false
}

func validateSensors(config *Configuration) error {
	var ids []string
	graph := make(map[interface{}][]interface{})

	for _, sensorConfig := range config.Sensors {
		if len(sensorConfig.ID) <= 0 {
			return errors.New("sensor: missing id")
		}
		if slices.Contains(ids, sensorConfig.ID) {
			return fmt.Errorf("duplicate sensor id detected: %s", sensorConfig.ID)
		}
		ids = append(ids, sensorConfig.ID)

		supportedAggregations := []string{"", AggregationMax, AggregationMin, AggregationAverage}
		if !slices.Contains(supportedAggregations, sensorConfig.Aggregation) {
			return fmt.Errorf("sensor %s: unsupported aggregation '%s', use one of: %s", sensorConfig.ID, sensorConfig.Aggregation, strings.Join(supportedAggregations[1:], " | "))
		}

		if len(sensorConfig.Sources) <= 0 {
			return fmt.Errorf("sensor %s: at least one source is required", sensorConfig.ID)
		}

		var connections []interface{}
		for i, source := range sensorConfig.Sources {
			if err := validateSource(source); err != nil {
				return fmt.Errorf("sensor %s: source %d: %w", sensorConfig.ID, i+1, err)
			}
			if source.Sensor != nil {
				if source.Sensor.ID == sensorConfig.ID {
					return fmt.Errorf("sensor %s: a sensor cannot reference itself", sensorConfig.ID)
				}
				if config.FindSensor(source.Sensor.ID) == nil {
					return fmt.Errorf("sensor %s: no sensor definition with id '%s' found", sensorConfig.ID, source.Sensor.ID)
				}
				connections = append(connections, source.Sensor.ID)
			}
		}
		graph[sensorConfig.ID] = connections

		if !isSensorInUse(sensorConfig.ID, config) {
			ui.Warning("Unused sensor configuration: %s", sensorConfig.ID)
		}
	}

	return validateNoLoops(graph)
}

func validateSource(source SourceConfig) error {
	subConfigs := 0
	for _, present := range []bool{
		source.HwMon != nil, source.File != nil, source.Cmd != nil, source.Nvidia != nil,
		source.Disk != nil, source.Mdstat != nil, source.Sensor != nil,
	} {
		if present {
			subConfigs++
		}
	}
	if subConfigs > 1 {
		return errors.New("only one source type can be used per source definition block")
	}
	if subConfigs <= 0 {
		return errors.New("sub-configuration for source is missing, use one of: hwmon | file | cmd | nvidia | disk | mdstat | sensor")
	}

	switch {
	case source.HwMon != nil:
		if source.HwMon.Index <= 0 {
			return errors.New("invalid hwmon index, must be >= 1")
		}
	case source.File != nil:
		if len(source.File.Path) <= 0 {
			return errors.New("no file path provided")
		}
	case source.Cmd != nil:
		if len(source.Cmd.Exec) <= 0 {
			return errors.New("executable is missing")
		}
	case source.Nvidia != nil:
		if source.Nvidia.Gpu < 0 {
			return errors.New("invalid gpu index, must be >= 0")
		}
	case source.Disk != nil:
		if len(source.Disk.Device) <= 0 {
			return errors.New("no disk device provided")
		}
	case source.Sensor != nil:
		if len(source.Sensor.ID) <= 0 {
			return errors.New("missing sensor id")
		}
	}
	return nil
}

func isSensorInUse(sensorId string, config *Configuration) bool {
	for _, group := range config.Groups {
		if slices.Contains(group.TempSources, sensorId) {
			return true
		}
	}
	for _, sensor := range config.Sensors {
		for _, source := range sensor.Sources {
			if source.Sensor != nil && source.Sensor.ID == sensorId {
				return true
			}
		}
	}
	return false
}

func validateNoLoops(graph map[interface{}][]interface{}) error {
	output := tarjan.Connections(graph)
	for _, items := range output {
		if len(items) > 1 {
			return fmt.Errorf("you have created a sensor dependency cycle: %v", items)
		}
	}
	return nil
}

func validateFans(config *Configuration) error {
	var ids []string
	for _, fanConfig := range config.Fans {
		if len(fanConfig.ID) <= 0 {
			return errors.New("fan: missing id")
		}
		if slices.Contains(ids, fanConfig.ID) {
			return fmt.Errorf("duplicate fan id detected: %s", fanConfig.ID)
		}
		ids = append(ids, fanConfig.ID)

		subConfigs := 0
		if fanConfig.HwMon != nil {
			subConfigs++
		}
		if fanConfig.File != nil {
			subConfigs++
		}
		if fanConfig.Nvidia != nil {
			subConfigs++
		}
		if subConfigs > 1 {
			return fmt.Errorf("fan %s: only one fan type can be used per fan definition block", fanConfig.ID)
		}
		if subConfigs <= 0 {
			return fmt.Errorf("fan %s: sub-configuration for fan is missing, use one of: hwmon | file | nvidia", fanConfig.ID)
		}

		if fanConfig.HwMon != nil && fanConfig.HwMon.Index <= 0 {
			return fmt.Errorf("fan %s: invalid index, must be >= 1", fanConfig.ID)
		}
		if fanConfig.File != nil {
			if len(fanConfig.File.PwmPath) <= 0 {
				return fmt.Errorf("fan %s: no pwm file path provided", fanConfig.ID)
			}
			if len(fanConfig.File.RpmPath) <= 0 {
				return fmt.Errorf("fan %s: no rpm file path provided", fanConfig.ID)
			}
		}
		if fanConfig.Nvidia != nil && (fanConfig.Nvidia.Gpu < 0 || fanConfig.Nvidia.Fan < 0) {
			return fmt.Errorf("fan %s: invalid gpu or fan index, must be >= 0", fanConfig.ID)
		}
	}
	return nil
}

func validateGroups(config *Configuration) error {
	var ids []string
	owners := map[string]string{}

	for _, group := range config.Groups {
		if len(group.ID) <= 0 {
			return errors.New("group: missing id")
		}
		if slices.Contains(ids, group.ID) {
			return fmt.Errorf("duplicate group id detected: %s", group.ID)
		}
		ids = append(ids, group.ID)

		if len(group.Profiles) <= 0 {
			return fmt.Errorf("group %s: at least one profile is required", group.ID)
		}
		if group.DelayUp < 0 {
			return fmt.Errorf("group %s: delayUp must be >= 0", group.ID)
		}
		if group.HoldTime < 0 {
			return fmt.Errorf("group %s: holdTime must be >= 0", group.ID)
		}

		for _, sensorId := range group.TempSources {
			if config.FindSensor(sensorId) == nil {
				return fmt.Errorf("group %s: no sensor definition with id '%s' found", group.ID, sensorId)
			}
		}

		var kind FanKind
		for _, fanId := range group.Fans {
			fan := config.FindFan(fanId)
			if fan == nil {
				return fmt.Errorf("group %s: no fan definition with id '%s' found", group.ID, fanId)
			}
			if owner, ok := owners[fanId]; ok {
				return fmt.Errorf("group %s: fan %s is already a member of group %s", group.ID, fanId, owner)
			}
			owners[fanId] = group.ID

			if len(kind) > 0 && fan.Kind() != kind {
				return fmt.Errorf("group %s: cannot mix %s and %s fans in one group", group.ID, kind, fan.Kind())
			}
			kind = fan.Kind()
		}
		if len(group.Fans) <= 0 {
			ui.Warning("Group %s has no fans, its tier is computed for display only", group.ID)
		}

		for tier, profile := range group.Profiles {
			if err := validateProfile(group, kind, profile); err != nil {
				return fmt.Errorf("group %s: profile %d (%s): %w", group.ID, tier, profile.Name, err)
			}
		}

		if group.Override != nil && (group.Override.Tier < 0 || group.Override.Tier >= len(group.Profiles)) {
			return fmt.Errorf("group %s: override tier %d is out of range, must be between 0 and %d", group.ID, group.Override.Tier, len(group.Profiles)-1)
		}
	}

	return nil
}

func validateProfile(group GroupConfig, kind FanKind, profile ProfileConfig) error {
	if profile.Target < 0 {
		return errors.New("target must be >= 0")
	}
	if kind == FanKindDriver && profile.Target > MaxDriverPercent {
		return fmt.Errorf("target of a driver group must be a percentage between 0 and %d", MaxDriverPercent)
	}
	if profile.HoldTime != nil && *profile.HoldTime < 0 {
		return errors.New("holdTime must be >= 0")
	}
	for _, threshold := range profile.Thresholds {
		if !slices.Contains(group.TempSources, threshold.Sensor) {
			return fmt.Errorf("sensor '%s' is not a temp source of this group", threshold.Sensor)
		}
	}
	return nil
}
