package configuration

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func above(value float64) *float64 {
	return &value
}

func createValidConfig() Configuration {
	return Configuration{
		TickRate:        Duration(time.Second),
		HardwareTimeout: Duration(500 * time.Millisecond),
		Controller: ControllerConfig{
			Tolerance:        30,
			Step:             2,
			LargeError:       200,
			ConvergenceTicks: 30,
		},
		Sensors: []SensorConfig{
			{
				ID:      "cpu",
				Sources: []SourceConfig{{File: &FileSourceConfig{Path: "/tmp/cpu"}}},
			},
			{
				ID:      "gpu",
				Sources: []SourceConfig{{Nvidia: &NvidiaSourceConfig{Gpu: 0}}},
			},
		},
		Fans: []FanConfig{
			{
				ID:   "front",
				File: &FileFanConfig{PwmPath: "/tmp/pwm1", RpmPath: "/tmp/fan1_input"},
			},
			{
				ID:     "gpu0",
				Nvidia: &NvidiaFanConfig{Gpu: 0, Fan: 0},
			},
		},
		Groups: []GroupConfig{
			{
				ID:          "system",
				Fans:        []string{"front"},
				TempSources: []string{"cpu"},
				DelayUp:     Duration(5 * time.Second),
				HoldTime:    Duration(30 * time.Second),
				Profiles: []ProfileConfig{
					{Name: "idle", Target: 600},
					{Name: "high", Target: 1400, Thresholds: []ThresholdConfig{{Sensor: "cpu", Above: above(62)}}},
				},
			},
			{
				ID:          "gpu",
				Fans:        []string{"gpu0"},
				TempSources: []string{"gpu"},
				Profiles: []ProfileConfig{
					{Name: "auto", Target: 0},
					{Name: "max", Target: 100, Thresholds: []ThresholdConfig{{Sensor: "gpu", Above: above(80)}}},
				},
			},
		},
	}
}

func TestValidateValidConfig(t *testing.T) {
	// GIVEN
	config := createValidConfig()

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.NoError(t, err)
}

func TestValidateDuplicateFanId(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Fans = append(config.Fans, FanConfig{
		ID:   "front",
		File: &FileFanConfig{PwmPath: "abc", RpmPath: "def"},
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "duplicate fan id detected: front")
}

func TestValidateDuplicateSensorId(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID:      "cpu",
		Sources: []SourceConfig{{File: &FileSourceConfig{Path: "/tmp/other"}}},
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "duplicate sensor id detected: cpu")
}

func TestValidateFanSubConfigIsMissing(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Fans[0].File = nil

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "fan front: sub-configuration for fan is missing, use one of: hwmon | file | nvidia")
}

func TestValidateFanMultipleSubConfigs(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Fans[0].HwMon = &HwMonFanConfig{Platform: "nct6798", Index: 1}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "fan front: only one fan type can be used per fan definition block")
}

func TestValidateFanHwMonIndex(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Fans[0].File = nil
	config.Fans[0].HwMon = &HwMonFanConfig{Platform: "nct6798", Index: 0}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "fan front: invalid index, must be >= 1")
}

func TestValidateSensorSourceIsMissing(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors[0].Sources = []SourceConfig{{Label: "empty"}}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor cpu: source 1: sub-configuration for source is missing, use one of: hwmon | file | cmd | nvidia | disk | mdstat | sensor")
}

func TestValidateSensorWithoutSources(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors[0].Sources = nil

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor cpu: at least one source is required")
}

func TestValidateSensorUnsupportedAggregation(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors[0].Aggregation = "median"

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor cpu: unsupported aggregation 'median', use one of: max | min | average")
}

func TestValidateSensorReferenceToSelf(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors[0].Sources = append(config.Sensors[0].Sources, SourceConfig{
		Sensor: &SensorRefSourceConfig{ID: "cpu"},
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor cpu: a sensor cannot reference itself")
}

func TestValidateSensorReferenceIsNotDefined(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors[0].Sources = append(config.Sensors[0].Sources, SourceConfig{
		Sensor: &SensorRefSourceConfig{ID: "chipset"},
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "sensor cpu: no sensor definition with id 'chipset' found")
}

func TestValidateSensorDependencyCycle(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors[0].Sources = append(config.Sensors[0].Sources, SourceConfig{
		Sensor: &SensorRefSourceConfig{ID: "gpu"},
	})
	config.Sensors[1].Sources = append(config.Sensors[1].Sources, SourceConfig{
		Sensor: &SensorRefSourceConfig{ID: "cpu"},
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "you have created a sensor dependency cycle")
}

func TestValidateSensorReferenceWithoutCycle(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Sensors = append(config.Sensors, SensorConfig{
		ID: "hottest",
		Sources: []SourceConfig{
			{Sensor: &SensorRefSourceConfig{ID: "cpu"}},
			{Sensor: &SensorRefSourceConfig{ID: "gpu"}},
		},
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.NoError(t, err)
}

func TestValidateGroupFanIsNotDefined(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].Fans = []string{"rear"}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group system: no fan definition with id 'rear' found")
}

func TestValidateGroupSensorIsNotDefined(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].TempSources = []string{"cpu", "hdd"}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group system: no sensor definition with id 'hdd' found")
}

func TestValidateFanOwnedByTwoGroups(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[1].Fans = []string{"front"}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group gpu: fan front is already a member of group system")
}

func TestValidateGroupMixesFanKinds(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].Fans = []string{"front", "gpu0"}
	config.Groups[1].Fans = nil

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, fmt.Sprintf("group system: cannot mix %s and %s fans in one group", FanKindPwm, FanKindDriver))
}

func TestValidateGroupWithoutProfiles(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].Profiles = nil

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group system: at least one profile is required")
}

func TestValidateThresholdSensorIsNotATempSource(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].Profiles[1].Thresholds = append(config.Groups[0].Profiles[1].Thresholds, ThresholdConfig{
		Sensor: "gpu",
		Above:  above(70),
	})

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group system: profile 1 (high): sensor 'gpu' is not a temp source of this group")
}

func TestValidateDriverTargetIsPercentage(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[1].Profiles[1].Target = 2500

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group gpu: profile 1 (max): target of a driver group must be a percentage between 0 and 100")
}

func TestValidateOverrideTierOutOfRange(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].Override = &OverrideConfig{Enabled: true, Tier: 2}

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group system: override tier 2 is out of range, must be between 0 and 1")
}

func TestValidateNegativeDelayUp(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Groups[0].DelayUp = Duration(-time.Second)

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "group system: delayUp must be >= 0")
}

func TestValidateControllerStep(t *testing.T) {
	// GIVEN
	config := createValidConfig()
	config.Controller.Step = 0

	// WHEN
	err := Validate(&config, "")

	// THEN
	assert.EqualError(t, err, "controller: step must be >= 1")
}

func TestGroupHoldTimeOf(t *testing.T) {
	// GIVEN
	profileHold := Duration(60 * time.Second)
	group := GroupConfig{
		HoldTime: Duration(30 * time.Second),
		Profiles: []ProfileConfig{
			{Name: "idle"},
			{Name: "high", HoldTime: &profileHold},
		},
	}

	// WHEN
	idle := group.HoldTimeOf(0)
	high := group.HoldTimeOf(1)

	// THEN
	assert.Equal(t, 30*time.Second, idle)
	assert.Equal(t, 60*time.Second, high)
}
