package configuration

import "time"

type GroupConfig struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// ids of the member fans
	Fans []string `json:"fans" yaml:"fans"`
	// ids of the sensors that may gate a profile of this group
	TempSources []string `json:"tempSources" yaml:"tempSources"`
	// time a higher tier has to be demanded continuously before it is committed
	DelayUp Duration `json:"delayUp" yaml:"delayUp"`
	// time a lower tier has to be sufficient before it replaces the committed tier
	HoldTime Duration `json:"holdTime" yaml:"holdTime"`
	// tier 0 is the idle baseline
	Profiles []ProfileConfig `json:"profiles" yaml:"profiles"`
	Override *OverrideConfig `json:"override,omitempty" yaml:"override,omitempty"`
}

type ProfileConfig struct {
	Name string `json:"name" yaml:"name"`
	// rpm for pwm groups, percent for driver groups
	Target int `json:"target" yaml:"target"`
	// overrides the group hold time when leaving this tier
	HoldTime   *Duration         `json:"holdTime,omitempty" yaml:"holdTime,omitempty"`
	Thresholds []ThresholdConfig `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

type ThresholdConfig struct {
	Sensor string `json:"sensor" yaml:"sensor"`
	// the tier is demanded when the sensor value is strictly above this value,
	// a missing value does not gate the tier
	Above *float64 `json:"above,omitempty" yaml:"above,omitempty"`
}

// OverrideConfig is a manual tier selection that survives a restart.
type OverrideConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	Tier    int  `json:"tier" yaml:"tier"`
}

// HoldTimeOf returns the time the given tier has to be held before the group may descend from it.
func (g GroupConfig) HoldTimeOf(tier int) time.Duration {
	if tier >= 0 && tier < len(g.Profiles) && g.Profiles[tier].HoldTime != nil {
		return g.Profiles[tier].HoldTime.Std()
	}
	return g.HoldTime.Std()
}

// DisplayName falls back to the id for groups without a name.
func (g GroupConfig) DisplayName() string {
	if len(g.Name) > 0 {
		return g.Name
	}
	return g.ID
}
