package hysteresis

import "github.com/markusressel/fanhold/internal/configuration"

// DemandedTier returns the highest tier for which any threshold is exceeded by the current
// value of its sensor. Sensors without a value never trigger. Tier 0 is the fallback.
func DemandedTier(profiles []configuration.ProfileConfig, values map[string]*float64) int {
	for tier := len(profiles) - 1; tier > 0; tier-- {
		for _, threshold := range profiles[tier].Thresholds {
			if threshold.Above == nil {
				continue
			}
			value := values[threshold.Sensor]
			if value != nil && *value > *threshold.Above {
				return tier
			}
		}
	}
	return 0
}
