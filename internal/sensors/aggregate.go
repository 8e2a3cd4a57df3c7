package sensors

import (
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/util"
)

// Aggregate reduces the readable values of a sensor to a single value.
// It returns nil only if there is no value at all.
func Aggregate(aggregation string, readings []Reading) *float64 {
	var values []float64
	for _, reading := range readings {
		if reading.Value != nil {
			values = append(values, *reading.Value)
		}
	}
	if len(values) <= 0 {
		return nil
	}

	var result float64
	switch aggregation {
	case configuration.AggregationMin:
		result = util.Min(values)
	case configuration.AggregationAverage:
		result = util.Avg(values)
	default:
		// cooling has to follow the hottest component
		result = util.Max(values)
	}
	return &result
}
