package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/markusressel/fanhold/internal/configuration"
	"golang.org/x/sync/errgroup"
)

// Aggregator reads all configured sensors once per tick. Sensors referencing other
// sensors are read after the sensors they depend on.
type Aggregator struct {
	sensors map[string]*Sensor
	// sensors grouped by dependency depth, depth 0 has no references
	levels  [][]*Sensor
	timeout time.Duration

	mu     sync.RWMutex
	values map[string]*float64
}

// NewAggregator builds all sensors of the configuration. The configuration must be
// validated, reference cycles are not detected here.
func NewAggregator(configs []configuration.SensorConfig, deps Dependencies, timeout time.Duration) (*Aggregator, error) {
	a := &Aggregator{
		sensors: map[string]*Sensor{},
		timeout: timeout,
		values:  map[string]*float64{},
	}
	deps.Lookup = a.lookup

	for _, config := range configs {
		sensor, err := NewSensor(config, deps)
		if err != nil {
			return nil, err
		}
		a.sensors[config.ID] = sensor
	}

	depths := map[string]int{}
	var depthOf func(id string) int
	depthOf = func(id string) int {
		if depth, ok := depths[id]; ok {
			return depth
		}
		depths[id] = 0
		depth := 0
		if sensor, ok := a.sensors[id]; ok {
			for _, source := range sensor.Sources {
				if ref, ok := source.(*ReferenceSource); ok {
					depth = max(depth, depthOf(ref.Id)+1)
				}
			}
		}
		depths[id] = depth
		return depth
	}
	for _, config := range configs {
		depth := depthOf(config.ID)
		for len(a.levels) <= depth {
			a.levels = append(a.levels, nil)
		}
		a.levels[depth] = append(a.levels[depth], a.sensors[config.ID])
	}

	return a, nil
}

func (a *Aggregator) lookup(id string) *float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.values[id]
}

func (a *Aggregator) Sensors() map[string]*Sensor {
	return a.sensors
}

// ReadAll reads every sensor and returns the results by sensor id.
func (a *Aggregator) ReadAll(ctx context.Context) map[string]Result {
	results := make(map[string]Result, len(a.sensors))
	var resultsMu sync.Mutex

	a.mu.Lock()
	a.values = map[string]*float64{}
	a.mu.Unlock()

	for _, level := range a.levels {
		var group errgroup.Group
		for _, sensor := range level {
			group.Go(func() error {
				result := sensor.Read(ctx, a.timeout)
				resultsMu.Lock()
				results[sensor.GetId()] = result
				resultsMu.Unlock()
				return nil
			})
		}
		_ = group.Wait()

		a.mu.Lock()
		for _, sensor := range level {
			a.values[sensor.GetId()] = results[sensor.GetId()].Value
		}
		a.mu.Unlock()
	}

	return results
}
