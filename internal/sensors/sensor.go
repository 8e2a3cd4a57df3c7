package sensors

import (
	"context"
	"sync"
	"time"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/util"
	"golang.org/x/sync/errgroup"
)

// Sensor is a configured temperature made up of one or more sources.
type Sensor struct {
	Config  configuration.SensorConfig
	Sources []Source

	mu   sync.RWMutex
	last Result
}

func NewSensor(config configuration.SensorConfig, deps Dependencies) (*Sensor, error) {
	sensor := &Sensor{Config: config}
	for _, sourceConfig := range config.Sources {
		sources, err := newSources(config.ID, sourceConfig, deps)
		if err != nil {
			return nil, err
		}
		sensor.Sources = append(sensor.Sources, sources...)
	}
	return sensor, nil
}

func (s *Sensor) GetId() string {
	return s.Config.ID
}

func (s *Sensor) GetName() string {
	if len(s.Config.Name) > 0 {
		return s.Config.Name
	}
	return s.Config.ID
}

// Read reads all sources in parallel, each bounded by timeout, and aggregates them.
// A failing source only removes its value from the aggregation.
func (s *Sensor) Read(ctx context.Context, timeout time.Duration) Result {
	readings := make([]Reading, len(s.Sources))

	var group errgroup.Group
	for i, source := range s.Sources {
		group.Go(func() error {
			reading := Reading{Label: source.GetLabel(), Kind: source.GetKind()}
			value, err := util.CallWithTimeout(ctx, timeout, source.Read)
			if err != nil {
				reading.Error = err.Error()
			} else {
				reading.Value = &value
			}
			readings[i] = reading
			return nil
		})
	}
	_ = group.Wait()

	result := Result{
		Value:    Aggregate(s.Config.Aggregation, readings),
		Readings: readings,
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
	return result
}

// Last returns the result of the most recent Read.
func (s *Sensor) Last() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
