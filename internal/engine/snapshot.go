package engine

import (
	"time"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/controller"
	"github.com/markusressel/fanhold/internal/hysteresis"
	"github.com/markusressel/fanhold/internal/sensors"
	"github.com/qdm12/reprint"
)

// Snapshot is the state of the engine after a tick. A snapshot is never modified after it has
// been published.
type Snapshot struct {
	Time time.Time `json:"time"`
	// number of the tick, starting at 1
	Tick    uint64           `json:"tick"`
	Groups  []GroupSnapshot  `json:"groups"`
	Fans    []FanSnapshot    `json:"fans"`
	Sensors []SensorSnapshot `json:"sensors"`
}

type GroupSnapshot struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	CommittedTier int               `json:"committedTier"`
	DemandedTier  int               `json:"demandedTier"`
	Profile       string            `json:"profile"`
	Target        int               `json:"target"`
	Status        hysteresis.Status `json:"status"`
	StatusText    string            `json:"statusText"`
	IsManual      bool              `json:"isManual"`
	Fans          []string          `json:"fans"`
}

type FanSnapshot struct {
	ID    string                `json:"id"`
	Name  string                `json:"name"`
	Group string                `json:"group"`
	Kind  configuration.FanKind `json:"kind"`
	// measured speed, rpm for pwm fans and percent for driver fans
	MeasuredSpeed *int                 `json:"measuredSpeed"`
	Rpm           *int                 `json:"rpm"`
	Command       *int                 `json:"command"`
	Target        int                  `json:"target"`
	Auto          bool                 `json:"auto"`
	Status        controller.FanStatus `json:"status"`
	Error         string               `json:"error,omitempty"`
}

type SensorSnapshot struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Value   *float64          `json:"value"`
	Sources []sensors.Reading `json:"sources"`
}

// FindGroup returns nil if there is no group with the given id.
func (s *Snapshot) FindGroup(id string) *GroupSnapshot {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

func (s *Snapshot) FindFan(id string) *FanSnapshot {
	for i := range s.Fans {
		if s.Fans[i].ID == id {
			return &s.Fans[i]
		}
	}
	return nil
}

func (s *Snapshot) FindSensor(id string) *SensorSnapshot {
	for i := range s.Sensors {
		if s.Sensors[i].ID == id {
			return &s.Sensors[i]
		}
	}
	return nil
}

// Snapshot returns a copy of the latest snapshot, nil before the first tick.
func (e *Engine) Snapshot() *Snapshot {
	snapshot := e.snapshot.Load()
	if snapshot == nil {
		return nil
	}
	return reprint.This(snapshot).(*Snapshot)
}

func newFanSnapshot(fan configuration.FanConfig, kind configuration.FanKind, group string, result controller.Result) FanSnapshot {
	name := fan.Name
	if len(name) <= 0 {
		name = fan.ID
	}
	return FanSnapshot{
		ID:            fan.ID,
		Name:          name,
		Group:         group,
		Kind:          kind,
		MeasuredSpeed: result.Measured,
		Rpm:           result.Rpm,
		Command:       result.Command,
		Target:        result.Target,
		Auto:          result.Auto,
		Status:        result.Status,
		Error:         result.Error,
	}
}
