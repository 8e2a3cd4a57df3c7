package engine

import (
	"errors"
	"fmt"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/qdm12/reprint"
)

// SetOverride pins a group to a tier. With enabled set to false the group returns to automatic
// control, like ClearOverride. If persist is set the override is written to the configuration
// and survives a restart.
func (e *Engine) SetOverride(groupId string, enabled bool, tier int, persist bool) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	if !enabled {
		return e.clearOverride(groupId, persist)
	}

	group := e.config.Load().FindGroup(groupId)
	state, ok := e.states[groupId]
	if group == nil || !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, groupId)
	}
	if tier < 0 || tier >= len(group.Profiles) {
		return fmt.Errorf("%w: group %s has no tier %d", ErrInvalidTier, groupId, tier)
	}

	override := &configuration.OverrideConfig{Enabled: true, Tier: tier}
	if persist {
		if err := e.persistOverride(groupId, override); err != nil {
			return err
		}
		e.swapOverride(groupId, override)
	}

	previous := state.Committed
	state.SetManual(tier)
	if previous != tier {
		e.changes.Add(newChange(e.clock.Now(), *group, previous, tier, state.Status, e.lastSensorValues()))
	}
	ui.Info("Group %s: manual override at tier %d", groupId, tier)
	return nil
}

// ClearOverride returns a group to automatic control. A persisted override is removed as well.
func (e *Engine) ClearOverride(groupId string) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	return e.clearOverride(groupId, false)
}

// clearOverride must be called with tickMu held.
func (e *Engine) clearOverride(groupId string, persist bool) error {
	group := e.config.Load().FindGroup(groupId)
	state, ok := e.states[groupId]
	if group == nil || !ok {
		return fmt.Errorf("%w: %s", ErrUnknownGroup, groupId)
	}
	// a persisted override would come back with the next restart
	persist = persist || group.Override != nil
	if persist {
		if err := e.persistOverride(groupId, nil); err != nil {
			return err
		}
		e.swapOverride(groupId, nil)
	}

	state.ClearManual()
	ui.Info("Group %s: back to automatic control", groupId)
	return nil
}

// persistOverride must be called with tickMu held.
func (e *Engine) persistOverride(groupId string, override *configuration.OverrideConfig) error {
	if e.store == nil {
		return errors.New("unable to persist override: no configuration store")
	}
	return e.store.SaveOverride(groupId, override)
}

// swapOverride replaces the active configuration with a copy carrying the given override.
// Must be called with tickMu held.
func (e *Engine) swapOverride(groupId string, override *configuration.OverrideConfig) {
	config := reprint.This(e.config.Load()).(*configuration.Configuration)
	if group := config.FindGroup(groupId); group != nil {
		group.Override = override
	}
	e.config.Store(config)
}

// lastSensorValues are the sensor values of the last tick. Must be called with tickMu held.
func (e *Engine) lastSensorValues() map[string]*float64 {
	values := map[string]*float64{}
	snapshot := e.snapshot.Load()
	if snapshot == nil {
		return values
	}
	for _, sensor := range snapshot.Sensors {
		values[sensor.ID] = sensor.Value
	}
	return values
}
