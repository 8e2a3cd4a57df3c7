package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/controller"
	"github.com/markusressel/fanhold/internal/fans"
	"github.com/markusressel/fanhold/internal/hysteresis"
	"github.com/markusressel/fanhold/internal/sensors"
	"github.com/markusressel/fanhold/internal/ui"
	cmap "github.com/orcaman/concurrent-map/v2"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownGroup = errors.New("unknown group")
	ErrInvalidTier  = errors.New("invalid tier")
)

// FanFactory creates the runtime fan of a fan configuration.
type FanFactory func(config configuration.FanConfig) (fans.Fan, error)

type Options struct {
	// defaults to the wall clock
	Clock clock.Clock
	// used to persist overrides, may be nil
	Store   configuration.Store
	NewFan  FanFactory
	Sensors sensors.Dependencies
}

// Listener is called with every published snapshot. It must not modify the snapshot.
type Listener func(snapshot *Snapshot)

type fanRuntime struct {
	config     configuration.FanConfig
	controller *controller.SpeedController
}

// Engine evaluates all fan groups once per tick.
type Engine struct {
	clock   clock.Clock
	store   configuration.Store
	newFan  FanFactory
	sensors sensors.Dependencies

	config atomic.Pointer[configuration.Configuration]

	// held for the duration of a tick and for every change of the runtime state
	tickMu     sync.Mutex
	aggregator *sensors.Aggregator
	states     map[string]*hysteresis.State
	fans       map[string]*fanRuntime
	tick       uint64

	snapshot  atomic.Pointer[Snapshot]
	changes   *ChangeLog
	listeners []Listener

	tickRateChanged chan time.Duration
}

// New creates an engine for a validated configuration.
func New(config *configuration.Configuration, options Options) (*Engine, error) {
	if options.Clock == nil {
		options.Clock = clock.New()
	}
	if options.NewFan == nil {
		return nil, errors.New("missing fan factory")
	}

	e := &Engine{
		clock:           options.Clock,
		store:           options.Store,
		newFan:          options.NewFan,
		sensors:         options.Sensors,
		states:          map[string]*hysteresis.State{},
		fans:            map[string]*fanRuntime{},
		changes:         NewChangeLog(DefaultChangeLogSize),
		tickRateChanged: make(chan time.Duration, 1),
	}

	aggregator, err := sensors.NewAggregator(config.Sensors, e.sensors, config.HardwareTimeout.Std())
	if err != nil {
		return nil, err
	}
	fanRuntimes, err := e.buildFans(config, nil)
	if err != nil {
		return nil, err
	}

	e.aggregator = aggregator
	e.fans = fanRuntimes
	for _, group := range config.Groups {
		e.states[group.ID] = newGroupState(group)
	}
	e.config.Store(config)
	return e, nil
}

func newGroupState(group configuration.GroupConfig) *hysteresis.State {
	state := hysteresis.NewState()
	if group.Override != nil && group.Override.Enabled {
		ui.Info("Group %s: restoring manual override at tier %d", group.ID, group.Override.Tier)
		state.SetManual(group.Override.Tier)
	}
	return state
}

// buildFans creates a runtime for every fan of config that is a member of a group, all other
// fans are left alone. Runtimes of existing fans with an unchanged configuration are reused.
func (e *Engine) buildFans(config *configuration.Configuration, existing map[string]*fanRuntime) (map[string]*fanRuntime, error) {
	members := map[string]bool{}
	for _, group := range config.Groups {
		for _, fanId := range group.Fans {
			members[fanId] = true
		}
	}

	options := controller.OptionsFromConfig(config)
	result := map[string]*fanRuntime{}
	for _, fanConfig := range config.Fans {
		if !members[fanConfig.ID] {
			continue
		}
		if runtime, ok := existing[fanConfig.ID]; ok && reflect.DeepEqual(runtime.config, fanConfig) {
			result[fanConfig.ID] = runtime
			continue
		}
		fan, err := e.newFan(fanConfig)
		if err != nil {
			return nil, err
		}
		result[fanConfig.ID] = &fanRuntime{
			config:     fanConfig,
			controller: controller.NewSpeedController(fan, options),
		}
	}
	return result, nil
}

// Config returns the active configuration, it must not be modified.
func (e *Engine) Config() *configuration.Configuration {
	return e.config.Load()
}

// Changes returns the most recent tier changes, oldest first.
func (e *Engine) Changes() []Change {
	return e.changes.Items()
}

// AddListener registers a function that is called after every tick.
func (e *Engine) AddListener(listener Listener) {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// Run ticks until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	ticker := e.clock.Ticker(e.Config().TickDuration())
	defer ticker.Stop()

	ui.Info("Starting engine with %d groups", len(e.Config().Groups))
	e.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case rate := <-e.tickRateChanged:
			ticker.Reset(rate)
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

// Tick reads all sensors, advances every group and drives its fans.
func (e *Engine) Tick(ctx context.Context) *Snapshot {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	config := e.config.Load()
	now := e.clock.Now()
	e.tick++

	readings := e.aggregator.ReadAll(ctx)
	values := make(map[string]*float64, len(readings))
	for id, result := range readings {
		values[id] = result.Value
	}

	fanResults := cmap.New[controller.Result]()
	groups := make([]GroupSnapshot, len(config.Groups))

	var g errgroup.Group
	for i, group := range config.Groups {
		g.Go(func() error {
			groups[i] = e.tickGroup(ctx, group, values, now, fanResults)
			return nil
		})
	}
	_ = g.Wait()

	snapshot := &Snapshot{
		Time:   now,
		Tick:   e.tick,
		Groups: groups,
	}
	for _, group := range config.Groups {
		for _, fanId := range group.Fans {
			runtime := e.fans[fanId]
			result, _ := fanResults.Get(fanId)
			snapshot.Fans = append(snapshot.Fans, newFanSnapshot(runtime.config, runtime.controller.Fan().GetKind(), group.ID, result))
		}
	}
	for _, sensorConfig := range config.Sensors {
		result := readings[sensorConfig.ID]
		name := sensorConfig.Name
		if len(name) <= 0 {
			name = sensorConfig.ID
		}
		snapshot.Sensors = append(snapshot.Sensors, SensorSnapshot{
			ID:      sensorConfig.ID,
			Name:    name,
			Value:   result.Value,
			Sources: result.Readings,
		})
	}

	e.snapshot.Store(snapshot)
	for _, listener := range e.listeners {
		listener(snapshot)
	}
	return snapshot
}

// tickGroup evaluates the state machine of a group before any fan of it is touched.
func (e *Engine) tickGroup(
	ctx context.Context,
	group configuration.GroupConfig,
	values map[string]*float64,
	now time.Time,
	fanResults cmap.ConcurrentMap[string, controller.Result],
) GroupSnapshot {
	state := e.states[group.ID]
	if state.Committed >= len(group.Profiles) || state.ManualTier >= len(group.Profiles) {
		ui.Warning("Group %s: tier %d out of range, clamping to %d profiles", group.ID, max(state.Committed, state.ManualTier), len(group.Profiles))
		state.Clamp(len(group.Profiles))
	}
	previous := state.Committed

	demanded := hysteresis.DemandedTier(group.Profiles, values)
	status := state.Evaluate(group, demanded, now)
	committed := state.Committed
	profile := group.Profiles[committed]

	if committed != previous {
		e.changes.Add(newChange(now, group, previous, committed, status, values))
	}

	var g errgroup.Group
	for _, fanId := range group.Fans {
		runtime := e.fans[fanId]
		g.Go(func() error {
			fanResults.Set(fanId, runtime.controller.Update(ctx, committed, profile.Target))
			return nil
		})
	}
	_ = g.Wait()

	return GroupSnapshot{
		ID:            group.ID,
		Name:          group.DisplayName(),
		CommittedTier: committed,
		DemandedTier:  demanded,
		Profile:       profile.Name,
		Target:        profile.Target,
		Status:        status,
		StatusText:    status.String(),
		IsManual:      state.Manual,
		Fans:          append([]string{}, group.Fans...),
	}
}

// ReloadConfig validates config and applies it between two ticks. Group states are kept for
// groups that still exist, fans that are no longer configured or no longer part of a group
// are restored.
// On error the engine keeps running with the previous configuration.
func (e *Engine) ReloadConfig(ctx context.Context, config *configuration.Configuration) error {
	if err := configuration.Validate(config, ""); err != nil {
		return err
	}

	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	previous := e.config.Load()

	aggregator, err := sensors.NewAggregator(config.Sensors, e.sensors, config.HardwareTimeout.Std())
	if err != nil {
		return err
	}
	existing := e.fans
	if !reflect.DeepEqual(previous.Controller, config.Controller) || previous.HardwareTimeout != config.HardwareTimeout {
		// controller options changed, every controller has to be recreated
		existing = nil
	}
	fanRuntimes, err := e.buildFans(config, existing)
	if err != nil {
		return err
	}

	var restoreErr error
	for id, runtime := range e.fans {
		if fanRuntimes[id] == runtime {
			continue
		}
		ui.Info("Restoring fan %s", id)
		restoreErr = multierr.Append(restoreErr, runtime.controller.Restore(ctx))
	}

	states := map[string]*hysteresis.State{}
	for _, group := range config.Groups {
		state, ok := e.states[group.ID]
		if !ok {
			states[group.ID] = newGroupState(group)
			continue
		}
		state.Clamp(len(group.Profiles))
		if group.Override != nil && group.Override.Enabled && (!state.Manual || state.ManualTier != group.Override.Tier) {
			state.SetManual(group.Override.Tier)
		}
		states[group.ID] = state
	}

	e.aggregator = aggregator
	e.fans = fanRuntimes
	e.states = states
	e.config.Store(config)

	if previous.TickRate != config.TickRate {
		// only the latest rate matters
		select {
		case <-e.tickRateChanged:
		default:
		}
		e.tickRateChanged <- config.TickDuration()
	}

	ui.Info("Configuration reloaded (%d sensors, %d fans, %d groups)", len(config.Sensors), len(config.Fans), len(config.Groups))
	if restoreErr != nil {
		ui.Warning("Unable to restore removed fans: %v", restoreErr)
	}
	return nil
}

// Close hands every fan back to the control it was in before the engine started.
func (e *Engine) Close(ctx context.Context) error {
	e.tickMu.Lock()
	defer e.tickMu.Unlock()

	var result error
	for id, runtime := range e.fans {
		if err := runtime.controller.Restore(ctx); err != nil {
			result = multierr.Append(result, fmt.Errorf("fan %s: %w", id, err))
		}
	}
	return result
}
