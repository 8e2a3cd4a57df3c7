package hysteresis

import (
	"testing"
	"time"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func above(v float64) *float64 {
	return &v
}

func duration(d time.Duration) *configuration.Duration {
	result := configuration.Duration(d)
	return &result
}

// createExampleGroup has thresholds tier2 cpu>57 and tier3 cpu>62
func createExampleGroup() configuration.GroupConfig {
	return configuration.GroupConfig{
		ID:          "system",
		TempSources: []string{"cpu"},
		DelayUp:     configuration.Duration(5 * time.Second),
		HoldTime:    configuration.Duration(30 * time.Second),
		Profiles: []configuration.ProfileConfig{
			{Name: "Idle", Target: 600},
			{Name: "Low", Target: 800},
			{Name: "Medium", Target: 1200, Thresholds: []configuration.ThresholdConfig{{Sensor: "cpu", Above: above(57)}}},
			{Name: "High", Target: 1800, Thresholds: []configuration.ThresholdConfig{{Sensor: "cpu", Above: above(62)}}},
		},
	}
}

// simulation ticks a state once per second with the given cpu temperature
type simulation struct {
	t     *testing.T
	group configuration.GroupConfig
	state *State
	now   time.Time
}

func newSimulation(t *testing.T, group configuration.GroupConfig) *simulation {
	return &simulation{
		t:     t,
		group: group,
		state: NewState(),
		now:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *simulation) tick(cpu *float64) Status {
	demanded := DemandedTier(s.group.Profiles, map[string]*float64{"cpu": cpu})
	status := s.state.Evaluate(s.group, demanded, s.now)
	s.now = s.now.Add(time.Second)
	return status
}

// run ticks n times and returns the committed tier after each tick
func (s *simulation) run(n int, cpu float64) []int {
	var committed []int
	for range n {
		s.tick(&cpu)
		committed = append(committed, s.state.Committed)
	}
	return committed
}

func TestDemandedTier(t *testing.T) {
	profiles := createExampleGroup().Profiles

	assert.Equal(t, 0, DemandedTier(profiles, map[string]*float64{"cpu": above(40)}))
	assert.Equal(t, 0, DemandedTier(profiles, map[string]*float64{"cpu": above(57)}))
	assert.Equal(t, 2, DemandedTier(profiles, map[string]*float64{"cpu": above(57.5)}))
	assert.Equal(t, 2, DemandedTier(profiles, map[string]*float64{"cpu": above(62)}))
	assert.Equal(t, 3, DemandedTier(profiles, map[string]*float64{"cpu": above(65)}))
	assert.Equal(t, 0, DemandedTier(profiles, map[string]*float64{"cpu": nil}))
	assert.Equal(t, 0, DemandedTier(profiles, map[string]*float64{}))
}

func TestDemandedTier_AnySensorTriggers(t *testing.T) {
	// GIVEN
	profiles := []configuration.ProfileConfig{
		{Name: "Idle"},
		{Name: "Hot", Thresholds: []configuration.ThresholdConfig{
			{Sensor: "cpu", Above: above(70)},
			{Sensor: "drives", Above: above(45)},
			{Sensor: "gpu"},
		}},
	}

	// THEN
	assert.Equal(t, 1, DemandedTier(profiles, map[string]*float64{"cpu": above(30), "drives": above(46)}))
	assert.Equal(t, 0, DemandedTier(profiles, map[string]*float64{"cpu": nil, "drives": above(40), "gpu": above(99)}))
}

func TestState_Init(t *testing.T) {
	state := NewState()
	assert.Equal(t, KindInit, state.Status.Kind)
	assert.Equal(t, "Init", state.Status.String())
	assert.Equal(t, 0, state.Committed)
}

func TestState_BelowThresholdsStaysAtTierZero(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())

	// WHEN
	for _, temp := range []float64{30, 45, 57, 50, 56.9, 20} {
		sim.tick(above(temp))

		// THEN
		assert.Equal(t, 0, sim.state.Committed)
		assert.Equal(t, KindStable, sim.state.Status.Kind)
	}
}

func TestState_SpikeIsDebounced(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(2, 40)

	// WHEN
	committed := sim.run(3, 60)
	status := sim.state.Status
	committed = append(committed, sim.run(10, 50)...)

	// THEN
	assert.Equal(t, KindPendingUp, status.Kind)
	assert.Equal(t, 2, status.PendingTier)
	assert.Equal(t, "Pending Lvl2 (3.0s)", status.String())
	for _, tier := range committed {
		assert.Equal(t, 0, tier)
	}
	assert.Equal(t, KindStable, sim.state.Status.Kind)
}

func TestState_SustainedDemandCommits(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(1, 40)

	// WHEN
	committed := sim.run(6, 65)

	// THEN
	// pending since the first hot tick, committed 5s later
	assert.Equal(t, []int{0, 0, 0, 0, 0, 3}, committed)
	assert.Equal(t, KindEscalated, sim.state.Status.Kind)

	sim.run(1, 65)
	assert.Equal(t, KindStable, sim.state.Status.Kind)
	assert.Equal(t, 3, sim.state.Committed)
}

func TestState_RisingDemandRestartsTimer(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())

	// WHEN
	first := sim.run(3, 60)
	second := sim.run(5, 65)
	third := sim.run(1, 65)

	// THEN
	assert.Equal(t, []int{0, 0, 0}, first)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, second)
	assert.Equal(t, []int{3}, third)
}

func TestState_FallingPendingDemandKeepsTimer(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())

	// WHEN
	first := sim.run(1, 65)
	second := sim.run(5, 60)

	// THEN
	// tier 2 or higher has been demanded for 5s, the spiked tier 3 is never committed
	assert.Equal(t, []int{0}, first)
	assert.Equal(t, []int{0, 0, 0, 0, 2}, second)
}

func TestState_ZeroDelayUpCommitsImmediately(t *testing.T) {
	// GIVEN
	group := createExampleGroup()
	group.DelayUp = 0
	sim := newSimulation(t, group)

	// WHEN
	status := sim.tick(above(65))

	// THEN
	assert.Equal(t, KindEscalated, status.Kind)
	assert.Equal(t, 3, sim.state.Committed)
}

func TestState_DescentIsHeld(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(6, 65)
	require.Equal(t, 3, sim.state.Committed)

	// WHEN
	committed := sim.run(30, 55)
	status := sim.state.Status
	final := sim.run(1, 55)

	// THEN
	for _, tier := range committed {
		assert.Equal(t, 3, tier)
	}
	assert.Equal(t, KindLocked, status.Kind)
	assert.Equal(t, "Locked (Hold 1s)", status.String())
	assert.Equal(t, []int{0}, final)
	assert.Equal(t, KindStable, sim.state.Status.Kind)
}

func TestState_LockStatusText(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(6, 65)

	// WHEN
	sim.run(5, 40)

	// THEN
	assert.Equal(t, "Locked (Hold 26s)", sim.state.Status.String())
}

func TestState_DemandReturningDuringHoldCancelsLock(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(6, 65)

	// WHEN
	cooled := sim.run(20, 50)
	hot := sim.run(1, 63)
	cooledAgain := sim.run(29, 50)
	last := sim.run(2, 50)

	// THEN
	for _, tier := range append(append(cooled, hot...), cooledAgain...) {
		assert.Equal(t, 3, tier)
	}
	// the lock restarted with the second cooldown
	assert.Equal(t, []int{3, 0}, last)
}

func TestState_LockCommitsCurrentDemand(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(6, 65)

	// WHEN
	sim.run(20, 50)
	committed := sim.run(11, 60)

	// THEN
	// demand is 2 at the moment the hold expires
	assert.Equal(t, 3, committed[9])
	assert.Equal(t, 2, committed[10])
}

func TestState_ProfileHoldTimeOverridesGroup(t *testing.T) {
	// GIVEN
	group := createExampleGroup()
	group.Profiles[3].HoldTime = duration(3 * time.Second)
	sim := newSimulation(t, group)
	sim.run(6, 65)

	// WHEN
	committed := sim.run(4, 40)

	// THEN
	assert.Equal(t, []int{3, 3, 3, 0}, committed)
}

func TestState_WorkedExample(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())

	// WHEN
	idle := sim.run(5, 40)
	spike := sim.run(3, 60)
	calm := sim.run(5, 50)
	hot := sim.run(6, 65)
	held := sim.run(30, 55)
	dropped := sim.run(1, 55)

	// THEN
	assert.Equal(t, []int{0, 0, 0, 0, 0}, idle)
	assert.Equal(t, []int{0, 0, 0}, spike)
	assert.Equal(t, []int{0, 0, 0, 0, 0}, calm)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 3}, hot)
	for _, tier := range held {
		assert.Equal(t, 3, tier)
	}
	// 55 does not exceed the tier 2 threshold either
	assert.Equal(t, []int{0}, dropped)
}

func TestState_PendingAndLockAreExclusive(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())

	// WHEN
	temps := []float64{60, 60, 65, 65, 65, 65, 65, 65, 40, 40, 58, 65, 40, 60, 65, 65}
	for _, temp := range temps {
		sim.tick(above(temp))

		// THEN
		assert.False(t, sim.state.Pending != nil && sim.state.LockedUntil != nil)
	}
}

func TestState_ManualFreezesTier(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(3, 40)

	// WHEN
	sim.state.SetManual(1)
	committed := sim.run(60, 70)

	// THEN
	for _, tier := range committed {
		assert.Equal(t, 1, tier)
	}
	assert.Equal(t, KindManual, sim.state.Status.Kind)
	assert.Equal(t, "MANUAL", sim.state.Status.String())
	assert.Nil(t, sim.state.Pending)
}

func TestState_ClearManualStartsFreshTimers(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.state.SetManual(3)
	sim.run(120, 40)

	// WHEN
	sim.state.ClearManual()
	committed := sim.run(31, 40)

	// THEN
	// the manual period does not count toward the hold time
	for _, tier := range committed[:30] {
		assert.Equal(t, 3, tier)
	}
	assert.Equal(t, 0, committed[30])
	assert.False(t, sim.state.Manual)
}

func TestState_ClearManualThenEscalate(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.state.SetManual(0)
	sim.run(60, 65)

	// WHEN
	sim.state.ClearManual()
	committed := sim.run(6, 65)

	// THEN
	assert.Equal(t, []int{0, 0, 0, 0, 0, 3}, committed)
}

func TestState_Clamp(t *testing.T) {
	// GIVEN
	sim := newSimulation(t, createExampleGroup())
	sim.run(6, 65)

	// WHEN
	sim.state.Clamp(2)

	// THEN
	assert.Equal(t, 1, sim.state.Committed)
	assert.Nil(t, sim.state.LockedUntil)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "Stable", Status{Kind: KindStable}.String())
	assert.Equal(t, "Escalated", Status{Kind: KindEscalated}.String())
	assert.Equal(t, "Pending Lvl3 (0.5s)", Status{Kind: KindPendingUp, PendingTier: 3, Remaining: 500 * time.Millisecond}.String())
	assert.Equal(t, "Locked (Hold 25s)", Status{Kind: KindLocked, Remaining: 24500 * time.Millisecond}.String())
}
