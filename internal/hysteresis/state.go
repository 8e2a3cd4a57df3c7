package hysteresis

import (
	"time"

	"github.com/markusressel/fanhold/internal/configuration"
)

// State is the runtime state of a single fan group. It is not safe for concurrent use,
// the owner evaluates it once per tick.
type State struct {
	Committed int `json:"committed"`
	// demanded tier of the last evaluation
	Demanded     int        `json:"demanded"`
	Pending      *int       `json:"pending,omitempty"`
	PendingSince *time.Time `json:"pendingSince,omitempty"`
	LockedUntil  *time.Time `json:"lockedUntil,omitempty"`
	Manual       bool       `json:"manual"`
	ManualTier   int        `json:"manualTier"`
	Status       Status     `json:"status"`
}

func NewState() *State {
	return &State{Status: Status{Kind: KindInit}}
}

// Evaluate advances the state machine with the currently demanded tier and returns the
// resulting status. The committed tier afterward is the tier the group has to run.
func (s *State) Evaluate(group configuration.GroupConfig, demanded int, now time.Time) Status {
	s.Demanded = demanded

	if s.Manual {
		s.Committed = s.ManualTier
		s.clearTimers()
		s.Status = Status{Kind: KindManual}
		return s.Status
	}

	switch {
	case demanded > s.Committed:
		s.LockedUntil = nil
		s.escalate(group.DelayUp.Std(), demanded, now)
	case demanded < s.Committed:
		s.clearPending()
		s.descend(group.HoldTimeOf(s.Committed), demanded, now)
	default:
		s.clearTimers()
		s.Status = Status{Kind: KindStable}
	}
	return s.Status
}

func (s *State) escalate(delayUp time.Duration, demanded int, now time.Time) {
	switch {
	case s.Pending == nil || demanded > *s.Pending:
		// rising demand restarts the timer at the higher tier
		s.Pending = &demanded
		s.PendingSince = &now
	case demanded < *s.Pending:
		// demand of at least this tier has been continuous since PendingSince
		s.Pending = &demanded
	}

	elapsed := now.Sub(*s.PendingSince)
	if elapsed >= delayUp {
		s.Committed = *s.Pending
		s.clearPending()
		s.Status = Status{Kind: KindEscalated}
		return
	}
	s.Status = Status{Kind: KindPendingUp, PendingTier: *s.Pending, Remaining: delayUp - elapsed}
}

func (s *State) descend(holdTime time.Duration, demanded int, now time.Time) {
	if s.LockedUntil == nil {
		until := now.Add(holdTime)
		s.LockedUntil = &until
	}
	if now.Before(*s.LockedUntil) {
		s.Status = Status{Kind: KindLocked, Remaining: s.LockedUntil.Sub(now)}
		return
	}
	s.Committed = demanded
	s.LockedUntil = nil
	s.Status = Status{Kind: KindStable}
}

// SetManual pins the group to tier until ClearManual is called.
func (s *State) SetManual(tier int) {
	s.Manual = true
	s.ManualTier = tier
	s.Committed = tier
	s.clearTimers()
	s.Status = Status{Kind: KindManual}
}

// ClearManual returns the group to automatic control. The committed tier stays at the
// manual tier, the next evaluation starts with fresh timers.
func (s *State) ClearManual() {
	if !s.Manual {
		return
	}
	s.Manual = false
	s.ManualTier = 0
	s.clearTimers()
	s.Status = Status{Kind: KindStable}
}

// Clamp limits all tiers to the available profiles, used when the group configuration changes.
func (s *State) Clamp(profiles int) {
	maxTier := max(profiles-1, 0)
	s.Committed = min(s.Committed, maxTier)
	s.Demanded = min(s.Demanded, maxTier)
	s.ManualTier = min(s.ManualTier, maxTier)
	s.clearTimers()
}

func (s *State) clearPending() {
	s.Pending = nil
	s.PendingSince = nil
}

func (s *State) clearTimers() {
	s.clearPending()
	s.LockedUntil = nil
}
