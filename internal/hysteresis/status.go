package hysteresis

import (
	"fmt"
	"math"
	"time"
)

type Kind int

const (
	// KindInit no tick has been evaluated yet
	KindInit Kind = iota
	KindStable
	KindPendingUp
	KindEscalated
	KindLocked
	KindManual
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "Init"
	case KindStable:
		return "Stable"
	case KindPendingUp:
		return "PendingUp"
	case KindEscalated:
		return "Escalated"
	case KindLocked:
		return "Locked"
	case KindManual:
		return "Manual"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Status is the display state of a group. PendingTier is only set for KindPendingUp,
// Remaining only for KindPendingUp and KindLocked.
type Status struct {
	Kind        Kind          `json:"kind"`
	PendingTier int           `json:"pendingTier,omitempty"`
	Remaining   time.Duration `json:"remaining,omitempty"`
}

// String renders the status the way it is shown to the user.
func (s Status) String() string {
	switch s.Kind {
	case KindPendingUp:
		return fmt.Sprintf("Pending Lvl%d (%.1fs)", s.PendingTier, s.Remaining.Seconds())
	case KindLocked:
		return fmt.Sprintf("Locked (Hold %ds)", int(math.Ceil(s.Remaining.Seconds())))
	case KindManual:
		return "MANUAL"
	default:
		return s.Kind.String()
	}
}
