package engine

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/hysteresis"
	"github.com/markusressel/fanhold/internal/ui"
)

const DefaultChangeLogSize = 100

// Change is a change of the committed tier of a group.
type Change struct {
	Time    time.Time           `json:"time"`
	Group   string              `json:"group"`
	From    int                 `json:"from"`
	To      int                 `json:"to"`
	Profile string              `json:"profile"`
	Reason  string              `json:"reason"`
	Sensors map[string]*float64 `json:"sensors"`
}

func (c Change) String() string {
	var values []string
	for id, value := range c.Sensors {
		if value == nil {
			values = append(values, fmt.Sprintf("%s=n/a", id))
		} else {
			values = append(values, fmt.Sprintf("%s=%.1f", id, *value))
		}
	}
	sort.Strings(values)
	return fmt.Sprintf("Group %s: tier %d -> %d (%s) %s [%s]", c.Group, c.From, c.To, c.Profile, c.Reason, strings.Join(values, ", "))
}

func newChange(now time.Time, group configuration.GroupConfig, from int, to int, status hysteresis.Status, values map[string]*float64) Change {
	sensors := map[string]*float64{}
	for _, id := range group.TempSources {
		if value := values[id]; value != nil {
			v := *value
			sensors[id] = &v
		} else {
			sensors[id] = nil
		}
	}
	return Change{
		Time:    now,
		Group:   group.ID,
		From:    from,
		To:      to,
		Profile: group.Profiles[to].Name,
		Reason:  status.String(),
		Sensors: sensors,
	}
}

// ChangeLog keeps the most recent tier changes.
type ChangeLog struct {
	mu      sync.Mutex
	size    int
	changes []Change
}

func NewChangeLog(size int) *ChangeLog {
	return &ChangeLog{size: size}
}

// Add logs the change and keeps it in memory.
func (l *ChangeLog) Add(change Change) {
	ui.Info("%s", change.String())

	l.mu.Lock()
	defer l.mu.Unlock()
	l.changes = append(l.changes, change)
	if len(l.changes) > l.size {
		l.changes = l.changes[len(l.changes)-l.size:]
	}
}

func (l *ChangeLog) Items() []Change {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Change{}, l.changes...)
}
