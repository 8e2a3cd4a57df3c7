package history

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/persistence"
	"github.com/markusressel/fanhold/internal/ui"
	"go.uber.org/multierr"
	"gopkg.in/natefinch/lumberjack.v2"
)

const pruneInterval = time.Hour

// Recorder samples the engine state in a fixed interval.
type Recorder struct {
	clock     clock.Clock
	store     persistence.Persistence
	interval  time.Duration
	retention time.Duration

	latest atomic.Pointer[engine.Snapshot]

	mu        sync.Mutex
	jsonl     *lumberjack.Logger
	lastPrune time.Time
}

func NewRecorder(config configuration.HistoryConfig, store persistence.Persistence, clk clock.Clock) *Recorder {
	if clk == nil {
		clk = clock.New()
	}
	r := &Recorder{
		clock:     clk,
		store:     store,
		interval:  config.Interval.Std(),
		retention: config.Retention.Std(),
	}
	if len(config.Jsonl.Path) > 0 {
		r.jsonl = &lumberjack.Logger{
			Filename:   config.Jsonl.Path,
			MaxSize:    config.Jsonl.MaxSizeMb,
			MaxBackups: config.Jsonl.MaxBackups,
		}
	}
	return r
}

// Observe keeps the latest snapshot, it is registered as an engine listener.
func (r *Recorder) Observe(snapshot *engine.Snapshot) {
	r.latest.Store(snapshot)
}

// Run records a sample every interval until ctx is done.
func (r *Recorder) Run(ctx context.Context) error {
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case <-ticker.C:
			if err := r.Record(); err != nil {
				ui.Warning("Unable to record history: %v", err)
			}
		}
	}
}

// Record stores a sample of the latest snapshot. Nothing is recorded before the first tick.
func (r *Recorder) Record() error {
	snapshot := r.latest.Load()
	if snapshot == nil {
		return nil
	}
	sample := SampleOf(snapshot)

	r.mu.Lock()
	defer r.mu.Unlock()

	var result error
	if err := r.store.SaveSample(sample); err != nil {
		result = multierr.Append(result, err)
	}
	if r.jsonl != nil {
		line, err := json.Marshal(sample)
		if err == nil {
			_, err = r.jsonl.Write(append(line, '\n'))
		}
		result = multierr.Append(result, err)
	}

	now := r.clock.Now()
	if r.retention > 0 && now.Sub(r.lastPrune) >= pruneInterval {
		pruned, err := r.store.Prune(now.Add(-r.retention))
		if err != nil {
			result = multierr.Append(result, err)
		} else if pruned > 0 {
			ui.Debug("Pruned %d history samples", pruned)
		}
		r.lastPrune = now
	}
	return result
}

// Query returns the samples of a named range up to now, at most MaxEntries.
func (r *Recorder) Query(rangeName string) ([]persistence.Sample, error) {
	duration, err := ParseRange(rangeName)
	if err != nil {
		return nil, err
	}
	now := r.clock.Now()
	return r.store.LoadSamples(now.Add(-duration), now, MaxEntries)
}

func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jsonl == nil {
		return nil
	}
	return r.jsonl.Close()
}

// SampleOf reduces a snapshot to the values that are kept in the history.
func SampleOf(snapshot *engine.Snapshot) persistence.Sample {
	sample := persistence.Sample{
		Time:    snapshot.Time,
		Sensors: map[string]*float64{},
		Groups:  map[string]int{},
		Fans:    map[string]*int{},
	}
	for _, sensor := range snapshot.Sensors {
		sample.Sensors[sensor.ID] = sensor.Value
	}
	for _, group := range snapshot.Groups {
		sample.Groups[group.ID] = group.CommittedTier
	}
	for _, fan := range snapshot.Fans {
		sample.Fans[fan.ID] = fan.Rpm
	}
	return sample
}
