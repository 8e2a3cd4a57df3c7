package history

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/engine"
	"github.com/markusressel/fanhold/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	duration, err := ParseRange("1h")
	assert.NoError(t, err)
	assert.Equal(t, time.Hour, duration)

	duration, err = ParseRange("1mo")
	assert.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, duration)

	_, err = ParseRange("2h")
	assert.True(t, errors.Is(err, ErrInvalidRange))
	assert.ErrorContains(t, err, "use one of: 1m | 5m | 30m | 1h | 6h | 1d | 1w | 1mo")
}

func createSnapshot(now time.Time, cpu float64, tier int) *engine.Snapshot {
	rpm := 1200
	return &engine.Snapshot{
		Time:    now,
		Tick:    1,
		Groups:  []engine.GroupSnapshot{{ID: "system", CommittedTier: tier}},
		Fans:    []engine.FanSnapshot{{ID: "front", Rpm: &rpm}},
		Sensors: []engine.SensorSnapshot{{ID: "cpu", Value: &cpu}, {ID: "drives"}},
	}
}

func createRecorder(t *testing.T, jsonlPath string) (*Recorder, *clock.Mock) {
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	store := persistence.NewPersistence(filepath.Join(t.TempDir(), "fanhold.db"))
	require.NoError(t, store.Init())
	config := configuration.HistoryConfig{
		Enabled:   true,
		Interval:  configuration.Duration(5 * time.Second),
		Retention: configuration.Duration(time.Hour),
		Jsonl:     configuration.JsonlConfig{Path: jsonlPath, MaxSizeMb: 1, MaxBackups: 1},
	}
	recorder := NewRecorder(config, store, mockClock)
	t.Cleanup(func() {
		_ = recorder.Close()
	})
	return recorder, mockClock
}

func TestSampleOf(t *testing.T) {
	// GIVEN
	now := time.Now()
	snapshot := createSnapshot(now, 55, 2)

	// WHEN
	sample := SampleOf(snapshot)

	// THEN
	assert.Equal(t, now, sample.Time)
	assert.Equal(t, 55.0, *sample.Sensors["cpu"])
	assert.Nil(t, sample.Sensors["drives"])
	assert.Equal(t, 2, sample.Groups["system"])
	assert.Equal(t, 1200, *sample.Fans["front"])
}

func TestRecorder_NothingBeforeFirstTick(t *testing.T) {
	// GIVEN
	recorder, _ := createRecorder(t, "")

	// WHEN
	err := recorder.Record()
	samples, queryErr := recorder.Query("1h")

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, queryErr)
	assert.Empty(t, samples)
}

func TestRecorder_RecordAndQuery(t *testing.T) {
	// GIVEN
	jsonlPath := filepath.Join(t.TempDir(), "history.jsonl")
	recorder, mockClock := createRecorder(t, jsonlPath)

	// WHEN
	for i := range 20 {
		recorder.Observe(createSnapshot(mockClock.Now(), 40+float64(i), 0))
		require.NoError(t, recorder.Record())
		mockClock.Add(5 * time.Second)
	}
	lastMinute, err := recorder.Query("1m")
	require.NoError(t, err)
	lastHour, err := recorder.Query("1h")
	require.NoError(t, err)

	// THEN
	assert.Len(t, lastMinute, 12)
	assert.Len(t, lastHour, 20)
	assert.Equal(t, 59.0, *lastHour[19].Sensors["cpu"])

	file, err := os.Open(jsonlPath)
	require.NoError(t, err)
	defer file.Close()
	lines := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines++
	}
	assert.Equal(t, 20, lines)
}

func TestRecorder_InvalidRange(t *testing.T) {
	recorder, _ := createRecorder(t, "")
	_, err := recorder.Query("forever")
	assert.True(t, errors.Is(err, ErrInvalidRange))
}

func TestRecorder_PrunesOldSamples(t *testing.T) {
	// GIVEN
	recorder, mockClock := createRecorder(t, "")
	recorder.Observe(createSnapshot(mockClock.Now(), 40, 0))
	require.NoError(t, recorder.Record())

	// WHEN
	mockClock.Add(2 * time.Hour)
	recorder.Observe(createSnapshot(mockClock.Now(), 45, 1))
	require.NoError(t, recorder.Record())

	// THEN
	samples, err := recorder.Query("1d")
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 1, samples[0].Groups["system"])
}
