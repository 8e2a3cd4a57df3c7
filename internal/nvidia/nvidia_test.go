package nvidia

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingRunner struct {
	calls  []string
	output string
	err    error
}

func (r *recordingRunner) run(ctx context.Context, name string, args ...string) (string, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return r.output, r.err
}

func TestClient_SetFanControl(t *testing.T) {
	// GIVEN
	runner := &recordingRunner{}
	client := NewClient("", runner.run)

	// WHEN
	err := client.SetFanControl(context.Background(), 0, true)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"nvidia-settings -c :0 -a [gpu:0]/GPUFanControlState=1"}, runner.calls)
}

func TestClient_SetFanSpeed(t *testing.T) {
	// GIVEN
	runner := &recordingRunner{}
	client := NewClient(":1", runner.run)

	// WHEN
	err := client.SetFanSpeed(context.Background(), 1, 65)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, []string{"nvidia-settings -c :1 -a [fan:1]/GPUTargetFanSpeed=65"}, runner.calls)
}

func TestClient_GetFanSpeed(t *testing.T) {
	// GIVEN
	runner := &recordingRunner{output: "1480\n42"}
	client := NewClient("", runner.run)

	// WHEN
	speed, err := client.GetFanSpeed(context.Background(), 0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, FanSpeed{Rpm: 1480, Percent: 42}, speed)
}

func TestClient_GpuTemperature(t *testing.T) {
	// GIVEN
	runner := &recordingRunner{output: "61\n"}
	client := NewClient("", runner.run)

	// WHEN
	temp, err := client.GpuTemperature(context.Background(), 0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 61.0, temp)
	assert.Equal(t, []string{"nvidia-smi --query-gpu=temperature.gpu --format=csv,noheader,nounits -i 0"}, runner.calls)
}

func TestParseFanSpeed_Invalid(t *testing.T) {
	// WHEN
	_, err := parseFanSpeed("ERROR")

	// THEN
	assert.Error(t, err)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	// GIVEN
	runner := &recordingRunner{err: errors.New("cannot open display")}
	client := NewClient("", runner.run)
	for i := 0; i < breakerFailures; i++ {
		err := client.SetFanSpeed(context.Background(), 0, 50)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrDriverUnavailable)
	}

	// WHEN
	err := client.SetFanSpeed(context.Background(), 0, 50)

	// THEN
	assert.ErrorIs(t, err, ErrDriverUnavailable)
	assert.False(t, client.Available())
	assert.Len(t, runner.calls, breakerFailures)
}

func TestClientFor_IsShared(t *testing.T) {
	// WHEN
	a := ClientFor(":5")
	b := ClientFor(":5")

	// THEN
	assert.Same(t, a, b)
	assert.Equal(t, ":5", a.Display())
}
