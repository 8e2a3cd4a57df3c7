package fans

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeValue(t *testing.T, path string, value int) {
	require.NoError(t, os.WriteFile(path, []byte(strconv.Itoa(value)), 0644))
}

func createPwmFan(t *testing.T, withEnable bool) *PwmFan {
	dir := t.TempDir()
	pwmPath := filepath.Join(dir, "pwm1")
	rpmPath := filepath.Join(dir, "fan1_input")
	writeValue(t, pwmPath, 100)
	writeValue(t, rpmPath, 850)

	enablePath := ""
	if withEnable {
		enablePath = filepath.Join(dir, "pwm1_enable")
		writeValue(t, enablePath, 2)
	}

	config := configuration.FanConfig{
		ID: "front",
		File: &configuration.FileFanConfig{
			PwmPath:       pwmPath,
			PwmEnablePath: enablePath,
			RpmPath:       rpmPath,
		},
	}
	fan, err := NewFan(config, nil)
	require.NoError(t, err)
	return fan.(*PwmFan)
}

func TestPwmFan_GetId(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, false)

	// WHEN
	result := fan.GetId()

	// THEN
	assert.Equal(t, "front", result)
	assert.Equal(t, "front", fan.GetName())
	assert.Equal(t, configuration.FanKindPwm, fan.GetKind())
}

func TestPwmFan_GetSpeed(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, false)

	// WHEN
	speed, err := fan.GetSpeed(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Speed{Value: 850, Rpm: 850}, speed)
}

func TestPwmFan_GetSpeed_Missing(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, false)
	require.NoError(t, os.Remove(fan.RpmInputPath))

	// WHEN
	_, err := fan.GetSpeed(context.Background())

	// THEN
	assert.Error(t, err)
}

func TestPwmFan_SetCommand(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, false)

	// WHEN
	err := fan.SetCommand(context.Background(), 180)

	// THEN
	assert.NoError(t, err)
	command, err := fan.GetCommand(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 180, command)
}

func TestPwmFan_SetCommand_IsClamped(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, false)

	// WHEN
	err := fan.SetCommand(context.Background(), 300)

	// THEN
	assert.NoError(t, err)
	value, _ := util.ReadIntFromFile(fan.PwmPath)
	assert.Equal(t, MaxPwmValue, value)
}

func TestPwmFan_ControlModeWithoutEnableFile(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, false)

	// WHEN
	err := fan.SetControlMode(context.Background(), ControlModePWM)
	mode, modeErr := fan.GetControlMode(context.Background())

	// THEN
	assert.NoError(t, err)
	assert.NoError(t, modeErr)
	assert.Equal(t, ControlModePWM, mode)
}

func TestPwmFan_SetControlMode(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, true)

	// WHEN
	err := fan.SetControlMode(context.Background(), ControlModePWM)

	// THEN
	assert.NoError(t, err)
	mode, err := fan.GetControlMode(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, ControlModePWM, mode)
}

func TestPwmFan_RestoreOriginalMode(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, true)
	writeValue(t, fan.PwmEnablePath, 5)
	require.NoError(t, fan.SetControlMode(context.Background(), ControlModePWM))

	// WHEN
	err := fan.Restore(context.Background())

	// THEN
	assert.NoError(t, err)
	value, _ := util.ReadIntFromFile(fan.PwmEnablePath)
	assert.Equal(t, 5, value)
}

func TestPwmFan_RestoreUntouchedFan(t *testing.T) {
	// GIVEN
	fan := createPwmFan(t, true)
	writeValue(t, fan.PwmEnablePath, 1)

	// WHEN
	err := fan.Restore(context.Background())

	// THEN
	assert.NoError(t, err)
	value, _ := util.ReadIntFromFile(fan.PwmEnablePath)
	assert.Equal(t, 1, value)
}

func TestNewFan_HwMonWithoutChip(t *testing.T) {
	// GIVEN
	config := configuration.FanConfig{
		ID:    "cpu",
		HwMon: &configuration.HwMonFanConfig{Platform: "nct6798", Index: 1},
	}

	// WHEN
	_, err := NewFan(config, nil)

	// THEN
	assert.EqualError(t, err, "fan cpu: no hwmon chip matched platform 'nct6798'")
}
