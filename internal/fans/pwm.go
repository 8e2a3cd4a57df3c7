package fans

import (
	"context"
	"fmt"
	"sync"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/markusressel/fanhold/internal/util"
)

// PwmFan is a fan driven through a writable duty cycle file, usually a hwmon pwmN attribute.
type PwmFan struct {
	Config        configuration.FanConfig
	PwmPath       string
	PwmEnablePath string
	RpmInputPath  string

	mu sync.Mutex
	// pwm_enable value found before the first mode change, -1 if unknown
	originalPwmEnabled int
	originalRecorded   bool
}

func NewPwmFan(config configuration.FanConfig, pwmPath, pwmEnablePath, rpmInputPath string) *PwmFan {
	return &PwmFan{
		Config:             config,
		PwmPath:            pwmPath,
		PwmEnablePath:      pwmEnablePath,
		RpmInputPath:       rpmInputPath,
		originalPwmEnabled: -1,
	}
}

func (fan *PwmFan) GetId() string {
	return fan.Config.ID
}

func (fan *PwmFan) GetName() string {
	return displayName(fan.Config)
}

func (fan *PwmFan) GetKind() configuration.FanKind {
	return configuration.FanKindPwm
}

func (fan *PwmFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *PwmFan) GetSpeed(ctx context.Context) (Speed, error) {
	rpm, err := util.ReadIntFromFile(fan.RpmInputPath)
	if err != nil {
		return Speed{}, err
	}
	return Speed{Value: rpm, Rpm: rpm}, nil
}

func (fan *PwmFan) GetCommand(ctx context.Context) (int, error) {
	return util.ReadIntFromFile(fan.PwmPath)
}

func (fan *PwmFan) SetCommand(ctx context.Context, pwm int) error {
	pwm = util.Coerce(pwm, MinPwmValue, MaxPwmValue)
	ui.Debug("Setting %s (%s) to %d ...", fan.GetId(), fan.PwmPath, pwm)
	return util.WriteIntToFile(pwm, fan.PwmPath)
}

func (fan *PwmFan) CommandRange() (int, int) {
	return MinPwmValue, MaxPwmValue
}

// GetControlMode reads pwmN_enable. Fans without an enable file are always in manual mode.
func (fan *PwmFan) GetControlMode(ctx context.Context) (ControlMode, error) {
	if len(fan.PwmEnablePath) <= 0 {
		return ControlModePWM, nil
	}
	value, err := util.ReadIntFromFile(fan.PwmEnablePath)
	if err != nil {
		return ControlModeDisabled, err
	}
	if value > int(ControlModePWM) {
		// 2 and above are chip specific automatic modes
		return ControlModeAutomatic, nil
	}
	return ControlMode(value), nil
}

// SetControlMode writes the given value to pwmN_enable
// Possible values (unsure if these are true for all scenarios):
// 0 - no control (results in max speed)
// 1 - manual pwm control
// 2 - motherboard pwm control
func (fan *PwmFan) SetControlMode(ctx context.Context, mode ControlMode) error {
	if len(fan.PwmEnablePath) <= 0 {
		return nil
	}
	fan.recordOriginalPwmEnabled()
	return fan.writePwmEnabled(int(mode))
}

func (fan *PwmFan) writePwmEnabled(value int) error {
	if err := util.WriteIntToFile(value, fan.PwmEnablePath); err != nil {
		return err
	}
	currentValue, err := util.ReadIntFromFile(fan.PwmEnablePath)
	if err != nil {
		return err
	}
	if currentValue != value {
		return fmt.Errorf("pwm mode stuck to %d", currentValue)
	}
	return nil
}

func (fan *PwmFan) recordOriginalPwmEnabled() {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if fan.originalRecorded {
		return
	}
	value, err := util.ReadIntFromFile(fan.PwmEnablePath)
	if err != nil {
		ui.Warning("Cannot read pwm_enable value of %s: %v", fan.GetId(), err)
		value = -1
	}
	fan.originalPwmEnabled = value
	fan.originalRecorded = true
}

// Restore writes back the pwm_enable value found before the first mode change.
// If it is unknown, control is handed to the mainboard.
func (fan *PwmFan) Restore(ctx context.Context) error {
	if len(fan.PwmEnablePath) <= 0 {
		return nil
	}
	fan.mu.Lock()
	recorded, original := fan.originalRecorded, fan.originalPwmEnabled
	fan.mu.Unlock()
	if !recorded {
		return nil
	}
	if original < 0 {
		original = int(ControlModeAutomatic)
	}
	return fan.writePwmEnabled(original)
}
