package fans

import (
	"context"
	"fmt"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/hwmon"
	"github.com/markusressel/fanhold/internal/nvidia"
	"github.com/markusressel/fanhold/internal/util"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0

	MaxPercentValue = 100
	MinPercentValue = 0

	// used when the current pwm value of a fan cannot be read
	DefaultPwmValue = 128
)

type ControlMode int

const (
	// ControlModeDisabled completely disables control, resulting in a 100% voltage/PWM signal output
	ControlModeDisabled ControlMode = 0
	// ControlModePWM enables manual, fixed speed control via setting the pwm value
	ControlModePWM ControlMode = 1
	// ControlModeAutomatic enables automatic control by the mainboard or the gpu driver
	ControlModeAutomatic ControlMode = 2
)

func (m ControlMode) String() string {
	switch m {
	case ControlModeDisabled:
		return "disabled"
	case ControlModePWM:
		return "manual"
	case ControlModeAutomatic:
		return "auto"
	}
	return fmt.Sprintf("unknown(%d)", int(m))
}

// Speed is a measurement of a fan.
type Speed struct {
	// Value is in the unit of the fan kind: rpm for pwm fans, percent for driver fans
	Value int
	Rpm   int
}

type Fan interface {
	GetId() string
	GetName() string
	GetKind() configuration.FanKind
	GetConfig() configuration.FanConfig

	// GetSpeed measures the current speed of this fan
	GetSpeed(ctx context.Context) (Speed, error)

	// GetCommand returns the current command, a pwm value or a percentage
	GetCommand(ctx context.Context) (int, error)
	SetCommand(ctx context.Context, value int) error
	// CommandRange is the legal range of SetCommand
	CommandRange() (min int, max int)

	GetControlMode(ctx context.Context) (ControlMode, error)
	SetControlMode(ctx context.Context, mode ControlMode) error

	// Restore hands the fan back to the control it was in before fanhold took over
	Restore(ctx context.Context) error
}

// NewFan creates the fan of the given configuration. chips are only needed for hwmon fans.
func NewFan(config configuration.FanConfig, chips []*hwmon.Chip) (Fan, error) {
	switch {
	case config.HwMon != nil:
		paths, err := hwmon.ResolveFan(chips, *config.HwMon)
		if err != nil {
			return nil, fmt.Errorf("fan %s: %w", config.ID, err)
		}
		return NewPwmFan(config, paths.PwmPath, paths.PwmEnablePath, paths.RpmInputPath), nil

	case config.File != nil:
		return NewPwmFan(config,
			util.ExpandPath(config.File.PwmPath),
			util.ExpandPath(config.File.PwmEnablePath),
			util.ExpandPath(config.File.RpmPath),
		), nil

	case config.Nvidia != nil:
		client := nvidia.ClientFor(config.Nvidia.Display)
		return NewNvidiaFan(config, client), nil
	}

	return nil, fmt.Errorf("no matching fan type for fan: %s", config.ID)
}

func displayName(config configuration.FanConfig) string {
	if len(config.Name) > 0 {
		return config.Name
	}
	return config.ID
}
