package fans

import (
	"context"
	"sync"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/nvidia"
	"github.com/markusressel/fanhold/internal/ui"
)

// NvidiaDriver is the part of the nvidia client used by driver fans.
type NvidiaDriver interface {
	SetFanControl(ctx context.Context, gpu int, manual bool) error
	SetFanSpeed(ctx context.Context, fan int, percent int) error
	GetFanSpeed(ctx context.Context, fan int) (nvidia.FanSpeed, error)
}

// NvidiaFan is a gpu fan regulated by the driver. Commands are percentages.
type NvidiaFan struct {
	Config configuration.FanConfig
	driver NvidiaDriver

	mu         sync.Mutex
	mode       ControlMode
	modeKnown  bool
	lastTarget int
}

func NewNvidiaFan(config configuration.FanConfig, driver NvidiaDriver) *NvidiaFan {
	return &NvidiaFan{
		Config:     config,
		driver:     driver,
		lastTarget: -1,
	}
}

func (fan *NvidiaFan) GetId() string {
	return fan.Config.ID
}

func (fan *NvidiaFan) GetName() string {
	return displayName(fan.Config)
}

func (fan *NvidiaFan) GetKind() configuration.FanKind {
	return configuration.FanKindDriver
}

func (fan *NvidiaFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *NvidiaFan) GetSpeed(ctx context.Context) (Speed, error) {
	speed, err := fan.driver.GetFanSpeed(ctx, fan.Config.Nvidia.Fan)
	if err != nil {
		return Speed{}, err
	}
	return Speed{Value: speed.Percent, Rpm: speed.Rpm}, nil
}

// GetCommand returns the last acknowledged target, the driver does not report it back.
func (fan *NvidiaFan) GetCommand(ctx context.Context) (int, error) {
	fan.mu.Lock()
	lastTarget := fan.lastTarget
	fan.mu.Unlock()
	if lastTarget < 0 {
		speed, err := fan.GetSpeed(ctx)
		if err != nil {
			return -1, err
		}
		return speed.Value, nil
	}
	return lastTarget, nil
}

func (fan *NvidiaFan) SetCommand(ctx context.Context, percent int) error {
	ui.Debug("Setting %s (gpu %d, fan %d) to %d%% ...", fan.GetId(), fan.Config.Nvidia.Gpu, fan.Config.Nvidia.Fan, percent)
	if err := fan.driver.SetFanSpeed(ctx, fan.Config.Nvidia.Fan, percent); err != nil {
		return err
	}
	fan.mu.Lock()
	fan.lastTarget = percent
	fan.mu.Unlock()
	return nil
}

func (fan *NvidiaFan) CommandRange() (int, int) {
	return MinPercentValue, MaxPercentValue
}

func (fan *NvidiaFan) GetControlMode(ctx context.Context) (ControlMode, error) {
	fan.mu.Lock()
	defer fan.mu.Unlock()
	if !fan.modeKnown {
		return ControlModeAutomatic, nil
	}
	return fan.mode, nil
}

func (fan *NvidiaFan) SetControlMode(ctx context.Context, mode ControlMode) error {
	manual := mode == ControlModePWM
	if err := fan.driver.SetFanControl(ctx, fan.Config.Nvidia.Gpu, manual); err != nil {
		return err
	}
	fan.mu.Lock()
	defer fan.mu.Unlock()
	fan.mode = mode
	fan.modeKnown = true
	if !manual {
		fan.lastTarget = -1
	}
	return nil
}

// Restore hands the fan back to the driver.
func (fan *NvidiaFan) Restore(ctx context.Context) error {
	return fan.SetControlMode(ctx, ControlModeAutomatic)
}
