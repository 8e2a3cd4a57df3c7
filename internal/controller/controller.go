package controller

import (
	"context"
	"errors"
	"time"

	"github.com/asecurityteam/rolling"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/control_loop"
	"github.com/markusressel/fanhold/internal/fans"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/markusressel/fanhold/internal/util"
)

type FanStatus string

const (
	// FanStatusOk the fan runs at its target
	FanStatusOk FanStatus = "OK"
	// FanStatusAdjusting the measured speed is outside the tolerance band
	FanStatusAdjusting FanStatus = "ADJ"
	FanStatusError     FanStatus = "ERR"
	// FanStatusStale a hardware call timed out, the last command is kept
	FanStatusStale FanStatus = "STALE"
)

// Result is the outcome of a single controller update.
type Result struct {
	Target int `json:"target"`
	// measured speed in the unit of the fan kind
	Measured *int `json:"measured"`
	Rpm      *int `json:"rpm"`
	Command  *int `json:"command"`
	// the fan is controlled by the mainboard or driver
	Auto   bool      `json:"auto"`
	Status FanStatus `json:"status"`
	Error  string    `json:"error,omitempty"`
}

const DefaultTimeout = 500 * time.Millisecond

type Options struct {
	Tolerance  int
	Step       int
	LargeError int
	// ticks outside the tolerance band before a warning is logged
	ConvergenceTicks int
	// bound of every hardware call
	Timeout time.Duration
}

func OptionsFromConfig(config *configuration.Configuration) Options {
	return Options{
		Tolerance:        config.Controller.Tolerance,
		Step:             config.Controller.Step,
		LargeError:       config.Controller.LargeError,
		ConvergenceTicks: config.Controller.ConvergenceTicks,
		Timeout:          config.HardwareTimeout.Std(),
	}
}

// SpeedController drives a single fan to the target of the active tier.
// It is not safe for concurrent use, the engine updates it once per tick.
type SpeedController struct {
	fan     fans.Fan
	loop    control_loop.ControlLoop
	options Options

	command       int
	commandKnown  bool
	manualClaimed bool
	autoRestored  bool
	lastTarget    int

	// 1 for every tick outside the tolerance band
	outOfBand *rolling.PointPolicy
	warned    bool

	lastStatus FanStatus
}

func NewSpeedController(fan fans.Fan, options Options) *SpeedController {
	convergenceTicks := max(options.ConvergenceTicks, 1)
	options.ConvergenceTicks = convergenceTicks
	if options.Timeout <= 0 {
		options.Timeout = DefaultTimeout
	}
	return &SpeedController{
		fan: fan,
		loop: control_loop.NewStepControlLoop(
			float64(options.Tolerance),
			float64(options.Step),
			float64(options.LargeError),
		),
		options:    options,
		lastTarget: -1,
		outOfBand:  util.CreateRollingWindow(convergenceTicks),
	}
}

func (c *SpeedController) Fan() fans.Fan {
	return c.fan
}

// Update applies the target of the given tier to the fan.
// Tier 0 of a driver fan hands the fan back to the driver.
func (c *SpeedController) Update(ctx context.Context, tier int, target int) Result {
	var result Result
	if c.fan.GetKind() == configuration.FanKindDriver {
		result = c.updateDriver(ctx, tier, target)
	} else {
		result = c.updatePwm(ctx, target)
	}

	if result.Status != c.lastStatus {
		switch result.Status {
		case FanStatusError, FanStatusStale:
			ui.Warning("Fan %s: %s %s", c.fan.GetId(), result.Status, result.Error)
		default:
			if c.lastStatus == FanStatusError || c.lastStatus == FanStatusStale {
				ui.Info("Fan %s recovered", c.fan.GetId())
			}
		}
		c.lastStatus = result.Status
	}
	return result
}

func (c *SpeedController) updatePwm(ctx context.Context, target int) Result {
	result := Result{Target: target}

	if target != c.lastTarget {
		util.FillWindow(c.outOfBand, c.options.ConvergenceTicks, 0)
		c.warned = false
		c.lastTarget = target
	}

	if !c.commandKnown {
		current, err := util.CallWithTimeout(ctx, c.options.Timeout, c.fan.GetCommand)
		if err != nil {
			ui.Debug("Cannot read pwm of %s, starting at %d: %v", c.fan.GetId(), fans.DefaultPwmValue, err)
			current = fans.DefaultPwmValue
		}
		c.command = current
		c.commandKnown = true
	}

	if err := c.claimManual(ctx); err != nil {
		return c.failed(result, err)
	}

	if target <= 0 {
		if err := c.write(ctx, fans.MinPwmValue); err != nil {
			return c.failed(result, err)
		}
		_ = c.measure(ctx, &result)
		result.Command = intPtr(c.command)
		result.Status = FanStatusOk
		return result
	}

	speed, err := util.CallWithTimeout(ctx, c.options.Timeout, c.fan.GetSpeed)
	if err != nil {
		// never guess, keep the last command
		return c.failed(result, err)
	}
	result.Measured = intPtr(speed.Value)
	result.Rpm = intPtr(speed.Rpm)

	delta := c.loop.Loop(float64(target), float64(speed.Value))
	minCommand, maxCommand := c.fan.CommandRange()
	next := util.Coerce(c.command+int(delta), minCommand, maxCommand)
	if err = c.write(ctx, next); err != nil {
		return c.failed(result, err)
	}
	result.Command = intPtr(c.command)

	if c.loop.InBand(float64(target), float64(speed.Value)) {
		c.outOfBand.Append(0)
		c.warned = false
		result.Status = FanStatusOk
		return result
	}

	c.outOfBand.Append(1)
	result.Status = FanStatusAdjusting
	if !c.warned && int(util.GetWindowSum(c.outOfBand)) >= c.options.ConvergenceTicks {
		ui.WarningAndNotify("Fan Not Converging", "Fan %s did not reach %d rpm within %d ticks (measured %d rpm, pwm %d)",
			c.fan.GetId(), target, c.options.ConvergenceTicks, speed.Value, c.command)
		c.warned = true
	}
	return result
}

func (c *SpeedController) updateDriver(ctx context.Context, tier int, target int) Result {
	result := Result{Target: target}

	if tier <= 0 {
		result.Auto = true
		if !c.autoRestored {
			_, err := util.CallWithTimeout(ctx, c.options.Timeout, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, c.fan.SetControlMode(ctx, fans.ControlModeAutomatic)
			})
			if err != nil {
				return c.failed(result, err)
			}
			ui.Info("Fan %s handed back to automatic control", c.fan.GetId())
			c.autoRestored = true
			c.manualClaimed = false
			c.commandKnown = false
		}
		if err := c.measure(ctx, &result); err != nil {
			return c.failed(result, err)
		}
		result.Status = FanStatusOk
		return result
	}

	if err := c.claimManual(ctx); err != nil {
		return c.failed(result, err)
	}
	c.autoRestored = false

	minCommand, maxCommand := c.fan.CommandRange()
	if err := c.write(ctx, util.Coerce(target, minCommand, maxCommand)); err != nil {
		return c.failed(result, err)
	}
	result.Command = intPtr(c.command)

	if err := c.measure(ctx, &result); err != nil {
		return c.failed(result, err)
	}
	// the driver regulates the fan itself
	result.Status = FanStatusOk
	return result
}

func (c *SpeedController) claimManual(ctx context.Context) error {
	if c.manualClaimed {
		return nil
	}
	_, err := util.CallWithTimeout(ctx, c.options.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.fan.SetControlMode(ctx, fans.ControlModePWM)
	})
	if err != nil {
		return err
	}
	ui.Debug("Claimed manual control of fan %s", c.fan.GetId())
	c.manualClaimed = true
	return nil
}

// write sends value to the fan unless it is the current command
func (c *SpeedController) write(ctx context.Context, value int) error {
	if c.commandKnown && value == c.command {
		return nil
	}
	_, err := util.CallWithTimeout(ctx, c.options.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.fan.SetCommand(ctx, value)
	})
	if err != nil {
		return err
	}
	c.command = value
	c.commandKnown = true
	return nil
}

func (c *SpeedController) measure(ctx context.Context, result *Result) error {
	speed, err := util.CallWithTimeout(ctx, c.options.Timeout, c.fan.GetSpeed)
	if err != nil {
		return err
	}
	result.Measured = intPtr(speed.Value)
	result.Rpm = intPtr(speed.Rpm)
	return nil
}

func (c *SpeedController) failed(result Result, err error) Result {
	if c.commandKnown {
		result.Command = intPtr(c.command)
	}
	result.Error = err.Error()
	if errors.Is(err, context.DeadlineExceeded) {
		result.Status = FanStatusStale
	} else {
		result.Status = FanStatusError
	}
	return result
}

// Restore hands the fan back to the control mode it had before.
func (c *SpeedController) Restore(ctx context.Context) error {
	_, err := util.CallWithTimeout(ctx, c.options.Timeout, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.fan.Restore(ctx)
	})
	c.manualClaimed = false
	c.commandKnown = false
	return err
}

func intPtr(v int) *int {
	return &v
}
