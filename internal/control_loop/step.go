package control_loop

import (
	"github.com/markusressel/fanhold/internal/util"
)

// StepControlLoop nudges the command by a fixed step towards the target.
// Fans differ wildly in their pwm to rpm curve, so instead of predicting
// the required command the loop follows the measured speed one small step at a time.
type StepControlLoop struct {
	// errors up to this value (inclusive) are ignored
	tolerance float64
	// command change applied per cycle
	step float64
	// errors above this value use a doubled step
	largeError float64
}

func NewStepControlLoop(tolerance float64, step float64, largeError float64) *StepControlLoop {
	return &StepControlLoop{
		tolerance:  tolerance,
		step:       step,
		largeError: largeError,
	}
}

func (l *StepControlLoop) InBand(target float64, measured float64) bool {
	return util.Abs(target-measured) <= l.tolerance
}

func (l *StepControlLoop) Loop(target float64, measured float64) float64 {
	err := target - measured
	if util.Abs(err) <= l.tolerance {
		return 0
	}

	step := l.step
	if util.Abs(err) > l.largeError {
		step *= 2
	}

	if err > 0 {
		// too slow, speed up
		return step
	}
	return -step
}
