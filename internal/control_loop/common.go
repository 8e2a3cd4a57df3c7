package control_loop

type ControlLoop interface {
	// Loop advances the control loop and returns the change to apply to the current command
	Loop(target float64, measured float64) float64
	// InBand reports whether measured is close enough to target to need no correction
	InBand(target float64, measured float64) bool
}
