package configuration

type ControllerConfig struct {
	// rpm band around the target in which a pwm fan counts as converged
	Tolerance int `json:"tolerance" yaml:"tolerance"`
	// pwm change per tick
	Step int `json:"step" yaml:"step"`
	// rpm error above which the step is doubled
	LargeError int `json:"largeError" yaml:"largeError"`
	// number of consecutive ticks outside the band before a warning is logged
	ConvergenceTicks int `json:"convergenceTicks" yaml:"convergenceTicks"`
}
