package configuration

type FanKind string

const (
	FanKindPwm    FanKind = "pwm"
	FanKindDriver FanKind = "driver"
)

type FanConfig struct {
	ID     string           `json:"id" yaml:"id"`
	Name   string           `json:"name,omitempty" yaml:"name,omitempty"`
	HwMon  *HwMonFanConfig  `json:"hwmon,omitempty" yaml:"hwmon,omitempty"`
	File   *FileFanConfig   `json:"file,omitempty" yaml:"file,omitempty"`
	Nvidia *NvidiaFanConfig `json:"nvidia,omitempty" yaml:"nvidia,omitempty"`
}

// Kind is the unit of the targets of the group this fan belongs to:
// rpm for pwm fans, percent for driver fans.
func (f FanConfig) Kind() FanKind {
	if f.Nvidia != nil {
		return FanKindDriver
	}
	return FanKindPwm
}

type HwMonFanConfig struct {
	// regex matched against the platform of the chip
	Platform string `json:"platform" yaml:"platform"`
	// pwmN index, starting at 1
	Index int `json:"index" yaml:"index"`
	// fanN_input index, defaults to Index
	RpmChannel int `json:"rpmChannel,omitempty" yaml:"rpmChannel,omitempty"`
}

type FileFanConfig struct {
	PwmPath string `json:"pwmPath" yaml:"pwmPath"`
	// optional, control mode is not touched when empty
	PwmEnablePath string `json:"pwmEnablePath,omitempty" yaml:"pwmEnablePath,omitempty"`
	RpmPath       string `json:"rpmPath" yaml:"rpmPath"`
}

type NvidiaFanConfig struct {
	// X display used by nvidia-settings, defaults to :0
	Display string `json:"display,omitempty" yaml:"display,omitempty"`
	Gpu     int    `json:"gpu" yaml:"gpu"`
	Fan     int    `json:"fan" yaml:"fan"`
}
