package configuration

const (
	AggregationMax     = "max"
	AggregationMin     = "min"
	AggregationAverage = "average"
)

type SensorConfig struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// reducer applied to all readable sources, defaults to max
	Aggregation string         `json:"aggregation,omitempty" yaml:"aggregation,omitempty"`
	Sources     []SourceConfig `json:"sources" yaml:"sources"`
}

// SourceConfig is a single raw reading of a sensor. Exactly one sub-configuration must be set.
type SourceConfig struct {
	Label  string                 `json:"label,omitempty" yaml:"label,omitempty"`
	HwMon  *HwMonSourceConfig     `json:"hwmon,omitempty" yaml:"hwmon,omitempty"`
	File   *FileSourceConfig      `json:"file,omitempty" yaml:"file,omitempty"`
	Cmd    *CmdSourceConfig       `json:"cmd,omitempty" yaml:"cmd,omitempty"`
	Nvidia *NvidiaSourceConfig    `json:"nvidia,omitempty" yaml:"nvidia,omitempty"`
	Disk   *DiskSourceConfig      `json:"disk,omitempty" yaml:"disk,omitempty"`
	Mdstat *MdstatSourceConfig    `json:"mdstat,omitempty" yaml:"mdstat,omitempty"`
	Sensor *SensorRefSourceConfig `json:"sensor,omitempty" yaml:"sensor,omitempty"`
}

type HwMonSourceConfig struct {
	// regex matched against the platform of the chip
	Platform string `json:"platform" yaml:"platform"`
	// tempN_input index, starting at 1
	Index int `json:"index" yaml:"index"`
}

type FileSourceConfig struct {
	// file containing a temperature in millidegrees
	Path string `json:"path" yaml:"path"`
}

type CmdSourceConfig struct {
	Exec string   `json:"exec" yaml:"exec"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

type NvidiaSourceConfig struct {
	Gpu int `json:"gpu" yaml:"gpu"`
}

type DiskSourceConfig struct {
	// block device name or path, e.g. sda or /dev/sda
	Device string `json:"device" yaml:"device"`
}

type MdstatSourceConfig struct {
	// defaults to /proc/mdstat
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// restrict to a single array, e.g. md0
	Array string `json:"array,omitempty" yaml:"array,omitempty"`
}

// SensorRefSourceConfig uses the aggregated value of another sensor.
type SensorRefSourceConfig struct {
	ID string `json:"id" yaml:"id"`
}
