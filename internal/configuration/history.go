package configuration

type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	DbPath  string `json:"dbPath" yaml:"dbPath"`
	// time between two recorded samples
	Interval Duration `json:"interval" yaml:"interval"`
	// samples older than this are pruned
	Retention Duration    `json:"retention" yaml:"retention"`
	Jsonl     JsonlConfig `json:"jsonl" yaml:"jsonl"`
}

// JsonlConfig configures an additional rotating log file with one json sample per line.
type JsonlConfig struct {
	// empty disables the log
	Path       string `json:"path" yaml:"path"`
	MaxSizeMb  int    `json:"maxSizeMb" yaml:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups"`
}
