package configuration

import (
	"errors"
	"fmt"
	"time"

	"github.com/markusressel/fanhold/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var ErrNoConfigFile = errors.New("no configuration file found")

type Configuration struct {
	// interval of the engine tick
	TickRate Duration `json:"tickRate" yaml:"tickRate"`
	// upper bound for a single hardware read or write
	HardwareTimeout Duration `json:"hardwareTimeout" yaml:"hardwareTimeout"`

	Controller ControllerConfig `json:"controller" yaml:"controller"`

	Sensors []SensorConfig `json:"sensors" yaml:"sensors"`
	Fans    []FanConfig    `json:"fans" yaml:"fans"`
	Groups  []GroupConfig  `json:"groups" yaml:"groups"`

	Api        ApiConfig        `json:"api" yaml:"api"`
	Statistics StatisticsConfig `json:"statistics" yaml:"statistics"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Mqtt       MqttConfig       `json:"mqtt" yaml:"mqtt"`
}

// InitConfig sets up the global viper instance used by the cli.
func InitConfig(cfgFile string) {
	v := viper.GetViper()
	v.SetConfigName("fanhold")

	if cfgFile != "" {
		// Use config file from the flag.
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
		}

		v.AddConfigPath(".")
		if len(home) > 0 {
			v.AddConfigPath(home)
		}
		v.AddConfigPath("/etc/fanhold/")
	}

	v.SetEnvPrefix("fanhold")
	v.AutomaticEnv()

	setDefaultValues(v)
}

func setDefaultValues(v *viper.Viper) {
	v.SetDefault("tickRate", "1s")
	v.SetDefault("hardwareTimeout", "500ms")

	v.SetDefault("controller.tolerance", 30)
	v.SetDefault("controller.step", 2)
	v.SetDefault("controller.largeError", 200)
	v.SetDefault("controller.convergenceTicks", 30)

	v.SetDefault("sensors", []SensorConfig{})
	v.SetDefault("fans", []FanConfig{})
	v.SetDefault("groups", []GroupConfig{})

	v.SetDefault("api.enabled", false)
	v.SetDefault("api.host", "localhost")
	v.SetDefault("api.port", 9001)

	v.SetDefault("statistics.enabled", false)
	v.SetDefault("statistics.port", 9000)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dbPath", "/var/lib/fanhold/fanhold.db")
	v.SetDefault("history.interval", "5s")
	v.SetDefault("history.retention", "744h")
	v.SetDefault("history.jsonl.path", "")
	v.SetDefault("history.jsonl.maxSizeMb", 10)
	v.SetDefault("history.jsonl.maxBackups", 5)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.clientId", "fanhold")
	v.SetDefault("mqtt.topic", "fanhold")
}

// DetectConfigFile locates the configuration file of the global viper instance
// and returns its path.
func DetectConfigFile() (string, error) {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", ErrNoConfigFile
		}
		return "", fmt.Errorf("error reading config file: %w", err)
	}
	// this is only populated _after_ ReadInConfig()
	return viper.ConfigFileUsed(), nil
}

// LoadConfig decodes the content of the given viper instance.
func LoadConfig(v *viper.Viper) (*Configuration, error) {
	config := &Configuration{}
	err := v.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		DurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode configuration: %w", err)
	}
	return config, nil
}

// TickDuration is the tick rate, falling back to one second for a zero value.
func (c *Configuration) TickDuration() time.Duration {
	if c.TickRate <= 0 {
		return time.Second
	}
	return c.TickRate.Std()
}

func (c *Configuration) FindGroup(id string) *GroupConfig {
	for i := range c.Groups {
		if c.Groups[i].ID == id {
			return &c.Groups[i]
		}
	}
	return nil
}

func (c *Configuration) FindFan(id string) *FanConfig {
	for i := range c.Fans {
		if c.Fans[i].ID == id {
			return &c.Fans[i]
		}
	}
	return nil
}

func (c *Configuration) FindSensor(id string) *SensorConfig {
	for i := range c.Sensors {
		if c.Sensors[i].ID == id {
			return &c.Sensors[i]
		}
	}
	return nil
}
