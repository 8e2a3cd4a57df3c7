package global

import (
	"github.com/markusressel/fanhold/internal/api"
	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/viper"
	"github.com/tomlazar/table"
)

var (
	CfgFile string
	NoColor bool
	NoStyle bool
	Verbose bool
)

// LoadConfig detects, reads and validates the configuration file.
func LoadConfig() (*configuration.FileStore, *configuration.Configuration, error) {
	configPath, err := configuration.DetectConfigFile()
	if err != nil {
		return nil, nil, err
	}
	ui.Info("Using configuration file at: %s", configPath)
	store := configuration.NewFileStore(configPath)
	config, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	return store, config, nil
}

// ApiClient connects to the api of the local daemon. Host and port are taken from the
// configuration file if there is one.
func ApiClient() *api.Client {
	if _, err := configuration.DetectConfigFile(); err != nil {
		ui.Debug("Using default api address: %v", err)
	}
	v := viper.GetViper()
	return api.NewClient(v.GetString("api.host"), v.GetInt("api.port"))
}

func TableConfig() *table.Config {
	return &table.Config{
		ShowIndex:       false,
		Color:           !NoColor,
		AlternateColors: true,
		TitleColorCode:  ansi.ColorCode("white+buf"),
		AltColorCodes: []string{
			ansi.ColorCode("white"),
			ansi.ColorCode("white:236"),
		},
	}
}

// Colorize is a noop if colors are disabled.
func Colorize(text string, style string) string {
	if NoColor {
		return text
	}
	return ansi.Color(text, style)
}
