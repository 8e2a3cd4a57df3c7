package hwmon

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/util"
	"github.com/md14454/gosensors"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

var ErrNoMatchingChip = errors.New("no hwmon chip matched")

// Chip is a hwmon device as detected by lm-sensors.
type Chip struct {
	Name     string
	DType    string
	Modalias string
	Platform string
	Path     string

	Temps []Input
	Fans  []Input
}

// Input is a single tempN_input or fanN_input of a chip.
type Input struct {
	Index int
	Label string
	Path  string
	// value at detection time, degrees or rpm
	Value float64
}

// FanPaths are the sysfs attributes used to drive a pwm fan.
type FanPaths struct {
	PwmPath       string
	PwmEnablePath string
	RpmInputPath  string
}

func GetChips() []*Chip {
	gosensors.Init()
	defer gosensors.Cleanup()
	detected := gosensors.GetDetectedChips()

	var list []*Chip
	for _, chip := range detected {
		identifier := computeIdentifier(chip)
		platform := findPlatform(chip.Path)
		if len(platform) <= 0 {
			platform = identifier
		}

		temps, fans := getInputs(chip)
		if len(temps) <= 0 && len(fans) <= 0 {
			continue
		}

		list = append(list, &Chip{
			Name:     identifier,
			DType:    util.GetDeviceType(chip.Path),
			Modalias: util.GetDeviceModalias(chip.Path),
			Platform: platform,
			Path:     chip.Path,
			Temps:    temps,
			Fans:     fans,
		})
	}
	return list
}

func getInputs(chip gosensors.Chip) (temps []Input, fans []Input) {
	for _, feature := range chip.GetFeatures() {
		var inputType gosensors.SubFeatureType
		switch feature.Type {
		case gosensors.FeatureTypeTemp:
			inputType = gosensors.SubFeatureTypeTempInput
		case gosensors.FeatureTypeFan:
			inputType = gosensors.SubFeatureTypeFanInput
		default:
			continue
		}

		for _, subFeature := range feature.GetSubFeatures() {
			if subFeature.Type != inputType {
				continue
			}
			input := Input{
				Index: inputIndex(subFeature.Name),
				Label: util.GetLabel(chip.Path, subFeature.Name),
				Path:  filepath.Join(chip.Path, subFeature.Name),
				Value: subFeature.GetValue(),
			}
			if feature.Type == gosensors.FeatureTypeTemp {
				temps = append(temps, input)
			} else {
				fans = append(fans, input)
			}
		}
	}
	return temps, fans
}

var inputIndexRegex = regexp.MustCompile(`^[a-z]+(\d+)_input$`)

// inputIndex extracts N from tempN_input or fanN_input
func inputIndex(name string) int {
	match := inputIndexRegex.FindStringSubmatch(name)
	if len(match) < 2 {
		return -1
	}
	index, err := strconv.Atoi(match[1])
	if err != nil {
		return -1
	}
	return index
}

func computeIdentifier(chip gosensors.Chip) string {
	name := chip.Prefix
	if len(name) <= 0 {
		name = util.GetDeviceName(chip.Path)
	}
	if len(name) <= 0 {
		_, name = filepath.Split(chip.Path)
	}

	switch chip.Bus.Type {
	case BusTypeIsa:
		return fmt.Sprintf("%s-isa-%d", name, chip.Bus.Nr)
	case BusTypePci:
		return fmt.Sprintf("%s-pci-%d", name, chip.Bus.Nr)
	case BusTypeAcpi:
		return fmt.Sprintf("%s-acpi-%d", name, chip.Bus.Nr)
	}
	return name
}

var platformRegex = regexp.MustCompile(`/platform/([^/]+)/`)

func findPlatform(devicePath string) string {
	match := platformRegex.FindStringSubmatch(devicePath)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// FindChip returns the first chip whose platform or name matches the given regex.
func FindChip(chips []*Chip, platform string) (*Chip, error) {
	expr, err := regexp.Compile(platform)
	if err != nil {
		return nil, fmt.Errorf("invalid platform regex '%s': %w", platform, err)
	}
	for _, chip := range chips {
		if expr.MatchString(chip.Platform) || expr.MatchString(chip.Name) {
			return chip, nil
		}
	}
	return nil, fmt.Errorf("%w platform '%s'", ErrNoMatchingChip, platform)
}

// ResolveTempInput returns the path of the tempN_input file of the configured chip.
func ResolveTempInput(chips []*Chip, config configuration.HwMonSourceConfig) (string, error) {
	chip, err := FindChip(chips, config.Platform)
	if err != nil {
		return "", err
	}
	for _, temp := range chip.Temps {
		if temp.Index == config.Index {
			return temp.Path, nil
		}
	}
	return filepath.Join(chip.Path, fmt.Sprintf("temp%d_input", config.Index)), nil
}

// ResolveFan returns the pwm and rpm paths of the configured fan.
func ResolveFan(chips []*Chip, config configuration.HwMonFanConfig) (FanPaths, error) {
	chip, err := FindChip(chips, config.Platform)
	if err != nil {
		return FanPaths{}, err
	}

	rpmChannel := config.RpmChannel
	if rpmChannel <= 0 {
		rpmChannel = config.Index
	}
	pwmPath := filepath.Join(chip.Path, fmt.Sprintf("pwm%d", config.Index))
	return FanPaths{
		PwmPath:       pwmPath,
		PwmEnablePath: pwmPath + "_enable",
		RpmInputPath:  filepath.Join(chip.Path, fmt.Sprintf("fan%d_input", rpmChannel)),
	}, nil
}
