package sensors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/markusressel/fanhold/internal/nvidia"
	"github.com/markusressel/fanhold/internal/util"
)

const (
	smartAttrAirflow = 190 // SMART attribute: airflow temp
	smartAttrTemp    = 194 // SMART attribute: drive temp
)

// DiskSource reads the temperature of a drive. The kernel drivetemp/nvme hwmon
// device is preferred, smartctl is used for drives without one.
type DiskSource struct {
	Label   string
	Device  string
	SysPath string
	Run     nvidia.Runner
}

func NewDiskSource(label string, device string, deps Dependencies) *DiskSource {
	return &DiskSource{
		Label:   label,
		Device:  device,
		SysPath: deps.SysPath,
		Run:     deps.Run,
	}
}

func (s *DiskSource) GetKind() SourceKind {
	return SourceKindDevice
}

func (s *DiskSource) GetLabel() string {
	if len(s.Label) > 0 {
		return s.Label
	}
	return deviceName(s.Device)
}

func (s *DiskSource) Read(ctx context.Context) (float64, error) {
	name := deviceName(s.Device)

	if len(s.SysPath) > 0 {
		if temp, err := readDiskTempFromSysfsAt(s.SysPath, name); err == nil {
			return temp / 1000, nil
		}
	}

	if s.Run == nil {
		return 0, fmt.Errorf("no temperature source for %s", name)
	}
	out, err := s.Run(ctx, "smartctl", "-j", "-A", "/dev/"+name)
	if len(out) <= 0 {
		if err == nil {
			err = errors.New("empty output")
		}
		return 0, fmt.Errorf("smartctl %s: %w", name, err)
	}
	return parseSmartctlTemperature([]byte(out))
}

// deviceName turns /dev/sda or sda into sda
func deviceName(device string) string {
	return filepath.Base(strings.TrimSpace(device))
}

func readDiskTempFromSysfsAt(sysBase, deviceName string) (float64, error) {
	patterns := []string{
		fmt.Sprintf("%s/class/block/%s/device/hwmon/hwmon*/temp*_input", sysBase, deviceName),
	}
	// NVMe: nvme0n1 → nvme0 controller path (strip namespace suffix after "nvme<digits>")
	if strings.HasPrefix(deviceName, "nvme") {
		ctrl := deviceName
		if idx := strings.Index(deviceName[4:], "n"); idx >= 0 {
			ctrl = deviceName[:4+idx]
		}
		patterns = append(patterns,
			fmt.Sprintf("%s/class/nvme/%s/hwmon*/temp*_input", sysBase, ctrl))
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		millidegrees, err := util.ReadIntFromFile(selectTempInput(matches))
		if err != nil {
			continue
		}
		return float64(millidegrees), nil
	}
	return 0, fmt.Errorf("no sysfs hwmon temperature for %s", deviceName)
}

// selectTempInput prefers temp1_input (composite/device temperature)
func selectTempInput(paths []string) string {
	for _, p := range paths {
		if strings.HasSuffix(p, "temp1_input") {
			return p
		}
	}
	return paths[0]
}

type smartctlOutput struct {
	Temperature *struct {
		Current *float64 `json:"current"`
	} `json:"temperature"`
	AtaSmartAttributes struct {
		Table []struct {
			Id  int `json:"id"`
			Raw struct {
				Value int64 `json:"value"`
			} `json:"raw"`
		} `json:"table"`
	} `json:"ata_smart_attributes"`
}

// parseSmartctlTemperature extracts the drive temperature from `smartctl -j -A`.
func parseSmartctlTemperature(data []byte) (float64, error) {
	var output smartctlOutput
	if err := json.Unmarshal(data, &output); err != nil {
		return 0, fmt.Errorf("invalid smartctl output: %w", err)
	}
	if output.Temperature != nil && output.Temperature.Current != nil {
		return *output.Temperature.Current, nil
	}
	for _, id := range []int{smartAttrTemp, smartAttrAirflow} {
		for _, attribute := range output.AtaSmartAttributes.Table {
			if attribute.Id == id {
				// the lowest byte of the raw value is the current temperature
				return float64(attribute.Raw.Value & 0xFF), nil
			}
		}
	}
	return 0, errors.New("no temperature attribute in SMART data")
}
