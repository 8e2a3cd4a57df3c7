package util

import (
	"os"
	"path/filepath"
	"strings"
)

func readTrimmed(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(content))
}

// GetDeviceName read the name of a hwmon device
func GetDeviceName(devicePath string) string {
	return readTrimmed(filepath.Join(devicePath, "name"))
}

// GetLabel read the label of an in/output of a device, e.g. "Package id 0" for temp1_input
func GetLabel(devicePath string, input string) string {
	labelPath := strings.TrimSuffix(filepath.Join(devicePath, input), "input") + "label"
	label := readTrimmed(labelPath)
	if len(label) <= 0 {
		return input
	}
	return label
}

func GetDeviceModalias(devicePath string) string {
	return readTrimmed(filepath.Join(devicePath, "device", "modalias"))
}

func GetDeviceType(devicePath string) string {
	return readTrimmed(filepath.Join(devicePath, "device", "type"))
}
