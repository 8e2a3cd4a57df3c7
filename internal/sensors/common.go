package sensors

import (
	"context"
	"fmt"

	"github.com/markusressel/fanhold/internal/configuration"
	"github.com/markusressel/fanhold/internal/hwmon"
	"github.com/markusressel/fanhold/internal/nvidia"
	"github.com/markusressel/fanhold/internal/util"
)

// SourceKind is the type of hardware a raw reading comes from.
type SourceKind string

const (
	SourceKindChip        SourceKind = "chip"
	SourceKindDevice      SourceKind = "device"
	SourceKindAccelerator SourceKind = "accelerator"
	SourceKindCommand     SourceKind = "command"
	SourceKindSensor      SourceKind = "sensor"
)

// Source is a single raw temperature reading of a sensor.
type Source interface {
	GetKind() SourceKind
	GetLabel() string
	// Read returns the current temperature in degrees
	Read(ctx context.Context) (float64, error)
}

// Reading is the outcome of reading a single source.
type Reading struct {
	Label string     `json:"label"`
	Kind  SourceKind `json:"kind"`
	// nil if the source could not be read
	Value *float64 `json:"value"`
	Error string   `json:"error,omitempty"`
}

// Result is the aggregated value of a sensor along with the readings it is based on.
type Result struct {
	// nil only if no source could be read
	Value    *float64  `json:"value"`
	Readings []Reading `json:"readings"`
}

// Dependencies are the hardware collaborators used to build sources.
type Dependencies struct {
	Chips        []*hwmon.Chip
	Temperatures GpuTemperatureReader
	Run          nvidia.Runner
	// root of sysfs, usually /sys
	SysPath string
	// resolves a sensor id to its value of the current tick
	Lookup func(id string) *float64
}

func DefaultDependencies(chips []*hwmon.Chip) Dependencies {
	return Dependencies{
		Chips:        chips,
		Temperatures: nvidia.ClientFor(""),
		Run:          util.RunSystemCommand,
		SysPath:      "/sys",
	}
}

func newSources(sensorId string, config configuration.SourceConfig, deps Dependencies) ([]Source, error) {
	switch {
	case config.HwMon != nil:
		path, err := hwmon.ResolveTempInput(deps.Chips, *config.HwMon)
		if err != nil {
			return nil, err
		}
		label := config.Label
		if len(label) <= 0 {
			label = fmt.Sprintf("%s/temp%d", config.HwMon.Platform, config.HwMon.Index)
		}
		return []Source{&FileSource{Label: label, Path: path}}, nil

	case config.File != nil:
		path := util.ExpandPath(config.File.Path)
		label := config.Label
		if len(label) <= 0 {
			label = path
		}
		return []Source{&FileSource{Label: label, Path: path}}, nil

	case config.Cmd != nil:
		return []Source{&CmdSource{Label: config.Label, Exec: config.Cmd.Exec, Args: config.Cmd.Args}}, nil

	case config.Nvidia != nil:
		return []Source{&NvidiaSource{Label: config.Label, Gpu: config.Nvidia.Gpu, Reader: deps.Temperatures}}, nil

	case config.Disk != nil:
		return []Source{NewDiskSource(config.Label, config.Disk.Device, deps)}, nil

	case config.Mdstat != nil:
		path := config.Mdstat.Path
		if len(path) <= 0 {
			path = DefaultMdstatPath
		}
		drives, err := ReadMdstatDrives(path, config.Mdstat.Array)
		if err != nil {
			return nil, err
		}
		var sources []Source
		for _, drive := range drives {
			sources = append(sources, NewDiskSource(drive, drive, deps))
		}
		return sources, nil

	case config.Sensor != nil:
		return []Source{&ReferenceSource{Id: config.Sensor.ID, Lookup: deps.Lookup}}, nil
	}
	return nil, fmt.Errorf("sensor %s: no matching source type", sensorId)
}
