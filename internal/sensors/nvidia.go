package sensors

import (
	"context"
	"fmt"
)

type GpuTemperatureReader interface {
	GpuTemperature(ctx context.Context, gpu int) (float64, error)
}

// NvidiaSource reads the core temperature of a gpu through the driver.
type NvidiaSource struct {
	Label  string
	Gpu    int
	Reader GpuTemperatureReader
}

func (s *NvidiaSource) GetKind() SourceKind {
	return SourceKindAccelerator
}

func (s *NvidiaSource) GetLabel() string {
	if len(s.Label) > 0 {
		return s.Label
	}
	return fmt.Sprintf("gpu%d", s.Gpu)
}

func (s *NvidiaSource) Read(ctx context.Context) (float64, error) {
	return s.Reader.GpuTemperature(ctx, s.Gpu)
}
