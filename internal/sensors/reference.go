package sensors

import (
	"context"
	"fmt"
)

// ReferenceSource uses the aggregated value of another sensor of the same tick.
type ReferenceSource struct {
	Id     string
	Lookup func(id string) *float64
}

func (s *ReferenceSource) GetKind() SourceKind {
	return SourceKindSensor
}

func (s *ReferenceSource) GetLabel() string {
	return s.Id
}

func (s *ReferenceSource) Read(ctx context.Context) (float64, error) {
	if s.Lookup == nil {
		return 0, fmt.Errorf("sensor %s is not available", s.Id)
	}
	value := s.Lookup(s.Id)
	if value == nil {
		return 0, fmt.Errorf("sensor %s has no value", s.Id)
	}
	return *value, nil
}
