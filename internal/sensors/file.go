package sensors

import (
	"context"

	"github.com/markusressel/fanhold/internal/util"
)

// FileSource reads a file containing millidegrees, like a hwmon tempN_input.
type FileSource struct {
	Label string
	Path  string
}

func (s *FileSource) GetKind() SourceKind {
	return SourceKindChip
}

func (s *FileSource) GetLabel() string {
	return s.Label
}

func (s *FileSource) Read(ctx context.Context) (float64, error) {
	millidegrees, err := util.ReadFloatFromFile(s.Path)
	if err != nil {
		return 0, err
	}
	return millidegrees / 1000, nil
}
