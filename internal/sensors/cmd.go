package sensors

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/markusressel/fanhold/internal/util"
)

// CmdSource runs a user provided executable that prints a temperature in degrees.
type CmdSource struct {
	Label string
	Exec  string
	Args  []string
}

func (s *CmdSource) GetKind() SourceKind {
	return SourceKindCommand
}

func (s *CmdSource) GetLabel() string {
	if len(s.Label) > 0 {
		return s.Label
	}
	return s.Exec
}

func (s *CmdSource) Read(ctx context.Context) (float64, error) {
	result, err := util.SafeCmdExecution(ctx, s.Exec, s.Args)
	if err != nil {
		return 0, err
	}
	temp, err := strconv.ParseFloat(strings.TrimSpace(result), 64)
	if err != nil {
		return 0, fmt.Errorf("unable to parse output of %s: %w", s.Exec, err)
	}
	return temp, nil
}
