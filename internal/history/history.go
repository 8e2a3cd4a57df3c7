package history

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxEntries is the maximum number of samples returned by a query.
const MaxEntries = 10000

var ErrInvalidRange = errors.New("invalid range")

var ranges = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"6h":  6 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
	"1mo": 30 * 24 * time.Hour,
}

// RangeNames in ascending order
var RangeNames = []string{"1m", "5m", "30m", "1h", "6h", "1d", "1w", "1mo"}

// ParseRange returns the duration of a named range like "1h".
func ParseRange(name string) (time.Duration, error) {
	duration, ok := ranges[name]
	if !ok {
		return 0, fmt.Errorf("%w '%s', use one of: %s", ErrInvalidRange, name, strings.Join(RangeNames, " | "))
	}
	return duration, nil
}
