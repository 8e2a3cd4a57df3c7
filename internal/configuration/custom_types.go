package configuration

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Duration is a time.Duration that is written as "5s" instead of nanoseconds.
// Plain numbers are interpreted as seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := parseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func parseDuration(data interface{}) (Duration, error) {
	switch v := data.(type) {
	case string:
		if seconds, err := strconv.ParseFloat(v, 64); err == nil {
			return Duration(seconds * float64(time.Second)), nil
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", v, err)
		}
		return Duration(parsed), nil
	case int:
		return Duration(time.Duration(v) * time.Second), nil
	case int64:
		return Duration(time.Duration(v) * time.Second), nil
	case float64:
		return Duration(v * float64(time.Second)), nil
	case time.Duration:
		return Duration(v), nil
	case Duration:
		return v, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to a duration", data)
	}
}

// DurationHookFunc returns a mapstructure decode hook function for Duration.
func DurationHookFunc() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(Duration(0))

	return func(
		f reflect.Type,
		t reflect.Type,
		data interface{},
	) (interface{}, error) {
		if t != durationType {
			return data, nil
		}
		return parseDuration(data)
	}
}
