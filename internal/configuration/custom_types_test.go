package configuration

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

func TestDurationHookFunc(t *testing.T) {
	hook := DurationHookFunc()
	target := reflect.TypeOf(Duration(0))

	var tests = []struct {
		tn    string
		input interface{}
		want  Duration
	}{
		{tn: "duration string", input: "1m30s", want: Duration(90 * time.Second)},
		{tn: "numeric string", input: "5", want: Duration(5 * time.Second)},
		{tn: "int seconds", input: 30, want: Duration(30 * time.Second)},
		{tn: "float seconds", input: 0.5, want: Duration(500 * time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.tn, func(t *testing.T) {
			// WHEN
			result, err := hook(reflect.TypeOf(tt.input), target, tt.input)

			// THEN
			assert.NoError(t, err)
			assert.Equal(t, tt.want, result)
		})
	}
}

func TestDurationHookFunc_Invalid(t *testing.T) {
	// GIVEN
	hook := DurationHookFunc()

	// WHEN
	_, err := hook(reflect.TypeOf(""), reflect.TypeOf(Duration(0)), "soon")

	// THEN
	assert.Error(t, err)
}

func TestDurationHookFunc_IgnoresOtherTypes(t *testing.T) {
	// GIVEN
	hook := DurationHookFunc()

	// WHEN
	result, err := hook(reflect.TypeOf(""), reflect.TypeOf(""), "soon")

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, "soon", result)
}

func TestDuration_JsonRoundTrip(t *testing.T) {
	// GIVEN
	group := GroupConfig{ID: "system", DelayUp: Duration(5 * time.Second)}

	// WHEN
	data, err := json.Marshal(group)
	assert.NoError(t, err)
	var decoded GroupConfig
	err = json.Unmarshal(data, &decoded)

	// THEN
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"delayUp":"5s"`)
	assert.Equal(t, group.DelayUp, decoded.DelayUp)
}

func TestDuration_JsonSeconds(t *testing.T) {
	// GIVEN
	var group GroupConfig

	// WHEN
	err := json.Unmarshal([]byte(`{"id": "gpu", "holdTime": 30}`), &group)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, 30*time.Second, group.HoldTime.Std())
}

func TestDuration_Yaml(t *testing.T) {
	// GIVEN
	group := GroupConfig{ID: "system", HoldTime: Duration(40 * time.Second)}

	// WHEN
	data, err := yaml.Marshal(group)

	// THEN
	assert.NoError(t, err)
	assert.Contains(t, string(data), "holdTime: 40s")
}
