package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetWindowSum(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(3)
	window.Append(1)
	window.Append(2)
	window.Append(3)

	// WHEN
	sum := GetWindowSum(window)

	// THEN
	assert.Equal(t, 6.0, sum)
}

func TestFillWindow(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(4)
	window.Append(1)

	// WHEN
	FillWindow(window, 4, 0)

	// THEN
	assert.Equal(t, 0.0, GetWindowSum(window))
}

func TestWindowOverwritesOldestValue(t *testing.T) {
	// GIVEN
	window := CreateRollingWindow(2)
	window.Append(5)
	window.Append(1)

	// WHEN
	window.Append(1)

	// THEN
	assert.Equal(t, 2.0, GetWindowSum(window))
}
