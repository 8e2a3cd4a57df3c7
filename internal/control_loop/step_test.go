package control_loop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepControlLoop_InsideTolerance(t *testing.T) {
	// GIVEN
	loop := NewStepControlLoop(30, 2, 200)

	// WHEN
	below := loop.Loop(1000, 970)
	above := loop.Loop(1000, 1030)

	// THEN
	assert.Equal(t, 0.0, below)
	assert.Equal(t, 0.0, above)
	assert.True(t, loop.InBand(1000, 970))
	assert.True(t, loop.InBand(1000, 1030))
}

func TestStepControlLoop_SmallError(t *testing.T) {
	// GIVEN
	loop := NewStepControlLoop(30, 2, 200)

	// WHEN
	tooSlow := loop.Loop(1000, 900)
	tooFast := loop.Loop(1000, 1100)

	// THEN
	assert.Equal(t, 2.0, tooSlow)
	assert.Equal(t, -2.0, tooFast)
	assert.False(t, loop.InBand(1000, 900))
}

func TestStepControlLoop_LargeErrorDoublesStep(t *testing.T) {
	// GIVEN
	loop := NewStepControlLoop(30, 2, 200)

	// WHEN
	tooSlow := loop.Loop(1500, 1000)
	tooFast := loop.Loop(500, 1000)
	boundary := loop.Loop(1200, 1000)

	// THEN
	assert.Equal(t, 4.0, tooSlow)
	assert.Equal(t, -4.0, tooFast)
	assert.Equal(t, 2.0, boundary)
}
