package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClockStartResetsPosition(t *testing.T) {
	clock := NewClock()
	clock.Start()
	clock.Advance(512)
	assert.Equal(t, uint64(512), clock.CurrentSample())

	clock.Start()
	assert.Equal(t, uint64(0), clock.CurrentSample())
	assert.True(t, clock.IsRunning())
}

func TestClockAdvancesByBlocksize(t *testing.T) {
	clock := NewClock()
	clock.Start()

	for i := 0; i < 10; i++ {
		clock.Advance(256)
	}
	assert.Equal(t, uint64(2560), clock.CurrentSample())
}

func TestClockIgnoresAdvanceWhenStopped(t *testing.T) {
	clock := NewClock()
	clock.Start()
	clock.Advance(128)
	clock.Stop()

	clock.Advance(128)
	assert.Equal(t, uint64(128), clock.CurrentSample())
	assert.False(t, clock.IsRunning())
}

func TestClockIgnoresNonPositiveAdvance(t *testing.T) {
	clock := NewClock()
	clock.Start()
	clock.Advance(0)
	clock.Advance(-64)
	assert.Equal(t, uint64(0), clock.CurrentSample())
}
