package core

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssert(t *testing.T) {
	assert.NotPanics(t, func() { Assert(true, "never shown") })
	assert.PanicsWithValue(t, ContractViolation{Message: "slot 9 out of range"}, func() {
		Assert(false, "slot %d out of range", 9)
	})
	assert.EqualError(t, ContractViolation{Message: "bad"}, "contract violation: bad")
}

func TestSetLogLevel(t *testing.T) {
	previous := GetLogLevel()
	t.Cleanup(func() { getLogger().SetLevel(previous) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, DebugLevel, GetLogLevel())
	require.NoError(t, SetLogLevel("warn"))
	assert.Equal(t, WarnLevel, GetLogLevel())

	err := SetLogLevel("chatty")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Equal(t, WarnLevel, GetLogLevel())
}

func TestSetLogOutput(t *testing.T) {
	var buf bytes.Buffer
	SetLogOutput(&buf)
	t.Cleanup(func() { SetLogOutput(os.Stderr) })

	LogWarn("%s", "disk 100% full")
	assert.Contains(t, buf.String(), "disk 100% full")
}

func TestFrameMetrics(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < AVG_COUNT+10; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 0.0001)
	assert.Equal(t, uint64(AVG_COUNT+10), m.Count())

	// The rate is published once a full second accumulated.
	m = NewFrameMetrics()
	m.Update(0.6)
	fps, _ := m.Frame()
	assert.Zero(t, fps)
	m.Update(0.6)
	fps, frameTime := m.Frame()
	assert.Equal(t, 2.0, fps)
	assert.InDelta(t, 600.0, frameTime, 0.0001)
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.False(t, c.IsRunning())
	assert.Zero(t, c.Elapsed())

	c.Start()
	assert.True(t, c.IsRunning())
	c.Update()
	assert.GreaterOrEqual(t, c.Elapsed(), 0.0)

	c.Stop()
	assert.False(t, c.IsRunning())
}
