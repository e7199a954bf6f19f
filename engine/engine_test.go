package engine

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headlessGame(render Render) *Game {
	return &Game{
		ApplicationConfig: &ApplicationConfig{Name: "engine test", Headless: true, MaxFrames: 10},
		FnInitialize:      func(rm *renderer.RenderManager) error { return nil },
		FnUpdate:          func(deltaTime float64) error { return nil },
		FnRender:          render,
		FnOnResize:        func(rm *renderer.RenderManager, width, height int) error { return nil },
	}
}

func TestRunStopsAfterMaxFrames(t *testing.T) {
	e, err := New(headlessGame(func(rm *renderer.RenderManager, deltaTime float64) error { return nil }))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	require.NoError(t, e.Run())
	assert.Equal(t, uint64(10), e.FrameCount())
	require.NoError(t, e.Shutdown())
}

func TestRenderFailureLogsLastSubmit(t *testing.T) {
	var buf bytes.Buffer
	core.SetLogOutput(&buf)
	t.Cleanup(func() { core.SetLogOutput(os.Stderr) })

	frames := 0
	e, err := New(headlessGame(func(rm *renderer.RenderManager, deltaTime float64) error {
		frames++
		if frames == 2 {
			// The last frame can no longer be submitted.
			rm.StopThread()
			return errors.New("lost device")
		}
		return nil
	}))
	require.NoError(t, err)
	require.NoError(t, e.Initialize())

	require.NoError(t, e.Run())
	assert.Equal(t, uint64(1), e.FrameCount())
	require.NoError(t, e.Shutdown())

	assert.Contains(t, buf.String(), "lost device")
	assert.Contains(t, buf.String(), "failed to submit the last frame")
}
