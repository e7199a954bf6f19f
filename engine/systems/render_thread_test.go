package systems

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer"
	"github.com/spaghettifunk/rendermanager/engine/renderer/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRenderManager(t *testing.T) (*renderer.RenderManager, *null.Backend) {
	t.Helper()
	backend := null.New(null.DefaultDeviceCaps())
	rm, err := renderer.NewRenderManager(backend, renderer.RenderManagerConfig{})
	require.NoError(t, err)
	return rm, backend
}

func TestNewRenderThread(t *testing.T) {
	rm, _ := newRenderManager(t)
	_, err := NewRenderThread(rm, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidIdleTimeout)

	rt, err := NewRenderThread(rm, time.Millisecond, nil)
	require.NoError(t, err)
	assert.ErrorIs(t, rt.Stop(context.Background()), core.ErrThreadNotActive)
}

func TestRenderThreadLifecycle(t *testing.T) {
	rm, backend := newRenderManager(t)
	var onStartCalls int
	rt, err := NewRenderThread(rm, time.Millisecond, func() error {
		onStartCalls++
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, rt.Start())
	assert.ErrorIs(t, rt.Start(), ErrAlreadyStarted)
	assert.Equal(t, 1, onStartCalls)
	assert.True(t, rm.ThreadRunning())

	require.NoError(t, rm.BeginFrame(false))
	require.NoError(t, rm.Finish())
	require.NoError(t, rm.FlushSync())
	assert.NotEmpty(t, backend.Events())

	// Nothing queued, the loop yields.
	assert.Eventually(t, func() bool { return rt.IdleIterations() > 0 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rt.Stop(ctx))
	assert.False(t, rm.ThreadRunning())
	assert.ErrorIs(t, rm.FlushSync(), core.ErrStopped)
}

func TestRenderThreadStartFailure(t *testing.T) {
	rm, _ := newRenderManager(t)
	failure := errors.New("no context")
	rt, err := NewRenderThread(rm, time.Millisecond, func() error { return failure })
	require.NoError(t, err)

	assert.ErrorIs(t, rt.Start(), failure)
	assert.False(t, rm.ThreadRunning())
}
