package renderer

import (
	"context"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
	"github.com/spaghettifunk/rendermanager/engine/renderer/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// harness drives a RenderManager with a render goroutine executing on the
// null backend.
type harness struct {
	t       *testing.T
	rm      *RenderManager
	backend *null.Backend
	done    chan struct{}
}

func newHarness(t *testing.T, config RenderManagerConfig) *harness {
	t.Helper()
	backend := null.New(null.DefaultDeviceCaps())
	rm, err := NewRenderManager(backend, config)
	require.NoError(t, err)
	return &harness{t: t, rm: rm, backend: backend}
}

func (h *harness) start() {
	h.t.Helper()
	started := make(chan error, 1)
	h.done = make(chan struct{})
	go func() {
		defer close(h.done)
		if err := h.rm.ThreadStart(); err != nil {
			started <- err
			return
		}
		started <- nil
		for h.rm.ThreadRunning() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
			h.rm.ThreadFrame(ctx)
			cancel()
		}
		h.rm.ThreadEnd()
	}()
	require.NoError(h.t, <-started)
	h.t.Cleanup(h.stop)
}

// stop is safe to call more than once.
func (h *harness) stop() {
	if h.done == nil {
		return
	}
	if !h.rm.isStopped() {
		h.rm.StopThread()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(h.t, h.rm.WaitForExit(ctx))
	select {
	case <-h.done:
	case <-ctx.Done():
		h.t.Fatal("render goroutine did not end")
	}
}

// frame records one frame with record and submits it.
func (h *harness) frame(record func(rm *RenderManager)) {
	h.t.Helper()
	require.NoError(h.t, h.rm.BeginFrame(false))
	if record != nil {
		record(h.rm)
	}
	require.NoError(h.t, h.rm.Finish())
}

func (h *harness) stepTags() []string {
	var tags []string
	for _, e := range h.backend.Events() {
		if e.Kind == null.EVENT_STEP {
			tags = append(tags, e.Step.Tag)
		}
	}
	return tags
}

func TestNewRenderManagerValidation(t *testing.T) {
	_, err := NewRenderManager(nil, RenderManagerConfig{})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	backend := null.New(null.DefaultDeviceCaps())
	_, err = NewRenderManager(backend, RenderManagerConfig{TaskQueueCapacity: -1})
	assert.ErrorIs(t, err, core.ErrInvalidConfig)

	rm, err := NewRenderManager(backend, RenderManagerConfig{})
	require.NoError(t, err)
	assert.Equal(t, DEFAULT_TASK_QUEUE_CAPACITY, cap(rm.tasks))
	assert.Equal(t, MAX_INFLIGHT_FRAMES, rm.InflightFrames())
	assert.Equal(t, "null device", rm.DeviceCaps().DeviceString)

	for _, tc := range []struct {
		requested int
		expected  int
	}{
		{0, 3}, {1, 1}, {2, 2}, {3, 3}, {4, 3}, {-2, 3},
	} {
		rm, err := NewRenderManager(backend, RenderManagerConfig{InflightFrames: tc.requested})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, rm.InflightFrames(), "requested %d", tc.requested)
	}
}

func TestFrameSlotNotReusedBeforeRetire(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 3})

	// Without a render thread the producer can run exactly three frames ahead.
	for i := 0; i < 3; i++ {
		h.frame(func(rm *RenderManager) {
			rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, 0, 1, 0, "frame")
		})
		assert.Equal(t, FRAME_STATE_SUBMITTED, h.rm.FrameState(i))
	}
	assert.Equal(t, 0, h.rm.CurFrame())

	begun := make(chan error, 1)
	go func() {
		begun <- h.rm.BeginFrame(false)
	}()
	select {
	case <-begun:
		t.Fatal("BeginFrame reused a slot that has not retired")
	case <-time.After(50 * time.Millisecond):
	}

	h.start()
	select {
	case err := <-begun:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("BeginFrame did not return after the render thread caught up")
	}
	assert.Equal(t, FRAME_STATE_RECORDING, h.rm.FrameState(0))
	assert.Equal(t, uint64(1), h.rm.Frame(0).RetiredCount())
	require.NoError(t, h.rm.Finish())
}

func TestTasksRunInSubmissionOrder(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 2, TaskQueueCapacity: 4})
	h.start()

	var expected []string
	for i := 0; i < 6; i++ {
		tag := string(rune('a' + i))
		expected = append(expected, tag)
		h.frame(func(rm *RenderManager) {
			rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_KEEP, metadata.RENDER_PASS_ACTION_KEEP, 0, 1, 0, tag)
		})
		if i == 2 {
			require.NoError(t, h.rm.BeginFrame(false))
			h.rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_KEEP, metadata.RENDER_PASS_ACTION_KEEP, 0, 1, 0, "sync")
			require.NoError(t, h.rm.FlushSync())
			require.NoError(t, h.rm.Finish())
			expected = append(expected, "sync")
		}
	}
	require.NoError(t, h.rm.FlushSync())

	assert.Equal(t, expected, h.stepTags())
	// Six frames, the empty frame after the mid-frame sync and two syncs.
	assert.Equal(t, uint64(9), h.rm.nextSeq)
	assert.Equal(t, uint64(9), h.rm.stats.tasks.Load())
}

func TestLazyInflightChange(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 3})
	h.start()

	h.frame(nil)
	h.rm.SetInflightFrames(1)
	assert.Equal(t, 3, h.rm.InflightFrames())
	assert.Equal(t, 1, h.rm.CurFrame())

	h.frame(nil)
	assert.Equal(t, 3, h.rm.InflightFrames())
	h.frame(nil)
	assert.Equal(t, 1, h.rm.InflightFrames())
	assert.Equal(t, 0, h.rm.CurFrame())

	for i := 0; i < 3; i++ {
		h.frame(nil)
		assert.Equal(t, 0, h.rm.CurFrame())
	}

	// Out of range depths fall back to the maximum.
	h.rm.SetInflightFrames(7)
	h.frame(nil)
	assert.Equal(t, MAX_INFLIGHT_FRAMES, h.rm.InflightFrames())
}

func TestShutdownDrainsAndRejects(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 3})
	h.start()

	h.frame(func(rm *RenderManager) {
		rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, 0, 1, 0, "one")
	})
	h.frame(func(rm *RenderManager) {
		rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, 0, 1, 0, "two")
	})

	h.stop()
	assert.Equal(t, []string{"one", "two"}, h.stepTags())
	assert.Equal(t, uint64(1), h.rm.Frame(0).RetiredCount())
	assert.Equal(t, uint64(1), h.rm.Frame(1).RetiredCount())

	// A second stop request is ignored.
	h.rm.StopThread()

	assert.ErrorIs(t, h.rm.BeginFrame(false), core.ErrStopped)
	assert.ErrorIs(t, h.rm.FlushSync(), core.ErrStopped)
	assert.False(t, h.rm.ThreadFrame(context.Background()))
}

func TestFinishAfterStopReleasesSlot(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 2})

	require.NoError(t, h.rm.BeginFrame(false))
	tex := h.rm.CreateTexture(gputypes.TextureDimension2D, 4, 4, 1, 1)
	h.rm.DeleteTexture(tex)
	h.rm.StopThread()

	assert.ErrorIs(t, h.rm.Finish(), core.ErrStopped)
	assert.Equal(t, FRAME_STATE_RETIRED, h.rm.FrameState(0))
	assert.Equal(t, 0, h.rm.CurFrame())
	assert.Equal(t, 1, h.rm.PendingDeletes())
	assert.False(t, h.rm.IsInsideFrame())

	// The render thread still performs what was queued before it ends.
	h.start()
	h.stop()
	assert.Equal(t, 0, h.rm.PendingDeletes())
	assert.Equal(t, uint64(1), h.rm.stats.released.Load())
}

func TestSubmitAfterStopWithoutDeletes(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 2})

	require.NoError(t, h.rm.BeginFrame(false))
	bindBackbuffer(h.rm, "Dropped")
	h.rm.StopThread()

	assert.NotPanics(t, func() {
		assert.ErrorIs(t, h.rm.Finish(), core.ErrStopped)
	})
	assert.Equal(t, FRAME_STATE_RETIRED, h.rm.FrameState(0))
	assert.NotPanics(t, func() {
		assert.ErrorIs(t, h.rm.FlushSync(), core.ErrStopped)
	})
	assert.Zero(t, h.rm.PendingDeletes())

	pixels := make([]byte, 4)
	assert.False(t, h.rm.CopyFramebufferToMemory(nil, metadata.ASPECT_COLOR, 0, 0, 1, 1, gputypes.TextureFormatRGBA8Unorm, pixels, 1, metadata.READBACK_MODE_BLOCK, "late"))
}

func TestFlushSyncAfterThreadEnd(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{})
	require.NoError(t, h.rm.ThreadStart())

	// The loop ends without an exit task, e.g. after its context was cancelled.
	h.rm.ThreadEnd()

	synced := make(chan error, 1)
	go func() {
		synced <- h.rm.FlushSync()
	}()
	select {
	case err := <-synced:
		assert.ErrorIs(t, err, core.ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("FlushSync blocked after ThreadEnd")
	}
	assert.ErrorIs(t, h.rm.BeginFrame(false), core.ErrStopped)

	h.rm.StopThread()
	require.NoError(t, h.rm.WaitForExit(context.Background()))
	assert.Empty(t, h.rm.tasks)
}

func TestThreadEndPerformsQueuedDeletes(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{})
	require.NoError(t, h.rm.ThreadStart())

	const count = 200
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < count; i++ {
			h.rm.DeleteBuffer(metadata.NewBuffer(gputypes.BufferUsageVertex, 16))
		}
	}()
	h.rm.ThreadEnd()
	<-done

	// Whatever missed the end of the thread is still queued, nothing is lost.
	assert.Equal(t, uint64(count), h.rm.stats.released.Load()+uint64(h.rm.PendingDeletes()))
}

func TestThreadFrameHonoursContext(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{})
	require.NoError(t, h.rm.ThreadStart())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.False(t, h.rm.ThreadFrame(ctx))
	assert.True(t, h.rm.ThreadRunning())

	h.rm.StopThread()
	assert.True(t, h.rm.ThreadFrame(context.Background()))
	assert.False(t, h.rm.ThreadRunning())
	h.rm.ThreadEnd()

	require.NoError(t, h.rm.WaitForExit(context.Background()))
}

func TestThreadEndReleasesWaiters(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 2})
	require.NoError(t, h.rm.ThreadStart())

	h.frame(nil)
	synced := make(chan error, 1)
	go func() {
		synced <- h.rm.FlushSync()
	}()
	// Wait until the sync task is queued behind the frame.
	require.Eventually(t, func() bool { return len(h.rm.tasks) == 2 }, time.Second, time.Millisecond)

	// The loop is abandoned without running the queue.
	h.rm.ThreadEnd()
	select {
	case err := <-synced:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("FlushSync still waiting after ThreadEnd")
	}
	assert.Equal(t, FRAME_STATE_RETIRED, h.rm.FrameState(0))
	assert.Equal(t, uint64(0), h.rm.Frame(0).RetiredCount())
	assert.Empty(t, h.backend.Events())
}

func TestPresentation(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 2})

	swaps := 0
	var intervals []int
	h.rm.SetSwapFunction(func() { swaps++ }, false)
	h.rm.SetSwapIntervalFunction(func(interval int) { intervals = append(intervals, interval) })
	h.rm.SwapInterval(2)
	h.start()

	h.frame(nil)
	h.frame(nil)
	assert.Equal(t, 0, <-h.rm.PresentReady())
	assert.Equal(t, 1, <-h.rm.PresentReady())

	h.rm.SwapInterval(2)
	h.rm.SwapInterval(0)
	h.frame(nil)
	assert.Equal(t, 0, <-h.rm.PresentReady())

	h.rm.SetSkipGLCalls()
	h.frame(nil)
	assert.Equal(t, 1, <-h.rm.PresentReady())

	h.stop()
	assert.Equal(t, 3, swaps)
	assert.Equal(t, []int{2, 0}, intervals)
}

func TestInvalidationCallback(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{})
	var flags []metadata.InvalidationFlags
	h.rm.SetInvalidationCallback(func(f metadata.InvalidationFlags) {
		flags = append(flags, f)
	})

	require.NoError(t, h.rm.BeginFrame(false))
	h.rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, 0, 1, 0, "a")
	// Continuing the same step does not invalidate anything.
	h.rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_KEEP, metadata.RENDER_PASS_ACTION_KEEP, metadata.RENDER_PASS_ACTION_KEEP, 0, 1, 0, "a")
	require.NoError(t, h.rm.Finish())

	assert.Equal(t, []metadata.InvalidationFlags{
		metadata.INVALIDATION_COMMAND_BUFFER_STATE,
		metadata.INVALIDATION_RENDER_PASS_STATE,
	}, flags)
}

func TestDiagnosticsAndProfile(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 1})
	h.start()

	require.NoError(t, h.rm.BeginFrame(true))
	h.rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, 0, 1, 0, "Main")
	require.NoError(t, h.rm.Finish())
	require.NoError(t, h.rm.FlushSync())

	profile := h.rm.GetGpuProfileString()
	assert.Contains(t, profile, "CPU time to run the list:")
	assert.Contains(t, profile, "RENDER Main: 1 commands, 0 draws")

	diag := h.rm.Diagnostics()
	assert.Contains(t, diag, "tasks_run: 2\n")
	assert.Contains(t, diag, "steps_run: 1\n")
	assert.Contains(t, diag, "frame_0: RETIRED (retired 1)\n")
	assert.Contains(t, diag, "inflight_frames: 1\n")
	assert.Equal(t, uint64(1), h.rm.Metrics().Count())

	assert.Equal(t, "rendermanager", h.rm.GetDeviceString(metadata.DEVICE_STRING_VENDOR))
	assert.False(t, h.rm.SawOutOfMemory())
}
