package systems

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer"
)

var ErrInvalidIdleTimeout = fmt.Errorf("attempting to create a render thread with a non positive idle timeout")
var ErrAlreadyStarted = fmt.Errorf("render thread already started")

/**
 * @brief Drives a RenderManager from a dedicated, locked OS thread. The loop
 * runs one task per iteration and yields whenever no task arrived within the
 * idle timeout.
 */
type RenderThread struct {
	rm          *renderer.RenderManager
	idleTimeout time.Duration
	// Runs on the locked thread before ThreadStart, e.g. to make a GL context current.
	onStart func() error

	mutex   sync.Mutex
	started bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	idle    uint64
}

func NewRenderThread(rm *renderer.RenderManager, idleTimeout time.Duration, onStart func() error) (*RenderThread, error) {
	if idleTimeout <= 0 {
		return nil, ErrInvalidIdleTimeout
	}
	return &RenderThread{
		rm:          rm,
		idleTimeout: idleTimeout,
		onStart:     onStart,
	}, nil
}

// Start launches the thread and returns once ThreadStart completed.
func (rt *RenderThread) Start() error {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	if rt.started {
		return ErrAlreadyStarted
	}
	rt.started = true

	ctx, cancel := context.WithCancel(context.Background())
	rt.cancel = cancel
	started := make(chan error, 1)

	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if rt.onStart != nil {
			if err := rt.onStart(); err != nil {
				started <- err
				return
			}
		}
		if err := rt.rm.ThreadStart(); err != nil {
			started <- err
			return
		}
		started <- nil
		rt.loop(ctx)
		rt.rm.ThreadEnd()
	}()

	return <-started
}

func (rt *RenderThread) loop(ctx context.Context) {
	for rt.rm.ThreadRunning() {
		if ctx.Err() != nil {
			core.LogWarn("render thread cancelled before the exit task arrived")
			return
		}
		iterCtx, cancel := context.WithTimeout(ctx, rt.idleTimeout)
		worked := rt.rm.ThreadFrame(iterCtx)
		cancel()
		if !worked {
			rt.mutex.Lock()
			rt.idle++
			rt.mutex.Unlock()
			runtime.Gosched()
		}
	}
}

// IdleIterations counts loop iterations that found no work.
func (rt *RenderThread) IdleIterations() uint64 {
	rt.mutex.Lock()
	defer rt.mutex.Unlock()
	return rt.idle
}

/**
 * @brief Queues the exit task and waits for the thread to drain and end.
 * When ctx expires first the loop is abandoned without running the
 * remaining tasks.
 */
func (rt *RenderThread) Stop(ctx context.Context) error {
	rt.mutex.Lock()
	started := rt.started
	rt.mutex.Unlock()
	if !started {
		return core.ErrThreadNotActive
	}

	rt.rm.StopThread()
	err := rt.rm.WaitForExit(ctx)
	if err != nil {
		rt.cancel()
	}
	rt.wg.Wait()
	rt.cancel()
	return err
}
