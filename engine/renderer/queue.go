package renderer

import (
	"context"
	"fmt"
	"time"

	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

func (rm *RenderManager) isStopped() bool {
	rm.pushMu.Lock()
	defer rm.pushMu.Unlock()
	return rm.stopped
}

// push hands a task to the render thread. Tasks are numbered in push order.
func (rm *RenderManager) push(task *Task) error {
	rm.pushMu.Lock()
	defer rm.pushMu.Unlock()
	if rm.stopped {
		return core.ErrStopped
	}
	rm.pushLocked(task)
	return nil
}

func (rm *RenderManager) pushLocked(task *Task) {
	task.Seq = rm.nextSeq
	rm.nextSeq++
	if rm.validateDeletes {
		rm.pendingMu.Lock()
		rm.pending[task.Seq] = task
		rm.pendingMu.Unlock()
	}
	rm.tasks <- task
}

func (rm *RenderManager) untrack(task *Task) {
	if !rm.validateDeletes {
		return
	}
	rm.pendingMu.Lock()
	delete(rm.pending, task.Seq)
	rm.pendingMu.Unlock()
}

/**
 * @brief Submits everything recorded so far as a sync task and blocks until
 * the render thread ran it. This stalls the whole pipeline and is meant for
 * readbacks only.
 */
func (rm *RenderManager) FlushSync() error {
	rm.closeRenderStep()
	task := &Task{
		Steps:     rm.steps,
		InitSteps: rm.initSteps,
		Frame:     rm.curFrame,
		RunType:   RUN_TYPE_SYNC,
		Deleter:   rm.takeDeleter(),
	}
	rm.steps = nil
	rm.initSteps = nil
	if err := rm.push(task); err != nil {
		rm.restoreDeleter(task.Deleter)
		return err
	}
	<-rm.syncDone
	return nil
}

// StopThread queues the exit task. Every task pushed before it still runs;
// nothing can be pushed after it.
func (rm *RenderManager) StopThread() {
	rm.pushMu.Lock()
	defer rm.pushMu.Unlock()
	if rm.stopped {
		core.LogWarn("render thread was already stopped")
		return
	}
	core.LogInfo("stopping render thread")
	rm.stopped = true
	rm.pushLocked(&Task{Frame: -1, RunType: RUN_TYPE_EXIT})
}

// WaitForExit blocks until the render thread processed the exit task.
func (rm *RenderManager) WaitForExit(ctx context.Context) error {
	select {
	case <-rm.exitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (rm *RenderManager) signalExit() {
	rm.exitOnce.Do(func() {
		close(rm.exitDone)
	})
}

// ThreadStart must be called on the render thread before the first ThreadFrame.
func (rm *RenderManager) ThreadStart() error {
	rm.firstFrame = true
	if err := rm.backend.CreateDeviceObjects(); err != nil {
		return fmt.Errorf("failed to create device objects: %w", err)
	}
	core.LogInfo("render thread started")
	return nil
}

/**
 * @brief Runs at most one task. Blocks until a task arrives or ctx is done.
 * Returns false when no work was found, letting the caller yield, and once
 * the exit task was processed. The queue is never read again after exit.
 */
func (rm *RenderManager) ThreadFrame(ctx context.Context) bool {
	if !rm.run {
		return false
	}

	var task *Task
	select {
	case task = <-rm.tasks:
	case <-ctx.Done():
		return false
	}

	if task.RunType == RUN_TYPE_EXIT {
		rm.untrack(task)
		rm.run = false
		rm.signalExit()
		core.LogInfo("render thread received exit task")
		return true
	}
	rm.runTask(task)
	return true
}

func (rm *RenderManager) runTask(task *Task) {
	var fd *FrameData
	if task.RunType == RUN_TYPE_PRESENT {
		fd = rm.frameData[task.Frame]
		fd.setState(FRAME_STATE_EXECUTING)
		if rm.firstFrame {
			core.LogInfo("running first frame (%d)", task.Frame)
			rm.firstFrame = false
		}
	}

	skip := rm.skipGLCalls.Load()
	start := time.Now()
	rm.backend.RunInitSteps(task.InitSteps, skip)
	rm.backend.RunSteps(task.Steps, task.Frame, skip)
	end := time.Now()

	rm.stats.tasks.Add(1)
	rm.stats.initSteps.Add(uint64(len(task.InitSteps)))
	for _, s := range task.Steps {
		if s.Type == metadata.STEP_TYPE_RENDER_SKIP {
			rm.stats.skipped.Add(1)
		} else {
			rm.stats.steps.Add(1)
		}
	}

	rm.untrack(task)
	rm.performDeletes(task.Deleter, skip)

	switch task.RunType {
	case RUN_TYPE_PRESENT:
		rm.present(task.Frame, skip)
		if fd.profiling() {
			fd.setProfile(start, end, describeSteps(task.Steps))
		}
		rm.metrics.Update(end.Sub(start).Seconds())
		fd.release(true)
	case RUN_TYPE_SYNC:
		rm.syncDone <- struct{}{}
	}
}

func (rm *RenderManager) present(frame int, skip bool) {
	rm.swapMu.Lock()
	changed := rm.swapIntervalChanged
	interval := rm.swapInterval
	rm.swapIntervalChanged = false
	swapInterval := rm.swapIntervalFunction
	swap := rm.swapFunction
	retain := rm.retainControl
	rm.swapMu.Unlock()

	if !skip {
		if changed && swapInterval != nil {
			swapInterval(interval)
		}
		if swap != nil {
			swap()
		}
	}
	if !retain {
		select {
		case rm.presentReady <- frame:
		default:
		}
	}
}

func (rm *RenderManager) performDeletes(d *Deleter, skip bool) {
	if d == nil || d.IsEmpty() {
		return
	}
	d.Perform(rm.backend, skip, func(res metadata.Resource) {
		if rm.validateDeletes {
			rm.assertUnreferenced(res)
		}
		rm.stats.released.Add(1)
		if rm.onPerform != nil {
			rm.onPerform(res)
		}
	})
}

func (rm *RenderManager) assertUnreferenced(res metadata.Resource) {
	rm.pendingMu.Lock()
	defer rm.pendingMu.Unlock()
	for seq, t := range rm.pending {
		core.Assert(!t.references(res), "%s %s destroyed while task %d still references it", res.ResourceType(), res.ResourceID(), seq)
	}
}

/**
 * @brief Must be called on the render thread after the loop ended. Tasks left
 * in the queue are not executed but their frames are retired and waiting
 * sync requests are released. Later submissions fail with ErrStopped, and all
 * pending deletes are performed before the device objects are destroyed.
 */
func (rm *RenderManager) ThreadEnd() {
	skip := rm.skipGLCalls.Load()
	dropped := rm.drainQueue(skip)

	// A push blocked on a full queue holds pushMu until the drain made room.
	rm.pushMu.Lock()
	rm.stopped = true
	rm.pushMu.Unlock()
	dropped += rm.drainQueue(skip)
	if dropped > 0 {
		core.LogWarn("render thread ended with %d tasks still queued", dropped)
	}

	rm.performDeletes(rm.takeDeleter(), skip)
	rm.backend.DestroyDeviceObjects()
	rm.run = false
	rm.signalExit()
	core.LogInfo("render thread ended")
}

// drainQueue discards queued tasks without executing them.
func (rm *RenderManager) drainQueue(skip bool) int {
	dropped := 0
	for {
		select {
		case task := <-rm.tasks:
			dropped++
			rm.untrack(task)
			rm.performDeletes(task.Deleter, skip)
			switch task.RunType {
			case RUN_TYPE_PRESENT:
				rm.frameData[task.Frame].release(false)
			case RUN_TYPE_SYNC:
				rm.syncDone <- struct{}{}
			case RUN_TYPE_EXIT:
				rm.signalExit()
			}
		default:
			return dropped
		}
	}
}

// ThreadRunning is false once the exit task was processed. Render thread only.
func (rm *RenderManager) ThreadRunning() bool {
	return rm.run
}
