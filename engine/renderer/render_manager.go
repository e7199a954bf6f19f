package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

// Default capacity of the task channel.
const DEFAULT_TASK_QUEUE_CAPACITY int = 16

type RenderManagerConfig struct {
	// Number of frames the submitting side may run ahead, 1 to 3.
	InflightFrames int
	// Capacity of the task channel. Pushes block once it is full.
	TaskQueueCapacity int
	// Checks on every deferred delete that no queued task still references
	// the handle. Costs a scan of the pending tasks per destroyed handle.
	ValidateDeletes bool
}

/**
 * @brief Records rendering work on the submitting goroutine and executes it
 * on the render thread through a RendererBackend.
 *
 * Recording methods, BeginFrame and the Create/Delete calls belong to the
 * submitting side. ThreadStart, ThreadFrame and ThreadEnd belong to the render
 * thread. StopThread, SetInflightFrames and SwapInterval may be called from
 * anywhere.
 */
type RenderManager struct {
	backend RendererBackend
	caps    metadata.DeviceCaps

	frameData [MAX_INFLIGHT_FRAMES]*FrameData

	// Submission time state.
	insideFrame   bool
	curRenderStep *metadata.Step
	curProgram    *metadata.Program
	steps         []*metadata.Step
	initSteps     []metadata.InitStep
	stepID        uint64
	curFrame      int

	inflightFrames    int
	newInflightFrames atomic.Int32

	targetWidth  int
	targetHeight int

	invalidationCallback metadata.InvalidationCallback

	// Hand-off between the two sides.
	tasks    chan *Task
	syncDone chan struct{}
	pushMu   sync.Mutex
	stopped  bool
	nextSeq  uint64
	exitDone chan struct{}
	exitOnce sync.Once

	// Handles queued for deletion since the last push. The render thread
	// takes what is left in ThreadEnd.
	deleterMu sync.Mutex
	deleter   Deleter

	validateDeletes bool
	pendingMu       sync.Mutex
	pending         map[uint64]*Task

	// Execution time state.
	run         bool
	firstFrame  bool
	skipGLCalls atomic.Bool
	onPerform   func(res metadata.Resource)

	swapMu               sync.Mutex
	swapFunction         func()
	swapIntervalFunction func(interval int)
	retainControl        bool
	swapInterval         int
	swapIntervalChanged  bool
	presentReady         chan int

	metrics *core.FrameMetrics
	stats   executionStats
}

type executionStats struct {
	tasks     atomic.Uint64
	steps     atomic.Uint64
	skipped   atomic.Uint64
	initSteps atomic.Uint64
	released  atomic.Uint64
}

func NewRenderManager(backend RendererBackend, config RenderManagerConfig) (*RenderManager, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil renderer backend", core.ErrInvalidConfig)
	}
	if config.TaskQueueCapacity < 0 {
		return nil, fmt.Errorf("%w: negative task queue capacity %d", core.ErrInvalidConfig, config.TaskQueueCapacity)
	}
	if config.TaskQueueCapacity == 0 {
		config.TaskQueueCapacity = DEFAULT_TASK_QUEUE_CAPACITY
	}

	rm := &RenderManager{
		backend:             backend,
		caps:                backend.DeviceCaps(),
		inflightFrames:      clampInflightFrames(config.InflightFrames),
		tasks:               make(chan *Task, config.TaskQueueCapacity),
		syncDone:            make(chan struct{}, 1),
		exitDone:            make(chan struct{}),
		validateDeletes:     config.ValidateDeletes,
		pending:             make(map[uint64]*Task),
		run:                 true,
		firstFrame:          true,
		swapIntervalChanged: true,
		presentReady:        make(chan int, MAX_INFLIGHT_FRAMES),
		metrics:             core.NewFrameMetrics(),
	}
	rm.newInflightFrames.Store(-1)
	for i := range rm.frameData {
		rm.frameData[i] = newFrameData(i)
	}
	return rm, nil
}

func clampInflightFrames(n int) int {
	if n < 1 || n > MAX_INFLIGHT_FRAMES {
		return MAX_INFLIGHT_FRAMES
	}
	return n
}

// SetInflightFrames changes the pipelining depth. The new depth takes effect
// the next time the frame ring wraps around.
func (rm *RenderManager) SetInflightFrames(n int) {
	rm.newInflightFrames.Store(int32(clampInflightFrames(n)))
}

func (rm *RenderManager) InflightFrames() int {
	return rm.inflightFrames
}

func (rm *RenderManager) SetInvalidationCallback(cb metadata.InvalidationCallback) {
	rm.invalidationCallback = cb
}

func (rm *RenderManager) invalidate(flags metadata.InvalidationFlags) {
	if rm.invalidationCallback != nil {
		rm.invalidationCallback(flags)
	}
}

func (rm *RenderManager) SetErrorCallback(cb metadata.ErrorCallback, userdata any) {
	rm.backend.SetErrorCallback(cb, userdata)
}

func (rm *RenderManager) SetDeviceCaps(caps metadata.DeviceCaps) {
	rm.backend.SetDeviceCaps(caps)
	rm.caps = caps
}

func (rm *RenderManager) DeviceCaps() metadata.DeviceCaps {
	return rm.caps
}

// SetOnPerform installs a hook observing every handle destroyed by a deleter
// batch. It runs on the render thread right before the backend release.
func (rm *RenderManager) SetOnPerform(hook func(res metadata.Resource)) {
	rm.onPerform = hook
}

// SetSkipGLCalls makes the render thread stop issuing device calls. Used when
// the device is already gone during shutdown; there is no way back.
func (rm *RenderManager) SetSkipGLCalls() {
	rm.skipGLCalls.Store(true)
}

func (rm *RenderManager) Resize(width, height int) {
	rm.targetWidth = width
	rm.targetHeight = height
	rm.backend.Resize(width, height)
}

func (rm *RenderManager) TargetSize() (int, int) {
	return rm.targetWidth, rm.targetHeight
}

// SetSwapFunction registers the present function, called once per presented
// frame. Without retained control the render thread additionally signals
// PresentReady so the window layer can time presentation itself.
func (rm *RenderManager) SetSwapFunction(fn func(), retainControl bool) {
	rm.swapMu.Lock()
	defer rm.swapMu.Unlock()
	rm.swapFunction = fn
	rm.retainControl = retainControl
}

func (rm *RenderManager) SetSwapIntervalFunction(fn func(interval int)) {
	rm.swapMu.Lock()
	defer rm.swapMu.Unlock()
	rm.swapIntervalFunction = fn
}

// SwapInterval requests a new swap interval, applied before the next present.
func (rm *RenderManager) SwapInterval(interval int) {
	rm.swapMu.Lock()
	defer rm.swapMu.Unlock()
	if interval != rm.swapInterval {
		rm.swapInterval = interval
		rm.swapIntervalChanged = true
	}
}

// PresentReady delivers the frame index of every presented frame when the
// manager does not retain control of presentation. Signals are dropped when
// nobody listens.
func (rm *RenderManager) PresentReady() <-chan int {
	return rm.presentReady
}

func (rm *RenderManager) CurFrame() int {
	return rm.curFrame
}

// FrameState reports the lifecycle state of a frame slot.
func (rm *RenderManager) FrameState(frame int) FrameState {
	return rm.frameData[frame].State()
}

func (rm *RenderManager) Frame(frame int) *FrameData {
	return rm.frameData[frame]
}

func (rm *RenderManager) IsInsideFrame() bool {
	return rm.insideFrame
}

func (rm *RenderManager) SawOutOfMemory() bool {
	return rm.backend.SawOutOfMemory()
}

func (rm *RenderManager) GetDeviceString(name metadata.DeviceString) string {
	return rm.backend.GetString(name)
}

func (rm *RenderManager) Metrics() *core.FrameMetrics {
	return rm.metrics
}

/**
 * @brief Waits until the current frame slot retired and opens it for
 * recording. Blocks while the render thread is more than the in-flight depth
 * behind.
 */
func (rm *RenderManager) BeginFrame(enableProfiling bool) error {
	core.Assert(!rm.insideFrame, "BeginFrame called while frame %d is still recording", rm.curFrame)
	if rm.isStopped() {
		return core.ErrStopped
	}

	fd := rm.frameData[rm.curFrame]
	fd.acquire()
	fd.setProfiling(enableProfiling)
	rm.insideFrame = true

	rm.invalidate(metadata.INVALIDATION_COMMAND_BUFFER_STATE)
	return nil
}

/**
 * @brief Closes the frame and hands it to the render thread. Returns without
 * waiting for execution. On ErrStopped the frame is dropped and its slot is
 * available again.
 */
func (rm *RenderManager) Finish() error {
	core.Assert(rm.insideFrame, "Finish called outside of a frame")
	rm.closeRenderStep()

	fd := rm.frameData[rm.curFrame]
	for pb := range fd.activePushBuffers {
		pb.Flush()
	}

	task := &Task{
		Steps:     rm.steps,
		InitSteps: rm.initSteps,
		Frame:     rm.curFrame,
		RunType:   RUN_TYPE_PRESENT,
		Deleter:   rm.takeDeleter(),
	}
	rm.steps = nil
	rm.initSteps = nil
	rm.insideFrame = false

	fd.setState(FRAME_STATE_SUBMITTED)
	if err := rm.push(task); err != nil {
		rm.restoreDeleter(task.Deleter)
		fd.release(false)
		return err
	}

	rm.curFrame++
	if rm.curFrame >= rm.inflightFrames {
		rm.curFrame = 0
		if n := int(rm.newInflightFrames.Swap(-1)); n != -1 {
			core.LogDebug("in-flight frames changed from %d to %d", rm.inflightFrames, n)
			rm.inflightFrames = n
		}
	}
	return nil
}

// takeDeleter detaches the batch queued so far, nil when nothing is queued.
func (rm *RenderManager) takeDeleter() *Deleter {
	rm.deleterMu.Lock()
	defer rm.deleterMu.Unlock()
	if rm.deleter.IsEmpty() {
		return nil
	}
	d := &Deleter{}
	d.Take(&rm.deleter)
	return d
}

// restoreDeleter puts back the batch of a task that could not be pushed.
func (rm *RenderManager) restoreDeleter(d *Deleter) {
	rm.deleterMu.Lock()
	defer rm.deleterMu.Unlock()
	rm.deleter.Take(d)
}

func (rm *RenderManager) queueDelete(add func(d *Deleter)) {
	rm.deleterMu.Lock()
	defer rm.deleterMu.Unlock()
	add(&rm.deleter)
}

// CreatePushBuffer creates a push buffer registered with frame slot frame.
func (rm *RenderManager) CreatePushBuffer(frame int, usage gputypes.BufferUsage, size int) *PushBuffer {
	core.Assert(frame >= 0 && frame < MAX_INFLIGHT_FRAMES, "invalid frame slot %d", frame)
	pb := newPushBuffer(rm, usage, size)
	rm.registerPushBuffer(frame, pb)
	return pb
}

func (rm *RenderManager) registerPushBuffer(frame int, pb *PushBuffer) {
	rm.frameData[frame].activePushBuffers[pb] = struct{}{}
}

// UnregisterPushBuffer removes pb from the slot it was registered with. The
// buffer must be registered with exactly one slot.
func (rm *RenderManager) UnregisterPushBuffer(pb *PushBuffer) {
	found := 0
	for _, fd := range rm.frameData {
		if _, ok := fd.activePushBuffers[pb]; ok {
			delete(fd.activePushBuffers, pb)
			found++
		}
	}
	core.Assert(found == 1, "push buffer registered with %d frame slots, expected 1", found)
}

// PushBufferCount returns the number of push buffers registered with frame.
func (rm *RenderManager) PushBufferCount(frame int) int {
	return len(rm.frameData[frame].activePushBuffers)
}

func (rm *RenderManager) BeginPushBuffer(pb *PushBuffer) {
	pb.Begin()
}

func (rm *RenderManager) EndPushBuffer(pb *PushBuffer) {
	pb.End()
}

func (rm *RenderManager) DeleteShader(shader *metadata.Shader) {
	rm.queueDelete(func(d *Deleter) { d.Shaders = append(d.Shaders, shader) })
}

func (rm *RenderManager) DeleteProgram(program *metadata.Program) {
	if rm.curProgram == program {
		rm.curProgram = nil
	}
	rm.queueDelete(func(d *Deleter) { d.Programs = append(d.Programs, program) })
}

func (rm *RenderManager) DeleteBuffer(buffer *metadata.Buffer) {
	rm.queueDelete(func(d *Deleter) { d.Buffers = append(d.Buffers, buffer) })
}

func (rm *RenderManager) DeleteTexture(texture *metadata.Texture) {
	rm.queueDelete(func(d *Deleter) { d.Textures = append(d.Textures, texture) })
}

func (rm *RenderManager) DeleteInputLayout(inputLayout *metadata.InputLayout) {
	rm.queueDelete(func(d *Deleter) { d.InputLayouts = append(d.InputLayouts, inputLayout) })
}

func (rm *RenderManager) DeleteFramebuffer(framebuffer *metadata.Framebuffer) {
	rm.queueDelete(func(d *Deleter) { d.Framebuffers = append(d.Framebuffers, framebuffer) })
}

// DeletePushBuffer unregisters pb and queues its device buffers for deletion.
func (rm *RenderManager) DeletePushBuffer(pb *PushBuffer) {
	rm.UnregisterPushBuffer(pb)
	rm.queueDelete(func(d *Deleter) { d.PushBuffers = append(d.PushBuffers, pb) })
}

// PendingDeletes is the number of handles queued since the last submission.
func (rm *RenderManager) PendingDeletes() int {
	rm.deleterMu.Lock()
	defer rm.deleterMu.Unlock()
	return rm.deleter.Len()
}
