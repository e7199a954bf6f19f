package renderer

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// The maximum number of frames that can be recorded ahead of the render thread.
const MAX_INFLIGHT_FRAMES int = 3

type FrameState int32

const (
	FRAME_STATE_RETIRED FrameState = iota
	FRAME_STATE_RECORDING
	FRAME_STATE_SUBMITTED
	FRAME_STATE_EXECUTING
)

func (s FrameState) String() string {
	switch s {
	case FRAME_STATE_RETIRED:
		return "RETIRED"
	case FRAME_STATE_RECORDING:
		return "RECORDING"
	case FRAME_STATE_SUBMITTED:
		return "SUBMITTED"
	case FRAME_STATE_EXECUTING:
		return "EXECUTING"
	}
	return fmt.Sprintf("FrameState(%d)", int32(s))
}

// FrameProfile is filled in by the render thread for profiled frames.
type FrameProfile struct {
	Enabled  bool
	CPUStart time.Time
	CPUEnd   time.Time
	Passes   string
}

func (p FrameProfile) CPUTime() time.Duration {
	return p.CPUEnd.Sub(p.CPUStart)
}

// FrameData is one slot of the in-flight ring. Slots are created once and
// reset every time their ring position is reused.
type FrameData struct {
	index int
	// Holds one token while the slot may be recorded into. BeginFrame takes it,
	// the render thread gives it back once the frame retired.
	retired chan struct{}
	state   atomic.Int32

	// Push buffers whose contents belong to this slot. Submitting side only.
	activePushBuffers map[*PushBuffer]struct{}

	profileMu sync.Mutex
	profile   FrameProfile

	retiredCount atomic.Uint64
}

func newFrameData(index int) *FrameData {
	fd := &FrameData{
		index:             index,
		retired:           make(chan struct{}, 1),
		activePushBuffers: make(map[*PushBuffer]struct{}),
	}
	fd.retired <- struct{}{}
	fd.state.Store(int32(FRAME_STATE_RETIRED))
	return fd
}

func (fd *FrameData) State() FrameState {
	return FrameState(fd.state.Load())
}

func (fd *FrameData) setState(s FrameState) {
	fd.state.Store(int32(s))
}

// RetiredCount is the number of frames that fully retired in this slot.
func (fd *FrameData) RetiredCount() uint64 {
	return fd.retiredCount.Load()
}

// acquire blocks until the previous occupant of the slot retired.
func (fd *FrameData) acquire() {
	<-fd.retired
	fd.setState(FRAME_STATE_RECORDING)
}

// release hands the slot back to the submitting side.
func (fd *FrameData) release(executed bool) {
	fd.setState(FRAME_STATE_RETIRED)
	if executed {
		fd.retiredCount.Add(1)
	}
	fd.retired <- struct{}{}
}

func (fd *FrameData) setProfiling(enabled bool) {
	fd.profileMu.Lock()
	fd.profile.Enabled = enabled
	fd.profileMu.Unlock()
}

func (fd *FrameData) profiling() bool {
	fd.profileMu.Lock()
	defer fd.profileMu.Unlock()
	return fd.profile.Enabled
}

func (fd *FrameData) setProfile(start, end time.Time, passes string) {
	fd.profileMu.Lock()
	fd.profile.CPUStart = start
	fd.profile.CPUEnd = end
	fd.profile.Passes = passes
	fd.profileMu.Unlock()
}

func (fd *FrameData) Profile() FrameProfile {
	fd.profileMu.Lock()
	defer fd.profileMu.Unlock()
	return fd.profile
}
