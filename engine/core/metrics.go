package core

import (
	"sync"

	"github.com/spaghettifunk/rendermanager/engine/containers"
)

// Number of samples averaged by FrameMetrics.
const AVG_COUNT int = 30

// FrameMetrics keeps a rolling window of per-task execution times measured
// on the render thread. Readers on other goroutines go through the mutex.
type FrameMetrics struct {
	mu      sync.Mutex
	samples *containers.RingQueue[float64]
	msAvg   float64
	frames  int32
	accMS   float64
	fps     float64
	total   uint64
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		samples: containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records the time in seconds spent executing one frame.
func (m *FrameMetrics) Update(frameElapsedTime float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	frameMS := frameElapsedTime * 1000.0
	if m.samples.IsFull() {
		_, _ = m.samples.Dequeue()
	}
	_ = m.samples.Enqueue(frameMS)

	sum := 0.0
	for _, v := range m.samples.Values() {
		sum += v
	}
	m.msAvg = sum / float64(m.samples.Len())

	// Calculate frames per second.
	m.accMS += frameMS
	m.frames++
	if m.accMS > 1000 {
		m.fps = float64(m.frames)
		m.accMS -= 1000
		m.frames = 0
	}
	m.total++
}

func (m *FrameMetrics) FPS() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps
}

func (m *FrameMetrics) FrameTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msAvg
}

// Frame returns the frames per second and the average frame time in ms.
func (m *FrameMetrics) Frame() (float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fps, m.msAvg
}

func (m *FrameMetrics) Count() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}
