package systems

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/rendermanager/engine/config"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer"
)

// Presenter is the window side of presentation, called on the render thread.
type Presenter interface {
	MakeContextCurrent() error
	Present()
	SwapInterval(interval int)
}

type SystemManager struct {
	RenderManager *renderer.RenderManager
	renderThread  *RenderThread
	presenter     Presenter
	events        *core.EventBus
	profiling     atomic.Bool
}

func NewSystemManager(cfg *config.Config, backend renderer.RendererBackend, presenter Presenter, events *core.EventBus) (*SystemManager, error) {
	rm, err := renderer.NewRenderManager(backend, renderer.RenderManagerConfig{
		InflightFrames:    cfg.Renderer.InflightFrames,
		TaskQueueCapacity: cfg.Renderer.TaskQueueCapacity,
		ValidateDeletes:   cfg.Renderer.ValidateDeletes,
	})
	if err != nil {
		return nil, err
	}
	rt, err := NewRenderThread(rm, cfg.Renderer.IdleTimeout.Duration, presenter.MakeContextCurrent)
	if err != nil {
		return nil, err
	}
	sm := &SystemManager{
		RenderManager: rm,
		renderThread:  rt,
		presenter:     presenter,
		events:        events,
	}
	sm.profiling.Store(cfg.Renderer.Profiling)
	return sm, nil
}

func (sm *SystemManager) Initialize(cfg *config.Config) error {
	rm := sm.RenderManager
	rm.SetSwapFunction(sm.presenter.Present, true)
	rm.SetSwapIntervalFunction(sm.presenter.SwapInterval)
	rm.SwapInterval(cfg.Renderer.SwapInterval)
	rm.SetErrorCallback(func(message string, userdata any) {
		core.LogError("render thread: %s", message)
	}, sm)
	rm.Resize(cfg.Window.Width, cfg.Window.Height)

	sm.events.Register(core.EVENT_CODE_CONFIG_RELOADED, sm, sm.onConfigReloaded)

	return sm.renderThread.Start()
}

func (sm *SystemManager) Profiling() bool {
	return sm.profiling.Load()
}

func (sm *SystemManager) onConfigReloaded(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	cfg, ok := data.Payload.(*config.Config)
	if !ok {
		return false
	}
	sm.RenderManager.SetInflightFrames(cfg.Renderer.InflightFrames)
	sm.RenderManager.SwapInterval(cfg.Renderer.SwapInterval)
	sm.profiling.Store(cfg.Renderer.Profiling)
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		core.LogWarn("%s", err)
	}
	// Other listeners may want the event too.
	return false
}

func (sm *SystemManager) Shutdown(timeout time.Duration) error {
	sm.events.Unregister(core.EVENT_CODE_CONFIG_RELOADED, sm)
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return sm.renderThread.Stop(ctx)
}
