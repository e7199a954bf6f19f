package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/spaghettifunk/rendermanager/engine/config"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/platform"
	"github.com/spaghettifunk/rendermanager/engine/renderer/null"
	"github.com/spaghettifunk/rendermanager/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// How long Shutdown waits for the render thread to drain.
const shutdownTimeout = 5 * time.Second

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     atomic.Bool
	isSuspended   bool
	config        *config.Config
	watcher       *config.Watcher
	events        *core.EventBus
	platform      *platform.Platform
	systemManager *systems.SystemManager
	width         int
	height        int
	clock         *core.Clock
	lastTime      float64
	frameCount    uint64
}

func New(g *Game) (*Engine, error) {
	cfg := config.Default()
	if path := g.ApplicationConfig.ConfigPath; path != "" {
		c, err := config.Load(path)
		if err != nil {
			core.LogError("%s", err)
			return nil, err
		}
		cfg = c
	}
	if g.ApplicationConfig.Headless {
		cfg.Window.Headless = true
	}
	if err := core.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}

	events := core.NewEventBus()
	p := platform.New(events, cfg.Window.Headless)

	backend := g.ApplicationConfig.Backend
	if backend == nil {
		backend = null.New(null.DefaultDeviceCaps())
	}
	sm, err := systems.NewSystemManager(cfg, backend, p, events)
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	e := &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		config:        cfg,
		events:        events,
		clock:         core.NewClock(),
		platform:      p,
		systemManager: sm,
		width:         cfg.Window.Width,
		height:        cfg.Window.Height,
	}
	e.isRunning.Store(true)
	return e, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	e.events.Register(core.EVENT_CODE_RESIZED, e, e.onResized)

	title := e.config.Window.Title
	if e.gameInstance.ApplicationConfig.Name != "" {
		title = e.gameInstance.ApplicationConfig.Name
	}
	if err := e.platform.Startup(title,
		e.gameInstance.ApplicationConfig.StartPosX,
		e.gameInstance.ApplicationConfig.StartPosY,
		e.width,
		e.height); err != nil {
		return err
	}

	if err := e.systemManager.Initialize(e.config); err != nil {
		return err
	}

	if path := e.gameInstance.ApplicationConfig.ConfigPath; path != "" {
		w, err := config.NewWatcher(path, e.config)
		if err != nil {
			core.LogWarn("config hot reload disabled: %s", err)
		} else {
			e.watcher = w
			e.watcher.Subscribe(func(cfg *config.Config) {
				e.events.Fire(core.EVENT_CODE_CONFIG_RELOADED, e.watcher, core.EventContext{Payload: cfg})
			})
		}
	}

	rm := e.systemManager.RenderManager
	if err := e.gameInstance.FnInitialize(rm); err != nil {
		return err
	}
	if err := e.gameInstance.FnOnResize(rm, e.width, e.height); err != nil {
		return err
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run records one frame per iteration until the window closes, the
// application quits, or MaxFrames frames were submitted.
func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	rm := e.systemManager.RenderManager
	maxFrames := e.gameInstance.ApplicationConfig.MaxFrames

	for e.isRunning.Load() {
		if !e.platform.PumpMessages() {
			e.isRunning.Store(false)
			break
		}
		if e.isSuspended {
			e.platform.Sleep(10)
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("Game update failed, shutting down: %s", err)
			e.isRunning.Store(false)
			break
		}

		if err := rm.BeginFrame(e.systemManager.Profiling()); err != nil {
			return fmt.Errorf("failed to begin frame: %w", err)
		}
		if err := e.gameInstance.FnRender(rm, delta); err != nil {
			core.LogError("Game render failed, shutting down: %s", err)
			e.isRunning.Store(false)
			if err := rm.Finish(); err != nil {
				core.LogWarn("failed to submit the last frame: %s", err)
			}
			break
		}
		if err := rm.Finish(); err != nil {
			return fmt.Errorf("failed to finish frame: %w", err)
		}

		e.frameCount++
		if maxFrames > 0 && e.frameCount >= maxFrames {
			core.LogInfo("submitted %d frames, stopping", e.frameCount)
			e.isRunning.Store(false)
		}
		e.lastTime = currentTime
	}
	return nil
}

func (e *Engine) Quit() {
	e.isRunning.Store(false)
}

func (e *Engine) FrameCount() uint64 {
	return e.frameCount
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(e.systemManager.RenderManager); err != nil {
			core.LogError("%s", err)
		}
	}
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			core.LogWarn("%s", err)
		}
	}
	core.LogInfo("render stats:\n%s", e.systemManager.RenderManager.Diagnostics())
	if err := e.systemManager.Shutdown(shutdownTimeout); err != nil {
		return err
	}
	e.events.Shutdown()
	return e.platform.Shutdown()
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer
func (e *Engine) GetFramebufferSize() (int, int) {
	return e.width, e.height
}

func (e *Engine) onEvent(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	if code == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
		e.isRunning.Store(false)
		return true
	}
	return false
}

func (e *Engine) onResized(code core.SystemEventCode, sender, listener interface{}, data core.EventContext) bool {
	width := int(data.Data.U16[0])
	height := int(data.Data.U16[1])
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return true
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	rm := e.systemManager.RenderManager
	rm.Resize(width, height)
	if err := e.gameInstance.FnOnResize(rm, width, height); err != nil {
		core.LogError("%s", err)
	}
	return true
}
