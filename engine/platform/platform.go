package platform

import (
	"runtime"
	"time"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spaghettifunk/rendermanager/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

/**
 * @brief The window and its GL context. Event pumping happens on the main
 * thread; the context is made current on the render thread, which also
 * presents and changes the swap interval. A headless platform has no window
 * and its present and swap interval calls do nothing.
 */
type Platform struct {
	Window   *glfw.Window
	headless bool
	events   *core.EventBus

	startTime time.Time
}

func New(events *core.EventBus, headless bool) *Platform {
	return &Platform{
		headless: headless,
		events:   events,
	}
}

func (p *Platform) Headless() bool {
	return p.headless
}

func (p *Platform) Startup(applicationName string, x, y, width, height int) error {
	p.startTime = time.Now()
	if p.headless {
		core.LogInfo("running headless, no window created")
		return nil
	}

	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.OpenGLAPI)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(width, height, applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	p.Window.SetCloseCallback(p.closeCallback)
	p.Window.SetPos(x, y)
	p.Window.Show()

	// The context belongs to the render thread from now on.
	glfw.DetachCurrentContext()
	return nil
}

func (p *Platform) Shutdown() error {
	if p.headless {
		return nil
	}
	if p.Window != nil {
		p.Window.Destroy()
		p.Window = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages processes window events. Returns false once the window should close.
func (p *Platform) PumpMessages() bool {
	if p.headless {
		return true
	}
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// MakeContextCurrent binds the GL context to the calling thread.
func (p *Platform) MakeContextCurrent() error {
	if p.headless {
		return nil
	}
	p.Window.MakeContextCurrent()
	return nil
}

// Present swaps the window buffers. Render thread only.
func (p *Platform) Present() {
	if p.headless {
		return
	}
	p.Window.SwapBuffers()
}

// SwapInterval changes the vsync interval of the current context. Render thread only.
func (p *Platform) SwapInterval(interval int) {
	if p.headless {
		return
	}
	glfw.SwapInterval(interval)
}

// GetAbsoluteTime returns the seconds elapsed since Startup.
func (p *Platform) GetAbsoluteTime() float64 {
	return time.Since(p.startTime).Seconds()
}

func (p *Platform) Sleep(ms float64) {
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	var ctx core.EventContext
	ctx.Data.U16[0] = uint16(width)
	ctx.Data.U16[1] = uint16(height)
	p.events.Fire(core.EVENT_CODE_RESIZED, p, ctx)
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.events.Fire(core.EVENT_CODE_APPLICATION_QUIT, p, core.EventContext{})
}
