package engine

import "github.com/spaghettifunk/rendermanager/engine/renderer"

type Game struct {
	ApplicationConfig *ApplicationConfig
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
	FnShutdown        Shutdown
}

type Initialize func(rm *renderer.RenderManager) error
type Update func(deltaTime float64) error

// Render records the frame. It is called between BeginFrame and Finish.
type Render func(rm *renderer.RenderManager, deltaTime float64) error
type OnResize func(rm *renderer.RenderManager, width int, height int) error
type Shutdown func(rm *renderer.RenderManager) error
