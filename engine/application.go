package engine

import "github.com/spaghettifunk/rendermanager/engine/renderer"

type ApplicationConfig struct {
	// Window starting position x axis, if applicable.
	StartPosX int
	// Window starting position y axis, if applicable.
	StartPosY int
	// The application name used in windowing, if applicable.
	Name string
	// Optional TOML config file, watched for changes while running.
	ConfigPath string
	// Forces running without a window.
	Headless bool
	// Stop after this many frames, 0 runs until quit.
	MaxFrames uint64
	// Execution backend, the null backend when nil.
	Backend renderer.RendererBackend
}
