package renderer

import "github.com/spaghettifunk/rendermanager/engine/renderer/metadata"

/**
 * @brief The component executing recorded work against the native device.
 * Device object creation and destruction, RunInitSteps, RunSteps and Release
 * are called from the render thread only; the remaining methods come from the
 * submitting side. Tasks are handed over one at a time in submission order,
 * init steps always before steps. Device errors are reported through the
 * error callback, never by panicking across the thread boundary.
 */
type RendererBackend interface {
	CreateDeviceObjects() error
	DestroyDeviceObjects()
	SetDeviceCaps(caps metadata.DeviceCaps)
	DeviceCaps() metadata.DeviceCaps
	SetErrorCallback(cb metadata.ErrorCallback, userdata any)
	RunInitSteps(steps []metadata.InitStep, skipGLCalls bool)
	RunSteps(steps []*metadata.Step, frame int, skipGLCalls bool)
	// Release destroys the native objects behind a handle.
	Release(res metadata.Resource, skipGLCalls bool)
	Resize(width, height int)
	SawOutOfMemory() bool
	// GetString is a best-effort device information query.
	GetString(name metadata.DeviceString) string
}
