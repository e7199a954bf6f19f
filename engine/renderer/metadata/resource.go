package metadata

import "github.com/google/uuid"

type ResourceType int

/** @brief Kinds of device resources proxied by a handle. */
const (
	ResourceTypeTexture ResourceType = iota
	ResourceTypeBuffer
	ResourceTypeShader
	ResourceTypeProgram
	ResourceTypeFramebuffer
	ResourceTypeInputLayout
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeTexture:
		return "texture"
	case ResourceTypeBuffer:
		return "buffer"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeProgram:
		return "program"
	case ResourceTypeFramebuffer:
		return "framebuffer"
	case ResourceTypeInputLayout:
		return "input_layout"
	}
	return "unknown"
}

/**
 * @brief A resource handle. Handles are allocated on the submitting goroutine
 * so they can be referenced right away, but their native fields are only ever
 * written by the render thread.
 */
type Resource interface {
	ResourceType() ResourceType
	ResourceID() uuid.UUID
}

/** @brief Identity shared by all handles. Safe to read from any goroutine. */
type Handle struct {
	ID uuid.UUID
}

func newHandle() Handle {
	return Handle{ID: uuid.New()}
}

func (h Handle) ResourceID() uuid.UUID {
	return h.ID
}
