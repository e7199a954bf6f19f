package metadata

import "github.com/gogpu/gputypes"

/**
 * @brief An offscreen render target. The colour and depth/stencil textures
 * are embedded and exclusively owned by the framebuffer.
 */
type Framebuffer struct {
	Handle

	/** @brief The native device object name. Render thread only. */
	Native uint32

	ColorTexture Texture
	// Either ZStencilTexture, ZStencilBuffer, or (ZBuffer and StencilBuffer) are set.
	ZStencilBuffer  uint32
	ZStencilTexture Texture
	ZBuffer         uint32
	StencilBuffer   uint32

	Width      int
	Height     int
	ColorDepth uint32
	ZStencil   bool
}

func NewFramebuffer(caps DeviceCaps, width, height int, zStencil bool) *Framebuffer {
	fb := &Framebuffer{
		Handle:   newHandle(),
		Width:    width,
		Height:   height,
		ZStencil: zStencil,
	}
	fb.ColorTexture = *NewTexture(caps, gputypes.TextureDimension2D, width, height, 1, 1)
	fb.ZStencilTexture = *NewTexture(caps, gputypes.TextureDimension2D, width, height, 1, 1)
	return fb
}

func (fb *Framebuffer) ResourceType() ResourceType {
	return ResourceTypeFramebuffer
}
