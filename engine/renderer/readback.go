package renderer

import (
	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

func assertReadbackSize(pixels []byte, w, h, pixelStride int, format gputypes.TextureFormat) {
	core.Assert(w > 0 && h > 0, "readback of an empty %dx%d region", w, h)
	core.Assert(pixelStride >= w, "pixel stride %d smaller than width %d", pixelStride, w)
	need := ((h-1)*pixelStride + w) * metadata.BytesPerPixel(format)
	core.Assert(len(pixels) >= need, "readback needs %d bytes, destination has %d", need, len(pixels))
}

/**
 * @brief Copies a region of src, or of the back buffer when src is nil, into
 * pixels. This is a full pipeline stall: everything recorded so far is
 * submitted and the call returns once the render thread filled pixels.
 * READBACK_MODE_OLD_DATA_OK is served like READBACK_MODE_BLOCK.
 * Returns false when the render thread no longer accepts work.
 */
func (rm *RenderManager) CopyFramebufferToMemory(src *metadata.Framebuffer, aspect metadata.Aspect, x, y, w, h int, format gputypes.TextureFormat, pixels []byte, pixelStride int, mode metadata.ReadbackMode, tag string) bool {
	assertReadbackSize(pixels, w, h, pixelStride, format)
	if mode == metadata.READBACK_MODE_OLD_DATA_OK {
		core.LogDebug("readback %q: old data allowed, reading back synchronously", tag)
	}

	rm.closeRenderStep()
	rm.steps = append(rm.steps, metadata.NewStep(metadata.STEP_TYPE_READBACK, rm.nextStepID(), tag, &metadata.ReadbackData{
		Src:         src,
		SrcRect:     metadata.Rect2D{X: x, Y: y, W: w, H: h},
		AspectMask:  aspect,
		DstFormat:   format,
		Pixels:      pixels,
		PixelStride: pixelStride,
	}))

	if err := rm.FlushSync(); err != nil {
		core.LogWarn("readback %q dropped: %s", tag, err)
		return false
	}
	return true
}

// CopyImageToMemorySync reads back a mip level of tex into pixels, with the
// same stall as CopyFramebufferToMemory.
func (rm *RenderManager) CopyImageToMemorySync(tex *metadata.Texture, mipLevel, x, y, w, h int, format gputypes.TextureFormat, pixels []byte, pixelStride int, tag string) bool {
	core.Assert(tex != nil, "image readback of a nil texture")
	assertReadbackSize(pixels, w, h, pixelStride, format)

	rm.closeRenderStep()
	rm.steps = append(rm.steps, metadata.NewStep(metadata.STEP_TYPE_READBACK_IMAGE, rm.nextStepID(), tag, &metadata.ReadbackImageData{
		Texture:     tex,
		MipLevel:    mipLevel,
		SrcRect:     metadata.Rect2D{X: x, Y: y, W: w, H: h},
		DstFormat:   format,
		Pixels:      pixels,
		PixelStride: pixelStride,
	}))

	if err := rm.FlushSync(); err != nil {
		core.LogWarn("image readback %q dropped: %s", tag, err)
		return false
	}
	return true
}
