package renderer

import (
	"fmt"
	"image"
	"io"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
	"golang.org/x/image/bmp"
)

// Screenshot reads back the bottom-left width x height region of the back
// buffer. Rows come back bottom-up and are flipped into image order.
func (rm *RenderManager) Screenshot(width, height int) (*image.RGBA, error) {
	pixels := make([]byte, width*height*4)
	if !rm.CopyFramebufferToMemory(nil, metadata.ASPECT_COLOR, 0, 0, width, height, gputypes.TextureFormatRGBA8Unorm, pixels, width, metadata.READBACK_MODE_BLOCK, "Screenshot") {
		return nil, core.ErrStopped
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := pixels[(height-1-y)*rowSize : (height-y)*rowSize]
		copy(img.Pix[y*img.Stride:y*img.Stride+rowSize], src)
	}
	return img, nil
}

func (rm *RenderManager) WriteScreenshotBMP(w io.Writer, width, height int) error {
	img, err := rm.Screenshot(width, height)
	if err != nil {
		return err
	}
	if err := bmp.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode screenshot: %w", err)
	}
	return nil
}
