package metadata

import "github.com/gogpu/gputypes"

// BytesPerPixel returns the size of one texel of format, 4 for unknown formats.
func BytesPerPixel(format gputypes.TextureFormat) int {
	switch format {
	case gputypes.TextureFormatR8Unorm:
		return 1
	case gputypes.TextureFormatRGBA32Float:
		return 16
	default:
		return 4
	}
}
