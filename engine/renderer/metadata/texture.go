package metadata

import "github.com/gogpu/gputypes"

/** @brief The number of texture binding slots a render step can address. */
const MaxTextureSlots int = 8

/**
 * @brief Represents a texture. Created on the submitting goroutine, populated
 * by the render thread when the matching create step runs.
 */
type Texture struct {
	Handle

	/** @brief The native device object name. Render thread only. */
	Native uint32
	/** @brief The texture Width. */
	Width uint16
	/** @brief The texture Height. */
	Height uint16
	/** @brief The texture Depth, 1 for 2D textures. */
	Depth uint16
	/** @brief The texture dimension. */
	Dimension gputypes.TextureDimension
	/** @brief The number of mip levels the texture was created with. */
	NumMips uint8
	/** @brief Whether wrapping address modes can be used with this texture. */
	CanWrap bool

	/** @brief Last sampler state applied to this texture. Render thread only. */
	Sampler SamplerState
}

/**
 * @brief Cached sampler parameters. Valid is false until the render thread
 * applied a sampler, which forces the first application to always go through.
 */
type SamplerState struct {
	Valid      bool
	WrapS      gputypes.AddressMode
	WrapT      gputypes.AddressMode
	MagFilter  gputypes.FilterMode
	MinFilter  gputypes.FilterMode
	Anisotropy float32
	MinLod     float32
	MaxLod     float32
	LodBias    float32
}

func NewTexture(caps DeviceCaps, dimension gputypes.TextureDimension, width, height, depth, numMips int) *Texture {
	t := &Texture{
		Handle:    newHandle(),
		Width:     uint16(width),
		Height:    uint16(height),
		Depth:     uint16(depth),
		Dimension: dimension,
		NumMips:   uint8(numMips),
	}
	t.CanWrap = caps.TextureNPOTFullySupported || (isPowerOf2(width) && isPowerOf2(height))
	return t
}

func (t *Texture) ResourceType() ResourceType {
	return ResourceTypeTexture
}

func isPowerOf2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
