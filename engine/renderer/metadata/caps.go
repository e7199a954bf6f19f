package metadata

import "github.com/gogpu/gputypes"

/** @brief Capabilities reported by the execution backend and echoed to callers. */
type DeviceCaps struct {
	/** @brief Name of the device vendor. */
	VendorString string
	/** @brief Name of the device / driver. */
	DeviceString string

	MaxTextureSize        int
	MaxBufferSize         int
	AnisoSupported        bool
	DualSourceBlend       bool
	ClipDistanceSupported bool
	DepthClampSupported   bool
	LogicOpSupported      bool
	/** @brief Non power of two textures can wrap. */
	TextureNPOTFullySupported bool
	/** @brief Depth format used for framebuffers with a depth/stencil attachment. */
	PreferredDepthBufferFormat gputypes.TextureFormat
}

/** @brief Strings that can be queried from the device on a best-effort basis. */
type DeviceString int

const (
	DEVICE_STRING_VENDOR DeviceString = iota
	DEVICE_STRING_RENDERER
	DEVICE_STRING_VERSION
	DEVICE_STRING_SHADING_LANGUAGE_VERSION
	DEVICE_STRING_EXTENSIONS
)

/** @brief How a framebuffer readback is allowed to be satisfied. */
type ReadbackMode int

const (
	/** @brief Stall until the data for the current frame is available. */
	READBACK_MODE_BLOCK ReadbackMode = iota
	/** @brief Data from a previous frame is acceptable. */
	READBACK_MODE_OLD_DATA_OK
)

/** @brief Aspect bits of a framebuffer attachment. */
type Aspect int

const (
	ASPECT_COLOR   Aspect = 0x1
	ASPECT_DEPTH   Aspect = 0x2
	ASPECT_STENCIL Aspect = 0x4
)

/** @brief How the backend may take ownership of uploaded pixel data. */
type AllocType int

const (
	/** @brief Data is owned by the step and released after upload. */
	ALLOC_TYPE_NEW AllocType = iota
	/** @brief Data is aligned host memory owned by the step. */
	ALLOC_TYPE_ALIGNED
	/** @brief Data is borrowed; the caller keeps it alive until the step ran. */
	ALLOC_TYPE_NONE
)
