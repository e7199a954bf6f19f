package metadata

import "github.com/gogpu/gputypes"

/** @brief A device buffer (vertex, index, uniform...). */
type Buffer struct {
	Handle

	/** @brief The native device object name. Render thread only. */
	Native uint32
	/** @brief What the buffer is bound as. */
	Usage gputypes.BufferUsage
	/** @brief The total size of the buffer in bytes. */
	Size int
	/** @brief Whether storage was allocated on the device. Render thread only. */
	HasStorage bool
}

func NewBuffer(usage gputypes.BufferUsage, size int) *Buffer {
	return &Buffer{
		Handle: newHandle(),
		Usage:  usage,
		Size:   size,
	}
}

func (b *Buffer) ResourceType() ResourceType {
	return ResourceTypeBuffer
}
