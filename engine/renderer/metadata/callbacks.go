package metadata

/**
 * @brief Receives unrecoverable device errors raised on the render thread.
 * Userdata is the opaque value registered alongside the callback.
 */
type ErrorCallback func(message string, userdata any)

/** @brief What cached state callers must consider stale. */
type InvalidationFlags int

const (
	INVALIDATION_RENDER_PASS_STATE    InvalidationFlags = 0x1
	INVALIDATION_COMMAND_BUFFER_STATE InvalidationFlags = 0x2
)

type InvalidationCallback func(flags InvalidationFlags)
