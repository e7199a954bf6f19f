package metadata

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

/**
 * @brief A shader stage. Compilation happens on the render thread, so the
 * submitting side only learns of a failure on a later frame by polling
 * Failed / Error.
 */
type Shader struct {
	Handle

	/** @brief The native device object name. Render thread only. */
	Native uint32
	/** @brief The pipeline stage. */
	Stage gputypes.ShaderStage
	/** @brief Free form description used in logs. */
	Desc string
	/** @brief The shader source. */
	Code string

	valid  atomic.Bool
	failed atomic.Bool
	err    atomic.Pointer[string]
}

func NewShader(stage gputypes.ShaderStage, code, desc string) *Shader {
	return &Shader{
		Handle: newHandle(),
		Stage:  stage,
		Code:   code,
		Desc:   desc,
	}
}

func (s *Shader) ResourceType() ResourceType {
	return ResourceTypeShader
}

// MarkCompiled is called by the render thread once compilation succeeded.
func (s *Shader) MarkCompiled() {
	s.valid.Store(true)
	s.failed.Store(false)
}

// MarkFailed is called by the render thread when compilation failed.
func (s *Shader) MarkFailed(msg string) {
	s.err.Store(&msg)
	s.valid.Store(false)
	s.failed.Store(true)
}

func (s *Shader) Valid() bool {
	return s.valid.Load()
}

func (s *Shader) Failed() bool {
	return s.failed.Load()
}

// Error returns the compile log of a failed shader.
func (s *Shader) Error() string {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return ""
}
