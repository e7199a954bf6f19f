package metadata

import "github.com/gogpu/gputypes"

type InitStepType int

const (
	INIT_STEP_CREATE_TEXTURE InitStepType = iota
	INIT_STEP_CREATE_SHADER
	INIT_STEP_CREATE_PROGRAM
	INIT_STEP_CREATE_BUFFER
	INIT_STEP_CREATE_INPUT_LAYOUT
	INIT_STEP_CREATE_FRAMEBUFFER
	INIT_STEP_TEXTURE_IMAGE
	INIT_STEP_TEXTURE_FINALIZE
	INIT_STEP_BUFFER_SUBDATA
)

/**
 * @brief A resource creation or upload. Init steps of a task always run
 * before the task's render steps, so objects exist before first use.
 */
type InitStep interface {
	InitStepType() InitStepType
}

type CreateTextureStep struct {
	Texture *Texture
}

type CreateBufferStep struct {
	Buffer *Buffer
	Size   int
	Usage  gputypes.BufferUsage
}

type CreateShaderStep struct {
	Shader *Shader
	Stage  gputypes.ShaderStage
	Code   string
}

// CreateProgramStep references its shaders only until it has run.
type CreateProgramStep struct {
	Program           *Program
	Shaders           []*Shader
	SupportDualSource bool
}

type CreateFramebufferStep struct {
	Framebuffer *Framebuffer
}

type CreateInputLayoutStep struct {
	InputLayout *InputLayout
}

// TextureImageStep owns Data unless AllocType is ALLOC_TYPE_NONE.
type TextureImageStep struct {
	Texture      *Texture
	Level        int
	Width        int
	Height       int
	Depth        int
	Format       gputypes.TextureFormat
	Data         []byte
	AllocType    AllocType
	LinearFilter bool
}

type TextureFinalizeStep struct {
	Texture      *Texture
	LoadedLevels int
	GenMips      bool
}

// BufferSubdataStep owns Data when DeleteData is set.
type BufferSubdataStep struct {
	Buffer     *Buffer
	Offset     int
	Size       int
	Data       []byte
	DeleteData bool
}

func (*CreateTextureStep) InitStepType() InitStepType     { return INIT_STEP_CREATE_TEXTURE }
func (*CreateBufferStep) InitStepType() InitStepType      { return INIT_STEP_CREATE_BUFFER }
func (*CreateShaderStep) InitStepType() InitStepType      { return INIT_STEP_CREATE_SHADER }
func (*CreateProgramStep) InitStepType() InitStepType     { return INIT_STEP_CREATE_PROGRAM }
func (*CreateFramebufferStep) InitStepType() InitStepType { return INIT_STEP_CREATE_FRAMEBUFFER }
func (*CreateInputLayoutStep) InitStepType() InitStepType { return INIT_STEP_CREATE_INPUT_LAYOUT }
func (*TextureImageStep) InitStepType() InitStepType      { return INIT_STEP_TEXTURE_IMAGE }
func (*TextureFinalizeStep) InitStepType() InitStepType   { return INIT_STEP_TEXTURE_FINALIZE }
func (*BufferSubdataStep) InitStepType() InitStepType     { return INIT_STEP_BUFFER_SUBDATA }
