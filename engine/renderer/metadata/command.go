package metadata

import "github.com/gogpu/gputypes"

type CommandType int

const (
	COMMAND_DEPTH CommandType = iota
	COMMAND_STENCIL_FUNC
	COMMAND_STENCIL_OP
	COMMAND_BLEND
	COMMAND_BLEND_COLOR
	COMMAND_LOGIC_OP
	COMMAND_UNIFORM4I
	COMMAND_UNIFORM4UI
	COMMAND_UNIFORM4F
	COMMAND_UNIFORM_MATRIX
	COMMAND_UNIFORM_STEREO_MATRIX
	COMMAND_TEXTURE_SAMPLER
	COMMAND_TEXTURE_LOD
	COMMAND_VIEWPORT
	COMMAND_SCISSOR
	COMMAND_RASTER
	COMMAND_CLEAR
	COMMAND_INVALIDATE
	COMMAND_BIND_PROGRAM
	COMMAND_BIND_TEXTURE
	COMMAND_BIND_FB_TEXTURE
	COMMAND_TEXTURE_SUBIMAGE
	COMMAND_DRAW
)

/**
 * @brief A single recorded operation inside a render step. The set of
 * implementations is closed; consumers switch on the concrete type.
 * Commands are immutable once appended.
 */
type Command interface {
	CommandType() CommandType
}

type StencilOperation int

const (
	STENCIL_OP_KEEP StencilOperation = iota
	STENCIL_OP_ZERO
	STENCIL_OP_REPLACE
	STENCIL_OP_INCREMENT_CLAMP
	STENCIL_OP_DECREMENT_CLAMP
	STENCIL_OP_INVERT
	STENCIL_OP_INCREMENT_WRAP
	STENCIL_OP_DECREMENT_WRAP
)

type LogicOp int

const (
	LOGIC_OP_CLEAR LogicOp = iota
	LOGIC_OP_AND
	LOGIC_OP_COPY
	LOGIC_OP_NOOP
	LOGIC_OP_XOR
	LOGIC_OP_OR
	LOGIC_OP_INVERT
	LOGIC_OP_SET
)

type DepthCommand struct {
	Enabled bool
	Write   bool
	Func    gputypes.CompareFunction
}

type StencilFuncCommand struct {
	Enabled     bool
	Func        gputypes.CompareFunction
	Ref         uint8
	CompareMask uint8
}

type StencilOpCommand struct {
	WriteMask uint8
	SFail     StencilOperation
	ZFail     StencilOperation
	Pass      StencilOperation
}

type BlendCommand struct {
	Mask      gputypes.ColorWriteMask
	Enabled   bool
	SrcColor  gputypes.BlendFactor
	DstColor  gputypes.BlendFactor
	SrcAlpha  gputypes.BlendFactor
	DstAlpha  gputypes.BlendFactor
	FuncColor gputypes.BlendOperation
	FuncAlpha gputypes.BlendOperation
}

type BlendColorCommand struct {
	Color [4]float32
}

type LogicOpCommand struct {
	Enabled bool
	Op      LogicOp
}

// Uniform commands carry either a cached location or a name. The name is
// resolved on the render thread through the bound program's location cache.
type Uniform4ICommand struct {
	Loc   *UniformLocation
	Name  string
	Count int
	V     [4]int32
}

type Uniform4UICommand struct {
	Loc   *UniformLocation
	Name  string
	Count int
	V     [4]uint32
}

type Uniform4FCommand struct {
	Loc   *UniformLocation
	Name  string
	Count int
	V     [4]float32
}

type UniformMatrixCommand struct {
	Loc  *UniformLocation
	Name string
	M    [16]float32
}

// UniformStereoMatrixCommand owns Data (left then right matrix, 32 floats)
// until the render thread executed it.
type UniformStereoMatrixCommand struct {
	Loc  *UniformLocation
	Name string
	Data []float32
}

type TextureSamplerCommand struct {
	Slot       int
	WrapS      gputypes.AddressMode
	WrapT      gputypes.AddressMode
	MagFilter  gputypes.FilterMode
	MinFilter  gputypes.FilterMode
	Anisotropy float32
}

type TextureLodCommand struct {
	Slot    int
	MinLod  float32
	MaxLod  float32
	LodBias float32
}

type ViewportCommand struct {
	Viewport Viewport
}

type ScissorCommand struct {
	Rect Rect2D
}

type RasterCommand struct {
	CullEnable       bool
	FrontFace        gputypes.FrontFace
	CullFace         gputypes.CullMode
	DitherEnable     bool
	DepthClampEnable bool
}

// ClearCommand clears the whole target when Scissor.W is 0.
type ClearCommand struct {
	ClearMask    Aspect
	ClearColor   uint32
	ClearZ       float32
	ClearStencil uint8
	ColorMask    gputypes.ColorWriteMask
	Scissor      Rect2D
}

type InvalidateCommand struct {
	AspectMask Aspect
}

type BindProgramCommand struct {
	Program *Program
}

type BindTextureCommand struct {
	Slot    int
	Texture *Texture
}

type BindFBTextureCommand struct {
	Slot        int
	Framebuffer *Framebuffer
	Aspect      Aspect
}

// TextureSubImageCommand owns Data unless AllocType is ALLOC_TYPE_NONE.
type TextureSubImageCommand struct {
	Slot      int
	Texture   *Texture
	Level     int
	X, Y      int
	Width     int
	Height    int
	Format    gputypes.TextureFormat
	Data      []byte
	AllocType AllocType
}

/**
 * @brief A draw call. IndexBuffer is nil for non indexed draws; Indices is
 * then unused and First / Count address vertices.
 */
type DrawCommand struct {
	InputLayout *InputLayout
	Buffer      *Buffer
	Offset      int
	IndexBuffer *Buffer
	Mode        gputypes.PrimitiveTopology
	First       int
	Count       int
	IndexType   gputypes.IndexFormat
	Indices     int
	Instances   int
}

func (*DepthCommand) CommandType() CommandType               { return COMMAND_DEPTH }
func (*StencilFuncCommand) CommandType() CommandType         { return COMMAND_STENCIL_FUNC }
func (*StencilOpCommand) CommandType() CommandType           { return COMMAND_STENCIL_OP }
func (*BlendCommand) CommandType() CommandType               { return COMMAND_BLEND }
func (*BlendColorCommand) CommandType() CommandType          { return COMMAND_BLEND_COLOR }
func (*LogicOpCommand) CommandType() CommandType             { return COMMAND_LOGIC_OP }
func (*Uniform4ICommand) CommandType() CommandType           { return COMMAND_UNIFORM4I }
func (*Uniform4UICommand) CommandType() CommandType          { return COMMAND_UNIFORM4UI }
func (*Uniform4FCommand) CommandType() CommandType           { return COMMAND_UNIFORM4F }
func (*UniformMatrixCommand) CommandType() CommandType       { return COMMAND_UNIFORM_MATRIX }
func (*UniformStereoMatrixCommand) CommandType() CommandType { return COMMAND_UNIFORM_STEREO_MATRIX }
func (*TextureSamplerCommand) CommandType() CommandType      { return COMMAND_TEXTURE_SAMPLER }
func (*TextureLodCommand) CommandType() CommandType          { return COMMAND_TEXTURE_LOD }
func (*ViewportCommand) CommandType() CommandType            { return COMMAND_VIEWPORT }
func (*ScissorCommand) CommandType() CommandType             { return COMMAND_SCISSOR }
func (*RasterCommand) CommandType() CommandType              { return COMMAND_RASTER }
func (*ClearCommand) CommandType() CommandType               { return COMMAND_CLEAR }
func (*InvalidateCommand) CommandType() CommandType          { return COMMAND_INVALIDATE }
func (*BindProgramCommand) CommandType() CommandType         { return COMMAND_BIND_PROGRAM }
func (*BindTextureCommand) CommandType() CommandType         { return COMMAND_BIND_TEXTURE }
func (*BindFBTextureCommand) CommandType() CommandType       { return COMMAND_BIND_FB_TEXTURE }
func (*TextureSubImageCommand) CommandType() CommandType     { return COMMAND_TEXTURE_SUBIMAGE }
func (*DrawCommand) CommandType() CommandType                { return COMMAND_DRAW }
