package metadata

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

type StepType int

const (
	STEP_TYPE_RENDER StepType = iota
	STEP_TYPE_COPY
	STEP_TYPE_BLIT
	STEP_TYPE_READBACK
	STEP_TYPE_READBACK_IMAGE
	/** @brief A render step that turned out to be empty and must not be executed. */
	STEP_TYPE_RENDER_SKIP
)

func (st StepType) String() string {
	switch st {
	case STEP_TYPE_RENDER:
		return "RENDER"
	case STEP_TYPE_COPY:
		return "COPY"
	case STEP_TYPE_BLIT:
		return "BLIT"
	case STEP_TYPE_READBACK:
		return "READBACK"
	case STEP_TYPE_READBACK_IMAGE:
		return "READBACK_IMAGE"
	case STEP_TYPE_RENDER_SKIP:
		return "RENDER_SKIP"
	}
	return fmt.Sprintf("StepType(%d)", int(st))
}

/** @brief What happens to an attachment's contents when a render pass begins. */
type RenderPassAction int

const (
	RENDER_PASS_ACTION_KEEP RenderPassAction = iota
	RENDER_PASS_ACTION_CLEAR
	RENDER_PASS_ACTION_DONT_CARE
)

// LoadOp maps the action onto the device load operation. There is no
// dont-care load op, and clearing is always a valid way to discard.
func (a RenderPassAction) LoadOp() gputypes.LoadOp {
	if a == RENDER_PASS_ACTION_KEEP {
		return gputypes.LoadOpLoad
	}
	return gputypes.LoadOpClear
}

type Rect2D struct {
	X, Y, W, H int
}

type Offset2D struct {
	X, Y int
}

type Viewport struct {
	X, Y, W, H float32
	MinZ, MaxZ float32
}

/**
 * @brief One unit of ordered GPU work. Owned by the frame's step list until the
 * render thread executed it.
 */
type Step struct {
	Type StepType
	/** @brief Monotonic generation tag, lets callers know when to resend state. */
	ID  uint64
	Tag string
	/** @brief Ordered commands, only used by render steps. */
	Commands []Command
	/** @brief Step specific payload, see the *Data types below. */
	Data StepData
}

func NewStep(stepType StepType, id uint64, tag string, data StepData) *Step {
	return &Step{
		Type: stepType,
		ID:   id,
		Tag:  tag,
		Data: data,
	}
}

// RenderPass returns the render pass payload of a render step, nil otherwise.
func (s *Step) RenderPass() *RenderPassData {
	rp, _ := s.Data.(*RenderPassData)
	return rp
}

// StepData is implemented by the payload of every step type.
type StepData interface {
	stepData()
}

type RenderPassData struct {
	/** @brief The target, nil means the default back buffer. */
	Framebuffer  *Framebuffer
	Color        RenderPassAction
	Depth        RenderPassAction
	Stencil      RenderPassAction
	ClearColor   uint32
	ClearDepth   float32
	ClearStencil uint8
	NumDraws     int
}

// ClearColorValue unpacks the RGBA8 clear colour.
func (rp *RenderPassData) ClearColorValue() gputypes.Color {
	return gputypes.Color{
		R: float64(rp.ClearColor&0xFF) / 255.0,
		G: float64((rp.ClearColor>>8)&0xFF) / 255.0,
		B: float64((rp.ClearColor>>16)&0xFF) / 255.0,
		A: float64((rp.ClearColor>>24)&0xFF) / 255.0,
	}
}

type CopyData struct {
	Src        *Framebuffer
	Dst        *Framebuffer
	SrcRect    Rect2D
	DstPos     Offset2D
	AspectMask Aspect
}

type BlitData struct {
	Src        *Framebuffer
	Dst        *Framebuffer
	SrcRect    Rect2D
	DstRect    Rect2D
	AspectMask Aspect
	Filter     bool
}

/**
 * @brief Copies a framebuffer region into Pixels. The render thread fills
 * Pixels before signalling the sync rendezvous.
 */
type ReadbackData struct {
	/** @brief The source, nil means the default back buffer. */
	Src         *Framebuffer
	SrcRect     Rect2D
	AspectMask  Aspect
	DstFormat   gputypes.TextureFormat
	Pixels      []byte
	PixelStride int
}

type ReadbackImageData struct {
	Texture     *Texture
	MipLevel    int
	SrcRect     Rect2D
	DstFormat   gputypes.TextureFormat
	Pixels      []byte
	PixelStride int
}

func (*RenderPassData) stepData()    {}
func (*CopyData) stepData()          {}
func (*BlitData) stepData()          {}
func (*ReadbackData) stepData()      {}
func (*ReadbackImageData) stepData() {}
