package renderer

import (
	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

func (rm *RenderManager) nextStepID() uint64 {
	rm.stepID++
	return rm.stepID
}

// CurrentStepID changes every time a new step is opened. Callers compare it
// to know when render state must be sent again.
func (rm *RenderManager) CurrentStepID() uint64 {
	return rm.stepID
}

func (rm *RenderManager) IsInRenderPass() bool {
	return rm.curRenderStep != nil && rm.curRenderStep.Type == metadata.STEP_TYPE_RENDER
}

func (rm *RenderManager) assertRenderStep(call string) *metadata.Step {
	core.Assert(rm.IsInRenderPass(), "%s called without an open render step", call)
	return rm.curRenderStep
}

func (rm *RenderManager) assertUniform(call string) *metadata.Step {
	step := rm.assertRenderStep(call)
	core.Assert(rm.curProgram != nil, "%s called without a bound program", call)
	return step
}

// closeRenderStep ends the open render step. An empty one is turned into a
// skip step so the render thread never starts a pass for it.
func (rm *RenderManager) closeRenderStep() {
	if rm.curRenderStep == nil {
		return
	}
	if rm.curRenderStep.Type == metadata.STEP_TYPE_RENDER && len(rm.curRenderStep.Commands) == 0 {
		rm.curRenderStep.Type = metadata.STEP_TYPE_RENDER_SKIP
	}
	rm.curRenderStep = nil
}

/**
 * @brief Starts a render step targeting fb, or the back buffer when fb is nil.
 * Viewport, scissor, depth/stencil, blend and raster state do not carry over
 * from the previous step and must be set again. Binding the target of the
 * last render step again without clearing continues that step.
 */
func (rm *RenderManager) BindFramebufferAsRenderTarget(fb *metadata.Framebuffer, color, depth, stencil metadata.RenderPassAction, clearColor uint32, clearDepth float32, clearStencil uint8, tag string) {
	core.Assert(rm.insideFrame, "BindFramebufferAsRenderTarget called outside of a frame")

	if n := len(rm.steps); n > 0 {
		last := rm.steps[n-1]
		if last.Type == metadata.STEP_TYPE_RENDER && last.RenderPass().Framebuffer == fb &&
			color != metadata.RENDER_PASS_ACTION_CLEAR &&
			depth != metadata.RENDER_PASS_ACTION_CLEAR &&
			stencil != metadata.RENDER_PASS_ACTION_CLEAR {
			rm.curRenderStep = last
			return
		}
	}
	rm.closeRenderStep()
	rm.curProgram = nil

	step := metadata.NewStep(metadata.STEP_TYPE_RENDER, rm.nextStepID(), tag, &metadata.RenderPassData{
		Framebuffer:  fb,
		Color:        color,
		Depth:        depth,
		Stencil:      stencil,
		ClearColor:   clearColor,
		ClearDepth:   clearDepth,
		ClearStencil: clearStencil,
	})
	rm.steps = append(rm.steps, step)

	clear := &metadata.ClearCommand{ColorMask: gputypes.ColorWriteMaskAll}
	if color == metadata.RENDER_PASS_ACTION_CLEAR {
		clear.ClearMask |= metadata.ASPECT_COLOR
		clear.ClearColor = clearColor
	}
	if depth == metadata.RENDER_PASS_ACTION_CLEAR {
		clear.ClearMask |= metadata.ASPECT_DEPTH
		clear.ClearZ = clearDepth
	}
	if stencil == metadata.RENDER_PASS_ACTION_CLEAR {
		clear.ClearMask |= metadata.ASPECT_STENCIL
		clear.ClearStencil = clearStencil
	}
	if clear.ClearMask != 0 {
		step.Commands = append(step.Commands, clear)
	}

	// The back buffer cannot be invalidated.
	if fb != nil {
		var invalidate metadata.Aspect
		if color == metadata.RENDER_PASS_ACTION_DONT_CARE {
			invalidate |= metadata.ASPECT_COLOR
		}
		if depth == metadata.RENDER_PASS_ACTION_DONT_CARE {
			invalidate |= metadata.ASPECT_DEPTH
		}
		if stencil == metadata.RENDER_PASS_ACTION_DONT_CARE {
			invalidate |= metadata.ASPECT_STENCIL
		}
		if invalidate != 0 {
			step.Commands = append(step.Commands, &metadata.InvalidateCommand{AspectMask: invalidate})
		}
	}

	rm.curRenderStep = step
	rm.invalidate(metadata.INVALIDATION_RENDER_PASS_STATE)
}

// BindFramebufferAsTexture binds one aspect of fb to a texture slot for the
// following draws.
func (rm *RenderManager) BindFramebufferAsTexture(fb *metadata.Framebuffer, slot int, aspect metadata.Aspect) {
	step := rm.assertRenderStep("BindFramebufferAsTexture")
	core.Assert(fb != nil, "BindFramebufferAsTexture with nil framebuffer")
	core.Assert(slot >= 0 && slot < metadata.MaxTextureSlots, "texture slot %d out of range", slot)
	step.Commands = append(step.Commands, &metadata.BindFBTextureCommand{Slot: slot, Framebuffer: fb, Aspect: aspect})
}

func (rm *RenderManager) CopyFramebuffer(src *metadata.Framebuffer, srcRect metadata.Rect2D, dst *metadata.Framebuffer, dstPos metadata.Offset2D, aspectMask metadata.Aspect, tag string) {
	core.Assert(src != nil && dst != nil, "CopyFramebuffer needs both a source and a destination")
	rm.closeRenderStep()
	rm.steps = append(rm.steps, metadata.NewStep(metadata.STEP_TYPE_COPY, rm.nextStepID(), tag, &metadata.CopyData{
		Src:        src,
		Dst:        dst,
		SrcRect:    srcRect,
		DstPos:     dstPos,
		AspectMask: aspectMask,
	}))
}

func (rm *RenderManager) BlitFramebuffer(src *metadata.Framebuffer, srcRect metadata.Rect2D, dst *metadata.Framebuffer, dstRect metadata.Rect2D, aspectMask metadata.Aspect, filter bool, tag string) {
	rm.closeRenderStep()
	rm.steps = append(rm.steps, metadata.NewStep(metadata.STEP_TYPE_BLIT, rm.nextStepID(), tag, &metadata.BlitData{
		Src:        src,
		Dst:        dst,
		SrcRect:    srcRect,
		DstRect:    dstRect,
		AspectMask: aspectMask,
		Filter:     filter,
	}))
}

// BindTexture binds tex to slot. Unbinding with no open step is ignored, which
// lets callers clear bindings pre-emptively between passes.
func (rm *RenderManager) BindTexture(slot int, tex *metadata.Texture) {
	if rm.curRenderStep == nil && tex == nil {
		return
	}
	step := rm.assertRenderStep("BindTexture")
	core.Assert(slot >= 0 && slot < metadata.MaxTextureSlots, "texture slot %d out of range", slot)
	step.Commands = append(step.Commands, &metadata.BindTextureCommand{Slot: slot, Texture: tex})
}

func (rm *RenderManager) BindProgram(program *metadata.Program) {
	step := rm.assertRenderStep("BindProgram")
	core.Assert(program != nil, "BindProgram with nil program")
	step.Commands = append(step.Commands, &metadata.BindProgramCommand{Program: program})
	rm.curProgram = program
}

func (rm *RenderManager) SetDepth(enabled, write bool, fn gputypes.CompareFunction) {
	step := rm.assertRenderStep("SetDepth")
	step.Commands = append(step.Commands, &metadata.DepthCommand{Enabled: enabled, Write: write, Func: fn})
}

func (rm *RenderManager) SetViewport(vp metadata.Viewport) {
	step := rm.assertRenderStep("SetViewport")
	step.Commands = append(step.Commands, &metadata.ViewportCommand{Viewport: vp})
}

func (rm *RenderManager) SetScissor(rc metadata.Rect2D) {
	step := rm.assertRenderStep("SetScissor")
	step.Commands = append(step.Commands, &metadata.ScissorCommand{Rect: rc})
}

func (rm *RenderManager) SetUniformI(loc *metadata.UniformLocation, v ...int32) {
	step := rm.assertUniform("SetUniformI")
	core.Assert(len(v) >= 1 && len(v) <= 4, "uniform with %d components", len(v))
	cmd := &metadata.Uniform4ICommand{Loc: loc, Count: len(v)}
	copy(cmd.V[:], v)
	step.Commands = append(step.Commands, cmd)
}

func (rm *RenderManager) SetUniformUI(loc *metadata.UniformLocation, v ...uint32) {
	step := rm.assertUniform("SetUniformUI")
	core.Assert(len(v) >= 1 && len(v) <= 4, "uniform with %d components", len(v))
	cmd := &metadata.Uniform4UICommand{Loc: loc, Count: len(v)}
	copy(cmd.V[:], v)
	step.Commands = append(step.Commands, cmd)
}

func (rm *RenderManager) SetUniformF(loc *metadata.UniformLocation, v ...float32) {
	step := rm.assertUniform("SetUniformF")
	core.Assert(len(v) >= 1 && len(v) <= 4, "uniform with %d components", len(v))
	cmd := &metadata.Uniform4FCommand{Loc: loc, Count: len(v)}
	copy(cmd.V[:], v)
	step.Commands = append(step.Commands, cmd)
}

// SetUniformFByName is the slow path: the name is resolved on the render
// thread through the bound program's location cache.
func (rm *RenderManager) SetUniformFByName(name string, v ...float32) {
	step := rm.assertUniform("SetUniformFByName")
	core.Assert(len(v) >= 1 && len(v) <= 4, "uniform with %d components", len(v))
	cmd := &metadata.Uniform4FCommand{Name: name, Count: len(v)}
	copy(cmd.V[:], v)
	step.Commands = append(step.Commands, cmd)
}

func (rm *RenderManager) SetUniformM4x4(loc *metadata.UniformLocation, m [16]float32) {
	step := rm.assertUniform("SetUniformM4x4")
	step.Commands = append(step.Commands, &metadata.UniformMatrixCommand{Loc: loc, M: m})
}

func (rm *RenderManager) SetUniformM4x4ByName(name string, m [16]float32) {
	step := rm.assertUniform("SetUniformM4x4ByName")
	step.Commands = append(step.Commands, &metadata.UniformMatrixCommand{Name: name, M: m})
}

func (rm *RenderManager) SetUniformM4x4Stereo(name string, loc *metadata.UniformLocation, left, right [16]float32) {
	step := rm.assertUniform("SetUniformM4x4Stereo")
	data := make([]float32, 32)
	copy(data[:16], left[:])
	copy(data[16:], right[:])
	step.Commands = append(step.Commands, &metadata.UniformStereoMatrixCommand{Name: name, Loc: loc, Data: data})
}

func (rm *RenderManager) SetBlendAndMask(mask gputypes.ColorWriteMask, enabled bool, srcColor, dstColor, srcAlpha, dstAlpha gputypes.BlendFactor, funcColor, funcAlpha gputypes.BlendOperation) {
	step := rm.assertRenderStep("SetBlendAndMask")
	step.Commands = append(step.Commands, &metadata.BlendCommand{
		Mask:      mask,
		Enabled:   enabled,
		SrcColor:  srcColor,
		DstColor:  dstColor,
		SrcAlpha:  srcAlpha,
		DstAlpha:  dstAlpha,
		FuncColor: funcColor,
		FuncAlpha: funcAlpha,
	})
}

func (rm *RenderManager) SetNoBlendAndMask(mask gputypes.ColorWriteMask) {
	step := rm.assertRenderStep("SetNoBlendAndMask")
	step.Commands = append(step.Commands, &metadata.BlendCommand{Mask: mask})
}

func (rm *RenderManager) SetLogicOp(enabled bool, op metadata.LogicOp) {
	step := rm.assertRenderStep("SetLogicOp")
	step.Commands = append(step.Commands, &metadata.LogicOpCommand{Enabled: enabled, Op: op})
}

func (rm *RenderManager) SetStencilFunc(enabled bool, fn gputypes.CompareFunction, ref, compareMask uint8) {
	step := rm.assertRenderStep("SetStencilFunc")
	step.Commands = append(step.Commands, &metadata.StencilFuncCommand{Enabled: enabled, Func: fn, Ref: ref, CompareMask: compareMask})
}

func (rm *RenderManager) SetStencilOp(writeMask uint8, sFail, zFail, pass metadata.StencilOperation) {
	step := rm.assertRenderStep("SetStencilOp")
	step.Commands = append(step.Commands, &metadata.StencilOpCommand{WriteMask: writeMask, SFail: sFail, ZFail: zFail, Pass: pass})
}

func (rm *RenderManager) SetStencilDisabled() {
	step := rm.assertRenderStep("SetStencilDisabled")
	step.Commands = append(step.Commands, &metadata.StencilFuncCommand{Enabled: false})
}

func (rm *RenderManager) SetBlendFactor(color [4]float32) {
	step := rm.assertRenderStep("SetBlendFactor")
	step.Commands = append(step.Commands, &metadata.BlendColorCommand{Color: color})
}

func (rm *RenderManager) SetRaster(cullEnable bool, frontFace gputypes.FrontFace, cullFace gputypes.CullMode, ditherEnable, depthClamp bool) {
	step := rm.assertRenderStep("SetRaster")
	step.Commands = append(step.Commands, &metadata.RasterCommand{
		CullEnable:       cullEnable,
		FrontFace:        frontFace,
		CullFace:         cullFace,
		DitherEnable:     ditherEnable,
		DepthClampEnable: depthClamp,
	})
}

// SetTextureSampler changes the sampler of the texture bound to slot, not a
// global sampler.
func (rm *RenderManager) SetTextureSampler(slot int, wrapS, wrapT gputypes.AddressMode, magFilter, minFilter gputypes.FilterMode, anisotropy float32) {
	step := rm.assertRenderStep("SetTextureSampler")
	core.Assert(slot >= 0 && slot < metadata.MaxTextureSlots, "texture slot %d out of range", slot)
	step.Commands = append(step.Commands, &metadata.TextureSamplerCommand{
		Slot:       slot,
		WrapS:      wrapS,
		WrapT:      wrapT,
		MagFilter:  magFilter,
		MinFilter:  minFilter,
		Anisotropy: anisotropy,
	})
}

func (rm *RenderManager) SetTextureLod(slot int, minLod, maxLod, lodBias float32) {
	step := rm.assertRenderStep("SetTextureLod")
	core.Assert(slot >= 0 && slot < metadata.MaxTextureSlots, "texture slot %d out of range", slot)
	step.Commands = append(step.Commands, &metadata.TextureLodCommand{Slot: slot, MinLod: minLod, MaxLod: maxLod, LodBias: lodBias})
}

// TextureSubImage uploads a region of tex. The command takes ownership of
// data unless allocType is ALLOC_TYPE_NONE.
func (rm *RenderManager) TextureSubImage(slot int, tex *metadata.Texture, level, x, y, width, height int, format gputypes.TextureFormat, data []byte, allocType metadata.AllocType) {
	step := rm.assertRenderStep("TextureSubImage")
	core.Assert(slot >= 0 && slot < metadata.MaxTextureSlots, "texture slot %d out of range", slot)
	step.Commands = append(step.Commands, &metadata.TextureSubImageCommand{
		Slot:      slot,
		Texture:   tex,
		Level:     level,
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		Format:    format,
		Data:      data,
		AllocType: allocType,
	})
}

// Clear clears the aspects in clearMask. A zero scissor width clears the
// whole target. Nothing is recorded for an empty mask.
func (rm *RenderManager) Clear(clearColor uint32, clearZ float32, clearStencil uint8, clearMask metadata.Aspect, colorMask gputypes.ColorWriteMask, scissor metadata.Rect2D) {
	step := rm.assertRenderStep("Clear")
	if clearMask == 0 {
		return
	}
	step.Commands = append(step.Commands, &metadata.ClearCommand{
		ClearMask:    clearMask,
		ClearColor:   clearColor,
		ClearZ:       clearZ,
		ClearStencil: clearStencil,
		ColorMask:    colorMask,
		Scissor:      scissor,
	})
}

func (rm *RenderManager) Draw(inputLayout *metadata.InputLayout, buffer *metadata.Buffer, offset int, mode gputypes.PrimitiveTopology, first, count int) {
	step := rm.assertRenderStep("Draw")
	step.Commands = append(step.Commands, &metadata.DrawCommand{
		InputLayout: inputLayout,
		Buffer:      buffer,
		Offset:      offset,
		Mode:        mode,
		First:       first,
		Count:       count,
		Instances:   1,
	})
	step.RenderPass().NumDraws++
}

func (rm *RenderManager) DrawIndexed(inputLayout *metadata.InputLayout, buffer *metadata.Buffer, offset int, indexBuffer *metadata.Buffer, mode gputypes.PrimitiveTopology, count int, indexType gputypes.IndexFormat, indices int, instances int) {
	step := rm.assertRenderStep("DrawIndexed")
	core.Assert(indexBuffer != nil, "DrawIndexed without an index buffer")
	if instances < 1 {
		instances = 1
	}
	step.Commands = append(step.Commands, &metadata.DrawCommand{
		InputLayout: inputLayout,
		Buffer:      buffer,
		Offset:      offset,
		IndexBuffer: indexBuffer,
		Mode:        mode,
		Count:       count,
		IndexType:   indexType,
		Indices:     indices,
		Instances:   instances,
	})
	step.RenderPass().NumDraws++
}
