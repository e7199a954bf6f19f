package renderer

import (
	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

// The Create calls return a handle right away. The device object behind it
// exists once the render thread ran the init steps of the task carrying it,
// which always happens before that task's render steps.

func (rm *RenderManager) CreateTexture(dimension gputypes.TextureDimension, width, height, depth, numMips int) *metadata.Texture {
	tex := metadata.NewTexture(rm.caps, dimension, width, height, depth, numMips)
	rm.initSteps = append(rm.initSteps, &metadata.CreateTextureStep{Texture: tex})
	return tex
}

func (rm *RenderManager) CreateBuffer(usage gputypes.BufferUsage, size int) *metadata.Buffer {
	buf := metadata.NewBuffer(usage, size)
	rm.initSteps = append(rm.initSteps, &metadata.CreateBufferStep{Buffer: buf, Size: size, Usage: usage})
	return buf
}

func (rm *RenderManager) CreateShader(stage gputypes.ShaderStage, code, desc string) *metadata.Shader {
	shader := metadata.NewShader(stage, code, desc)
	rm.initSteps = append(rm.initSteps, &metadata.CreateShaderStep{Shader: shader, Stage: stage, Code: code})
	return shader
}

func (rm *RenderManager) CreateFramebuffer(width, height int, zStencil bool) *metadata.Framebuffer {
	fb := metadata.NewFramebuffer(rm.caps, width, height, zStencil)
	rm.initSteps = append(rm.initSteps, &metadata.CreateFramebufferStep{Framebuffer: fb})
	return fb
}

/**
 * @brief Queues linking of a program. Uniform initializers are applied by the
 * render thread right after linking, since there may be no open render step
 * to record them into. The shaders may be deleted as soon as this returns.
 */
func (rm *RenderManager) CreateProgram(shaders []*metadata.Shader, semantics []metadata.Semantic, queries []metadata.UniformLocQuery, initializers []metadata.Initializer, locData any, flags metadata.ProgramFlags) *metadata.Program {
	core.Assert(len(shaders) > 0, "cannot create a program with zero shaders")
	for _, q := range queries {
		core.Assert(q.Name != "", "uniform query without a name")
	}
	for _, sem := range semantics {
		core.Assert(sem.Attrib != "", "semantic %d without an attribute name", sem.Location)
	}
	program := metadata.NewProgram(semantics, queries, initializers, locData, flags)
	rm.initSteps = append(rm.initSteps, &metadata.CreateProgramStep{
		Program:           program,
		Shaders:           append([]*metadata.Shader(nil), shaders...),
		SupportDualSource: flags.SupportDualSource,
	})
	return program
}

func (rm *RenderManager) CreateInputLayout(entries []metadata.InputLayoutEntry) *metadata.InputLayout {
	il := metadata.NewInputLayout(entries)
	rm.initSteps = append(rm.initSteps, &metadata.CreateInputLayoutStep{InputLayout: il})
	return il
}

// TextureImage uploads a full mip level. The step owns data unless allocType
// is ALLOC_TYPE_NONE.
func (rm *RenderManager) TextureImage(tex *metadata.Texture, level, width, height, depth int, format gputypes.TextureFormat, data []byte, allocType metadata.AllocType, linearFilter bool) {
	rm.initSteps = append(rm.initSteps, &metadata.TextureImageStep{
		Texture:      tex,
		Level:        level,
		Width:        width,
		Height:       height,
		Depth:        depth,
		Format:       format,
		Data:         data,
		AllocType:    allocType,
		LinearFilter: linearFilter,
	})
}

func (rm *RenderManager) FinalizeTexture(tex *metadata.Texture, loadedLevels int, genMips bool) {
	rm.initSteps = append(rm.initSteps, &metadata.TextureFinalizeStep{Texture: tex, LoadedLevels: loadedLevels, GenMips: genMips})
}

// BufferSubdata writes size bytes of data at offset. The step takes ownership
// of data when deleteData is set.
func (rm *RenderManager) BufferSubdata(buffer *metadata.Buffer, offset, size int, data []byte, deleteData bool) {
	core.Assert(offset >= 0, "negative buffer offset %d", offset)
	core.Assert(offset+size <= buffer.Size, "buffer write [%d, %d) past the end of a %d byte buffer", offset, offset+size, buffer.Size)
	core.Assert(size <= len(data), "buffer write of %d bytes from %d bytes of data", size, len(data))
	rm.initSteps = append(rm.initSteps, &metadata.BufferSubdataStep{
		Buffer:     buffer,
		Offset:     offset,
		Size:       size,
		Data:       data,
		DeleteData: deleteData,
	})
}
