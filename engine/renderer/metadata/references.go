package metadata

// References reports whether the step or any of its commands points at res.
// Used by the delete validation on the render thread.
func (s *Step) References(res Resource) bool {
	switch d := s.Data.(type) {
	case *RenderPassData:
		if isFramebuffer(d.Framebuffer, res) {
			return true
		}
	case *CopyData:
		if isFramebuffer(d.Src, res) || isFramebuffer(d.Dst, res) {
			return true
		}
	case *BlitData:
		if isFramebuffer(d.Src, res) || isFramebuffer(d.Dst, res) {
			return true
		}
	case *ReadbackData:
		if isFramebuffer(d.Src, res) {
			return true
		}
	case *ReadbackImageData:
		if d.Texture != nil && Resource(d.Texture) == res {
			return true
		}
	}
	for _, c := range s.Commands {
		if CommandReferences(c, res) {
			return true
		}
	}
	return false
}

func CommandReferences(c Command, res Resource) bool {
	switch cmd := c.(type) {
	case *BindProgramCommand:
		return cmd.Program != nil && Resource(cmd.Program) == res
	case *BindTextureCommand:
		return cmd.Texture != nil && Resource(cmd.Texture) == res
	case *BindFBTextureCommand:
		return isFramebuffer(cmd.Framebuffer, res)
	case *TextureSubImageCommand:
		return cmd.Texture != nil && Resource(cmd.Texture) == res
	case *DrawCommand:
		if cmd.InputLayout != nil && Resource(cmd.InputLayout) == res {
			return true
		}
		if cmd.Buffer != nil && Resource(cmd.Buffer) == res {
			return true
		}
		return cmd.IndexBuffer != nil && Resource(cmd.IndexBuffer) == res
	}
	return false
}

func InitStepReferences(is InitStep, res Resource) bool {
	switch s := is.(type) {
	case *CreateTextureStep:
		return Resource(s.Texture) == res
	case *CreateBufferStep:
		return Resource(s.Buffer) == res
	case *CreateShaderStep:
		return Resource(s.Shader) == res
	case *CreateProgramStep:
		if Resource(s.Program) == res {
			return true
		}
		for _, sh := range s.Shaders {
			if Resource(sh) == res {
				return true
			}
		}
	case *CreateFramebufferStep:
		return Resource(s.Framebuffer) == res
	case *CreateInputLayoutStep:
		return Resource(s.InputLayout) == res
	case *TextureImageStep:
		return Resource(s.Texture) == res
	case *TextureFinalizeStep:
		return Resource(s.Texture) == res
	case *BufferSubdataStep:
		return Resource(s.Buffer) == res
	}
	return false
}

func isFramebuffer(fb *Framebuffer, res Resource) bool {
	return fb != nil && Resource(fb) == res
}
