package null

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceObjects(t *testing.T) {
	b := New(DefaultDeviceCaps())
	require.NoError(t, b.CreateDeviceObjects())
	assert.Error(t, b.CreateDeviceObjects())
	b.DestroyDeviceObjects()
	assert.NoError(t, b.CreateDeviceObjects())

	assert.Equal(t, "rendermanager", b.GetString(metadata.DEVICE_STRING_VENDOR))
	assert.Equal(t, "null device", b.GetString(metadata.DEVICE_STRING_RENDERER))
	assert.Empty(t, b.GetString(metadata.DEVICE_STRING_EXTENSIONS))

	b.Resize(640, 480)
	w, h := b.Size()
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)
}

func TestShaderCompileFailure(t *testing.T) {
	b := New(DefaultDeviceCaps())
	var messages []string
	b.SetErrorCallback(func(message string, userdata any) {
		messages = append(messages, message)
		assert.Equal(t, "ctx", userdata)
	}, "ctx")

	good := metadata.NewShader(gputypes.ShaderStageVertex, "void main() {}", "good")
	bad := metadata.NewShader(gputypes.ShaderStageFragment, "  ", "bad")
	program := metadata.NewProgram(nil, nil, nil, nil, metadata.ProgramFlags{})
	b.RunInitSteps([]metadata.InitStep{
		&metadata.CreateShaderStep{Shader: good, Stage: gputypes.ShaderStageVertex, Code: "void main() {}"},
		&metadata.CreateShaderStep{Shader: bad, Stage: gputypes.ShaderStageFragment, Code: "  "},
		&metadata.CreateProgramStep{Program: program, Shaders: []*metadata.Shader{good, bad}},
	}, false)

	assert.True(t, good.Valid())
	assert.True(t, bad.Failed())
	assert.Equal(t, "empty shader source", bad.Error())
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0], `"bad"`)
	assert.Contains(t, messages[1], "failed to link program")
	// Failed objects still hold a name and are released normally.
	assert.Equal(t, 3, b.LiveObjects())
}

func TestBufferOutOfMemory(t *testing.T) {
	caps := DefaultDeviceCaps()
	caps.MaxBufferSize = 32
	b := New(caps)

	small := metadata.NewBuffer(gputypes.BufferUsageVertex, 16)
	large := metadata.NewBuffer(gputypes.BufferUsageVertex, 64)
	b.RunInitSteps([]metadata.InitStep{
		&metadata.CreateBufferStep{Buffer: small, Size: 16},
		&metadata.CreateBufferStep{Buffer: large, Size: 64},
		&metadata.BufferSubdataStep{Buffer: small, Offset: 2, Size: 2, Data: []byte{7, 8, 9}},
	}, false)

	assert.True(t, b.SawOutOfMemory())
	assert.True(t, small.HasStorage)
	assert.False(t, large.HasStorage)
	assert.Equal(t, []byte{0, 0, 7, 8}, b.BufferContents(small)[:4])

	b.Release(large, false)
	b.Release(small, false)
	assert.Zero(t, b.LiveObjects())
	assert.Zero(t, small.Native)
	assert.Empty(t, b.BufferContents(small))
}

func TestSkippedInitStepsCreateNothing(t *testing.T) {
	b := New(DefaultDeviceCaps())
	tex := metadata.NewTexture(b.DeviceCaps(), gputypes.TextureDimension2D, 2, 2, 1, 1)
	b.RunInitSteps([]metadata.InitStep{&metadata.CreateTextureStep{Texture: tex}}, true)

	assert.Zero(t, tex.Native)
	assert.Zero(t, b.LiveObjects())
	events := b.Events()
	require.Len(t, events, 1)
	assert.True(t, events[0].Skipped)
	assert.Equal(t, "init_step *metadata.CreateTextureStep", events[0].String())
}

func TestUniformLookupsAreCached(t *testing.T) {
	b := New(DefaultDeviceCaps())
	mvp := metadata.NewUniformLocation()
	program := metadata.NewProgram(nil, []metadata.UniformLocQuery{{Dest: mvp, Name: "u_mvp"}}, nil, nil, metadata.ProgramFlags{})
	b.RunInitSteps([]metadata.InitStep{&metadata.CreateProgramStep{Program: program}}, false)
	assert.Equal(t, int32(0), mvp.Loc)

	step := metadata.NewStep(metadata.STEP_TYPE_RENDER, 1, "uniforms", &metadata.RenderPassData{})
	step.Commands = []metadata.Command{
		&metadata.BindProgramCommand{Program: program},
		&metadata.UniformMatrixCommand{Loc: mvp},
		&metadata.Uniform4FCommand{Name: "u_tint"},
		&metadata.Uniform4FCommand{Name: "u_tint"},
		&metadata.Uniform4FCommand{Name: "u_mvp"},
	}
	b.RunSteps([]*metadata.Step{step}, 0, false)
	b.RunSteps([]*metadata.Step{step}, 1, false)

	// u_tint once, u_mvp once; the query location never goes through a lookup.
	assert.Equal(t, 2, b.UniformLookups())
}

func TestReadbackUsesClearColour(t *testing.T) {
	b := New(DefaultDeviceCaps())
	fb := metadata.NewFramebuffer(b.DeviceCaps(), 2, 2, false)
	b.RunInitSteps([]metadata.InitStep{&metadata.CreateFramebufferStep{Framebuffer: fb}}, false)
	require.NotZero(t, fb.Native)

	clear := metadata.NewStep(metadata.STEP_TYPE_RENDER, 1, "clear", &metadata.RenderPassData{Framebuffer: fb})
	clear.Commands = []metadata.Command{&metadata.ClearCommand{ClearMask: metadata.ASPECT_COLOR, ClearColor: 0x80402010}}
	pixels := make([]byte, 2*2*4)
	read := metadata.NewStep(metadata.STEP_TYPE_READBACK, 2, "read", &metadata.ReadbackData{
		Src:         fb,
		SrcRect:     metadata.Rect2D{W: 2, H: 2},
		AspectMask:  metadata.ASPECT_COLOR,
		DstFormat:   gputypes.TextureFormatRGBA8Unorm,
		Pixels:      pixels,
		PixelStride: 2,
	})
	b.RunSteps([]*metadata.Step{clear, read}, 0, false)

	for i := 0; i < len(pixels); i += 4 {
		assert.Equal(t, []byte{0x10, 0x20, 0x40, 0x80}, pixels[i:i+4])
	}

	b.Release(fb, false)
	assert.False(t, b.IsLive(fb))
	assert.Zero(t, fb.ColorTexture.Native)
}

func TestRecordingToggle(t *testing.T) {
	b := New(DefaultDeviceCaps())
	b.SetRecording(false)
	b.RunSteps(nil, 0, false)
	assert.Empty(t, b.Events())

	b.SetRecording(true)
	b.RunSteps(nil, 3, true)
	events := b.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "run frame=3", events[0].String())

	b.ResetEvents()
	assert.Empty(t, b.Events())
}
