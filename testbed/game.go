package testbed

import (
	"encoding/binary"
	gomath "math"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

const vertexShader = `#version 330 core
layout(location = 0) in vec3 position;
layout(location = 1) in vec2 texcoord;
uniform mat4 u_mvp;
out vec2 v_texcoord;
void main() {
	v_texcoord = texcoord;
	gl_Position = u_mvp * vec4(position, 1.0);
}
`

const fragmentShader = `#version 330 core
in vec2 v_texcoord;
uniform sampler2D u_tex;
uniform vec4 u_tint;
out vec4 frag_color;
void main() {
	frag_color = texture(u_tex, v_texcoord) * u_tint;
}
`

// Position (3 floats) followed by texcoord (2 floats).
const vertexStride = 5 * 4

type TestGame struct {
	*engine.Game
}

type gameState struct {
	elapsed float64
	width   int
	height  int

	program     *metadata.Program
	shaders     []*metadata.Shader
	inputLayout *metadata.InputLayout
	textures    []*metadata.Texture
	offscreen   *metadata.Framebuffer
	pushBuffers [renderer.MAX_INFLIGHT_FRAMES]*renderer.PushBuffer

	mvpLoc  *metadata.UniformLocation
	texLoc  *metadata.UniformLocation
	drawIdx int

	// Written when the game shuts down, empty to skip.
	screenshotPath string
}

func NewTestGame(configPath string, headless bool, maxFrames uint64) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: &engine.ApplicationConfig{
				StartPosX:  100,
				StartPosY:  100,
				Name:       "Render Manager Testbed",
				ConfigPath: configPath,
				Headless:   headless,
				MaxFrames:  maxFrames,
			},
			State: &gameState{
				screenshotPath: os.Getenv("TESTBED_SCREENSHOT"),
			},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize(rm *renderer.RenderManager) error {
	core.LogDebug("TestGame Initialize fn....")
	state := g.State.(*gameState)

	vs := rm.CreateShader(gputypes.ShaderStageVertex, vertexShader, "testbed.vs")
	fs := rm.CreateShader(gputypes.ShaderStageFragment, fragmentShader, "testbed.fs")
	state.shaders = []*metadata.Shader{vs, fs}

	state.mvpLoc = metadata.NewUniformLocation()
	state.texLoc = metadata.NewUniformLocation()
	state.program = rm.CreateProgram(
		state.shaders,
		[]metadata.Semantic{{Location: 0, Attrib: "position"}, {Location: 1, Attrib: "texcoord"}},
		[]metadata.UniformLocQuery{
			{Dest: state.mvpLoc, Name: "u_mvp", Required: true},
			{Dest: state.texLoc, Name: "u_tex", Required: true},
		},
		[]metadata.Initializer{{Uniform: state.texLoc, Value: 0}},
		nil,
		metadata.ProgramFlags{},
	)
	state.program.SetDeleteCallback(func(param any) {
		core.LogDebug("testbed program released (%v)", param)
	}, "testbed")

	state.inputLayout = rm.CreateInputLayout([]metadata.InputLayoutEntry{
		{Location: 0, Format: gputypes.VertexFormatFloat32x3, Stride: vertexStride, Offset: 0},
		{Location: 1, Format: gputypes.VertexFormatFloat32x2, Stride: vertexStride, Offset: 12},
	})

	// A few checkerboards in different colours.
	for i, c := range []uint32{0xFF0000FF, 0xFF00FF00, 0xFFFF0000} {
		tex := rm.CreateTexture(gputypes.TextureDimension2D, 64, 64, 1, 1)
		rm.TextureImage(tex, 0, 64, 64, 1, gputypes.TextureFormatRGBA8Unorm, checkerboard(64, c), metadata.ALLOC_TYPE_NEW, i == 0)
		rm.FinalizeTexture(tex, 1, false)
		state.textures = append(state.textures, tex)
	}

	state.offscreen = rm.CreateFramebuffer(256, 256, true)

	for i := range state.pushBuffers {
		state.pushBuffers[i] = rm.CreatePushBuffer(i, gputypes.BufferUsageVertex, 64*1024)
	}
	return nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime
	return nil
}

func (g *TestGame) Render(rm *renderer.RenderManager, deltaTime float64) error {
	state := g.State.(*gameState)

	pb := state.pushBuffers[rm.CurFrame()]
	rm.BeginPushBuffer(pb)
	offset, vbuf := pb.Push(quadVertices(float32(state.elapsed)), 4)
	rm.EndPushBuffer(pb)

	// Offscreen pass.
	rm.BindFramebufferAsRenderTarget(state.offscreen, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_CLEAR, 0xFF202020, 1.0, 0, "Testbed.Offscreen")
	rm.SetViewport(metadata.Viewport{W: 256, H: 256, MaxZ: 1})
	rm.SetScissor(metadata.Rect2D{W: 256, H: 256})
	rm.SetDepth(true, true, gputypes.CompareFunctionLess)
	rm.SetStencilDisabled()
	rm.SetRaster(false, gputypes.FrontFaceCCW, gputypes.CullModeNone, false, false)
	rm.SetNoBlendAndMask(gputypes.ColorWriteMaskAll)
	rm.BindProgram(state.program)
	rm.SetUniformM4x4(state.mvpLoc, rotationZ(float32(state.elapsed)))
	rm.SetUniformFByName("u_tint", 1, 1, 1, 1)
	state.drawIdx = (state.drawIdx + 1) % len(state.textures)
	rm.BindTexture(0, state.textures[state.drawIdx])
	rm.SetTextureSampler(0, gputypes.AddressModeClampToEdge, gputypes.AddressModeClampToEdge, gputypes.FilterModeLinear, gputypes.FilterModeLinear, 1)
	rm.Draw(state.inputLayout, vbuf, offset, gputypes.PrimitiveTopologyTriangleList, 0, 6)

	// Composite to the back buffer.
	rm.BindFramebufferAsRenderTarget(nil, metadata.RENDER_PASS_ACTION_CLEAR, metadata.RENDER_PASS_ACTION_DONT_CARE, metadata.RENDER_PASS_ACTION_DONT_CARE, 0xFF000000, 1.0, 0, "Testbed.Backbuffer")
	rm.SetViewport(metadata.Viewport{W: float32(state.width), H: float32(state.height), MaxZ: 1})
	rm.SetDepth(false, false, gputypes.CompareFunctionAlways)
	rm.SetBlendAndMask(gputypes.ColorWriteMaskAll, true,
		gputypes.BlendFactorSrcAlpha, gputypes.BlendFactorOneMinusSrcAlpha,
		gputypes.BlendFactorOne, gputypes.BlendFactorZero,
		gputypes.BlendOperationAdd, gputypes.BlendOperationAdd)
	rm.BindProgram(state.program)
	rm.SetUniformM4x4(state.mvpLoc, rotationZ(0))
	rm.BindFramebufferAsTexture(state.offscreen, 0, metadata.ASPECT_COLOR)
	rm.Draw(state.inputLayout, vbuf, offset, gputypes.PrimitiveTopologyTriangleList, 0, 6)
	rm.BindTexture(0, nil)
	return nil
}

func (g *TestGame) OnResize(rm *renderer.RenderManager, width int, height int) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown(rm *renderer.RenderManager) error {
	state := g.State.(*gameState)

	if state.screenshotPath != "" && state.width > 0 && state.height > 0 {
		f, err := os.Create(state.screenshotPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := rm.WriteScreenshotBMP(f, state.width, state.height); err != nil {
			return err
		}
		core.LogInfo("screenshot written to %s", state.screenshotPath)
	}

	for _, pb := range state.pushBuffers {
		rm.DeletePushBuffer(pb)
	}
	for _, tex := range state.textures {
		rm.DeleteTexture(tex)
	}
	for _, s := range state.shaders {
		rm.DeleteShader(s)
	}
	rm.DeleteProgram(state.program)
	rm.DeleteInputLayout(state.inputLayout)
	rm.DeleteFramebuffer(state.offscreen)

	// Hand the deletes to the render thread before it is stopped.
	return rm.FlushSync()
}

func checkerboard(size int, colour uint32) []byte {
	pixels := make([]byte, size*size*4)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := colour
			if (x/8+y/8)%2 == 0 {
				c = 0xFFFFFFFF
			}
			binary.LittleEndian.PutUint32(pixels[(y*size+x)*4:], c)
		}
	}
	return pixels
}

func quadVertices(t float32) []byte {
	s := 0.5 + 0.25*float32(gomath.Sin(float64(t)))
	verts := []float32{
		-s, -s, 0, 0, 0,
		s, -s, 0, 1, 0,
		s, s, 0, 1, 1,
		-s, -s, 0, 0, 0,
		s, s, 0, 1, 1,
		-s, s, 0, 0, 1,
	}
	out := make([]byte, len(verts)*4)
	for i, v := range verts {
		binary.LittleEndian.PutUint32(out[i*4:], gomath.Float32bits(v))
	}
	return out
}

func rotationZ(angle float32) [16]float32 {
	c := float32(gomath.Cos(float64(angle)))
	s := float32(gomath.Sin(float64(angle)))
	return [16]float32{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}
