package null

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/google/uuid"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

func DefaultDeviceCaps() metadata.DeviceCaps {
	return metadata.DeviceCaps{
		VendorString:               "rendermanager",
		DeviceString:               "null device",
		MaxTextureSize:             8192,
		MaxBufferSize:              64 << 20,
		AnisoSupported:             true,
		DualSourceBlend:            true,
		ClipDistanceSupported:      true,
		DepthClampSupported:        true,
		LogicOpSupported:           true,
		TextureNPOTFullySupported:  true,
		PreferredDepthBufferFormat: gputypes.TextureFormatDepth24PlusStencil8,
	}
}

type textureLevel struct {
	width, height int
	format        gputypes.TextureFormat
	pixels        []byte
}

/**
 * @brief A RendererBackend that executes steps without a device. It assigns
 * native names, keeps host copies of buffer and texture contents, and logs
 * everything it runs. Readbacks of render targets return the target's last
 * clear colour.
 */
type Backend struct {
	caps metadata.DeviceCaps

	errorCallback metadata.ErrorCallback
	errorUserdata any

	// Guards everything readable from other goroutines.
	mu       sync.Mutex
	events   []Event
	live     map[uuid.UUID]metadata.ResourceType
	buffers  map[*metadata.Buffer][]byte
	lookups  int
	width    int
	height   int
	created  bool
	recordOn bool

	oom      atomic.Bool
	nextName uint32

	// Render thread only.
	textures   map[*metadata.Texture][]*textureLevel
	clearColor map[*metadata.Framebuffer]uint32
	uniforms   map[*metadata.Program]map[string]int32
	target     *metadata.Framebuffer
	program    *metadata.Program
	bound      [metadata.MaxTextureSlots]*metadata.Texture
}

func New(caps metadata.DeviceCaps) *Backend {
	return &Backend{
		caps:       caps,
		live:       make(map[uuid.UUID]metadata.ResourceType),
		buffers:    make(map[*metadata.Buffer][]byte),
		textures:   make(map[*metadata.Texture][]*textureLevel),
		clearColor: make(map[*metadata.Framebuffer]uint32),
		uniforms:   make(map[*metadata.Program]map[string]int32),
		recordOn:   true,
	}
}

func (b *Backend) CreateDeviceObjects() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.created {
		return fmt.Errorf("device objects already created")
	}
	b.created = true
	core.LogDebug("null backend: device objects created")
	return nil
}

func (b *Backend) DestroyDeviceObjects() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.live) > 0 {
		core.LogWarn("null backend: %d objects still alive at device teardown", len(b.live))
	}
	b.created = false
}

func (b *Backend) SetDeviceCaps(caps metadata.DeviceCaps) {
	b.caps = caps
}

func (b *Backend) DeviceCaps() metadata.DeviceCaps {
	return b.caps
}

func (b *Backend) SetErrorCallback(cb metadata.ErrorCallback, userdata any) {
	b.errorCallback = cb
	b.errorUserdata = userdata
}

func (b *Backend) reportError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	core.LogError("null backend: %s", msg)
	if b.errorCallback != nil {
		b.errorCallback(msg, b.errorUserdata)
	}
}

func (b *Backend) Resize(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.width = width
	b.height = height
}

func (b *Backend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *Backend) SawOutOfMemory() bool {
	return b.oom.Load()
}

func (b *Backend) GetString(name metadata.DeviceString) string {
	switch name {
	case metadata.DEVICE_STRING_VENDOR:
		return b.caps.VendorString
	case metadata.DEVICE_STRING_RENDERER:
		return b.caps.DeviceString
	case metadata.DEVICE_STRING_VERSION:
		return "1.0"
	case metadata.DEVICE_STRING_SHADING_LANGUAGE_VERSION:
		return "none"
	}
	return ""
}

// SetRecording turns the execution log on or off.
func (b *Backend) SetRecording(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recordOn = on
}

func (b *Backend) record(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.recordOn {
		b.events = append(b.events, e)
	}
}

// Events returns a copy of the execution log.
func (b *Backend) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

func (b *Backend) ResetEvents() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

func (b *Backend) IsLive(res metadata.Resource) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.live[res.ResourceID()]
	return ok
}

func (b *Backend) LiveObjects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.live)
}

// BufferContents returns a copy of what was uploaded to buf.
func (b *Backend) BufferContents(buf *metadata.Buffer) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buffers[buf]...)
}

// UniformLookups counts the uniform names resolved against a program.
func (b *Backend) UniformLookups() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lookups
}

func (b *Backend) genName() uint32 {
	b.nextName++
	return b.nextName
}

func (b *Backend) addLive(res metadata.Resource) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live[res.ResourceID()] = res.ResourceType()
}

func (b *Backend) Release(res metadata.Resource, skipGLCalls bool) {
	b.record(Event{Kind: EVENT_RELEASE, Resource: res, Skipped: skipGLCalls})

	b.mu.Lock()
	delete(b.live, res.ResourceID())
	if buf, ok := res.(*metadata.Buffer); ok {
		delete(b.buffers, buf)
	}
	b.mu.Unlock()

	switch r := res.(type) {
	case *metadata.Texture:
		delete(b.textures, r)
		r.Native = 0
	case *metadata.Buffer:
		r.Native = 0
		r.HasStorage = false
	case *metadata.Shader:
		r.Native = 0
	case *metadata.Program:
		delete(b.uniforms, r)
		if b.program == r {
			b.program = nil
		}
		r.Native = 0
	case *metadata.Framebuffer:
		delete(b.clearColor, r)
		delete(b.textures, &r.ColorTexture)
		delete(b.textures, &r.ZStencilTexture)
		r.Native = 0
		r.ColorTexture.Native = 0
		r.ZStencilTexture.Native = 0
	}
}

func (b *Backend) RunInitSteps(steps []metadata.InitStep, skipGLCalls bool) {
	for _, is := range steps {
		b.record(Event{Kind: EVENT_INIT_STEP, InitStep: is, Skipped: skipGLCalls})
		if skipGLCalls {
			continue
		}
		b.runInitStep(is)
	}
}

func (b *Backend) runInitStep(is metadata.InitStep) {
	switch s := is.(type) {
	case *metadata.CreateTextureStep:
		s.Texture.Native = b.genName()
		b.textures[s.Texture] = make([]*textureLevel, max(int(s.Texture.NumMips), 1))
		b.addLive(s.Texture)
	case *metadata.CreateBufferStep:
		s.Buffer.Native = b.genName()
		b.addLive(s.Buffer)
		if b.caps.MaxBufferSize > 0 && s.Size > b.caps.MaxBufferSize {
			b.oom.Store(true)
			b.reportError("out of memory allocating a %d byte buffer", s.Size)
			return
		}
		s.Buffer.HasStorage = true
		b.mu.Lock()
		b.buffers[s.Buffer] = make([]byte, s.Size)
		b.mu.Unlock()
	case *metadata.CreateShaderStep:
		s.Shader.Native = b.genName()
		b.addLive(s.Shader)
		if strings.TrimSpace(s.Code) == "" {
			s.Shader.MarkFailed("empty shader source")
			b.reportError("failed to compile shader %q: empty shader source", s.Shader.Desc)
			return
		}
		s.Shader.MarkCompiled()
	case *metadata.CreateProgramStep:
		b.linkProgram(s)
	case *metadata.CreateFramebufferStep:
		fb := s.Framebuffer
		fb.Native = b.genName()
		fb.ColorTexture.Native = b.genName()
		if fb.ZStencil {
			fb.ZStencilTexture.Native = b.genName()
		}
		b.addLive(fb)
	case *metadata.CreateInputLayoutStep:
		b.addLive(s.InputLayout)
	case *metadata.TextureImageStep:
		b.storeImage(s.Texture, s.Level, s.Width, s.Height, s.Format, s.Data)
		s.Texture.Sampler.Valid = false
	case *metadata.TextureFinalizeStep:
		levels := b.textures[s.Texture]
		if s.GenMips && len(levels) > 0 && levels[0] != nil {
			for i := max(s.LoadedLevels, 1); i < len(levels); i++ {
				if levels[i] == nil {
					levels[i] = &textureLevel{format: levels[0].format}
				}
			}
		}
	case *metadata.BufferSubdataStep:
		b.mu.Lock()
		if data, ok := b.buffers[s.Buffer]; ok {
			copy(data[s.Offset:s.Offset+s.Size], s.Data[:s.Size])
		}
		b.mu.Unlock()
	}
}

func (b *Backend) linkProgram(s *metadata.CreateProgramStep) {
	p := s.Program
	p.Native = b.genName()
	b.addLive(p)
	for _, sh := range s.Shaders {
		if !sh.Valid() {
			b.reportError("failed to link program: shader %q did not compile: %s", sh.Desc, sh.Error())
			return
		}
	}
	locs := make(map[string]int32, len(p.Queries))
	b.uniforms[p] = locs
	for i, q := range p.Queries {
		locs[q.Name] = int32(i)
		if q.Dest != nil {
			q.Dest.Loc = int32(i)
		}
	}
	if len(p.Initializers) > 0 {
		core.LogDebug("null backend: applied %d uniform initializers", len(p.Initializers))
	}
}

func (b *Backend) lookupUniform(p *metadata.Program) func(name string) int32 {
	return func(name string) int32 {
		b.mu.Lock()
		b.lookups++
		b.mu.Unlock()
		locs, ok := b.uniforms[p]
		if !ok {
			return -1
		}
		if loc, ok := locs[name]; ok {
			return loc
		}
		loc := int32(len(locs))
		locs[name] = loc
		return loc
	}
}

func (b *Backend) resolveUniform(loc *metadata.UniformLocation, name string) int32 {
	if loc != nil {
		return loc.Loc
	}
	if b.program == nil || name == "" {
		return -1
	}
	return b.program.UniformLoc(name, b.lookupUniform(b.program))
}

func (b *Backend) storeImage(tex *metadata.Texture, level, width, height int, format gputypes.TextureFormat, data []byte) {
	levels, ok := b.textures[tex]
	if !ok || level < 0 || level >= len(levels) {
		b.reportError("texture upload to missing level %d", level)
		return
	}
	size := width * height * metadata.BytesPerPixel(format)
	pixels := make([]byte, size)
	copy(pixels, data)
	levels[level] = &textureLevel{width: width, height: height, format: format, pixels: pixels}
}

func (b *Backend) RunSteps(steps []*metadata.Step, frame int, skipGLCalls bool) {
	b.record(Event{Kind: EVENT_RUN, Frame: frame, Skipped: skipGLCalls})
	for _, step := range steps {
		b.record(Event{Kind: EVENT_STEP, Frame: frame, Step: step, Skipped: skipGLCalls})
		if skipGLCalls {
			continue
		}
		switch d := step.Data.(type) {
		case *metadata.RenderPassData:
			if step.Type == metadata.STEP_TYPE_RENDER_SKIP {
				continue
			}
			b.target = d.Framebuffer
			b.program = nil
			for _, cmd := range step.Commands {
				b.record(Event{Kind: EVENT_COMMAND, Frame: frame, Step: step, Command: cmd})
				b.runCommand(cmd)
			}
		case *metadata.CopyData:
			if d.AspectMask&metadata.ASPECT_COLOR != 0 {
				b.clearColor[d.Dst] = b.clearColor[d.Src]
			}
		case *metadata.BlitData:
			if d.AspectMask&metadata.ASPECT_COLOR != 0 {
				b.clearColor[d.Dst] = b.clearColor[d.Src]
			}
		case *metadata.ReadbackData:
			b.readback(d)
		case *metadata.ReadbackImageData:
			b.readbackImage(d)
		}
	}
	b.program = nil
}

func (b *Backend) runCommand(c metadata.Command) {
	switch cmd := c.(type) {
	case *metadata.ClearCommand:
		if cmd.ClearMask&metadata.ASPECT_COLOR != 0 {
			b.clearColor[b.target] = cmd.ClearColor
		}
	case *metadata.BindProgramCommand:
		b.program = cmd.Program
	case *metadata.BindTextureCommand:
		b.bound[cmd.Slot] = cmd.Texture
	case *metadata.BindFBTextureCommand:
		if cmd.Aspect == metadata.ASPECT_COLOR {
			b.bound[cmd.Slot] = &cmd.Framebuffer.ColorTexture
		} else {
			b.bound[cmd.Slot] = &cmd.Framebuffer.ZStencilTexture
		}
	case *metadata.TextureSamplerCommand:
		if tex := b.bound[cmd.Slot]; tex != nil {
			tex.Sampler.Valid = true
			tex.Sampler.WrapS = cmd.WrapS
			tex.Sampler.WrapT = cmd.WrapT
			tex.Sampler.MagFilter = cmd.MagFilter
			tex.Sampler.MinFilter = cmd.MinFilter
			tex.Sampler.Anisotropy = cmd.Anisotropy
		}
	case *metadata.TextureLodCommand:
		if tex := b.bound[cmd.Slot]; tex != nil {
			tex.Sampler.MinLod = cmd.MinLod
			tex.Sampler.MaxLod = cmd.MaxLod
			tex.Sampler.LodBias = cmd.LodBias
		}
	case *metadata.TextureSubImageCommand:
		// Uploading binds the texture to the slot, like the device does.
		b.bound[cmd.Slot] = cmd.Texture
		b.writeSubImage(cmd)
	case *metadata.Uniform4FCommand:
		b.resolveUniform(cmd.Loc, cmd.Name)
	case *metadata.Uniform4ICommand:
		b.resolveUniform(cmd.Loc, cmd.Name)
	case *metadata.Uniform4UICommand:
		b.resolveUniform(cmd.Loc, cmd.Name)
	case *metadata.UniformMatrixCommand:
		b.resolveUniform(cmd.Loc, cmd.Name)
	case *metadata.UniformStereoMatrixCommand:
		b.resolveUniform(cmd.Loc, cmd.Name)
	case *metadata.DrawCommand:
		if cmd.Buffer != nil && !cmd.Buffer.HasStorage {
			b.reportError("draw from a buffer without storage")
		}
	}
}

func (b *Backend) writeSubImage(cmd *metadata.TextureSubImageCommand) {
	levels := b.textures[cmd.Texture]
	if cmd.Level < 0 || cmd.Level >= len(levels) || levels[cmd.Level] == nil {
		b.reportError("texture sub-image upload to an unallocated level %d", cmd.Level)
		return
	}
	lvl := levels[cmd.Level]
	bpp := metadata.BytesPerPixel(lvl.format)
	for y := 0; y < cmd.Height && cmd.Y+y < lvl.height; y++ {
		dst := ((cmd.Y+y)*lvl.width + cmd.X) * bpp
		src := y * cmd.Width * bpp
		n := min(cmd.Width, lvl.width-cmd.X) * bpp
		if n <= 0 || src+n > len(cmd.Data) {
			break
		}
		copy(lvl.pixels[dst:dst+n], cmd.Data[src:src+n])
	}
}

func (b *Backend) readback(d *metadata.ReadbackData) {
	bpp := metadata.BytesPerPixel(d.DstFormat)
	var texel []byte
	if d.AspectMask&metadata.ASPECT_COLOR != 0 {
		c := b.clearColor[d.Src]
		texel = []byte{byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24)}
	} else {
		texel = make([]byte, 4)
	}
	for y := 0; y < d.SrcRect.H; y++ {
		row := y * d.PixelStride * bpp
		for x := 0; x < d.SrcRect.W; x++ {
			copy(d.Pixels[row+x*bpp:row+(x+1)*bpp], texel)
		}
	}
}

func (b *Backend) readbackImage(d *metadata.ReadbackImageData) {
	levels := b.textures[d.Texture]
	if d.MipLevel < 0 || d.MipLevel >= len(levels) || levels[d.MipLevel] == nil {
		b.reportError("readback of an unallocated texture level %d", d.MipLevel)
		return
	}
	lvl := levels[d.MipLevel]
	bpp := metadata.BytesPerPixel(d.DstFormat)
	for y := 0; y < d.SrcRect.H && d.SrcRect.Y+y < lvl.height; y++ {
		src := ((d.SrcRect.Y+y)*lvl.width + d.SrcRect.X) * bpp
		dst := y * d.PixelStride * bpp
		n := min(d.SrcRect.W, lvl.width-d.SrcRect.X) * bpp
		if n <= 0 {
			break
		}
		copy(d.Pixels[dst:dst+n], lvl.pixels[src:src+n])
	}
}
