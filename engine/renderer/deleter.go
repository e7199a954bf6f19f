package renderer

import (
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

// Deleter batches handles whose destruction must wait until every task that
// may reference them has run on the render thread.
type Deleter struct {
	PushBuffers  []*PushBuffer
	Shaders      []*metadata.Shader
	Programs     []*metadata.Program
	Buffers      []*metadata.Buffer
	Textures     []*metadata.Texture
	InputLayouts []*metadata.InputLayout
	Framebuffers []*metadata.Framebuffer
}

func (d *Deleter) IsEmpty() bool {
	return len(d.PushBuffers) == 0 &&
		len(d.Shaders) == 0 &&
		len(d.Programs) == 0 &&
		len(d.Buffers) == 0 &&
		len(d.Textures) == 0 &&
		len(d.InputLayouts) == 0 &&
		len(d.Framebuffers) == 0
}

func (d *Deleter) Len() int {
	return len(d.PushBuffers) + len(d.Shaders) + len(d.Programs) + len(d.Buffers) +
		len(d.Textures) + len(d.InputLayouts) + len(d.Framebuffers)
}

// Take moves everything queued in other into d, leaving other empty. A nil
// other is a no-op.
func (d *Deleter) Take(other *Deleter) {
	if other == nil {
		return
	}
	d.PushBuffers = append(d.PushBuffers, other.PushBuffers...)
	d.Shaders = append(d.Shaders, other.Shaders...)
	d.Programs = append(d.Programs, other.Programs...)
	d.Buffers = append(d.Buffers, other.Buffers...)
	d.Textures = append(d.Textures, other.Textures...)
	d.InputLayouts = append(d.InputLayouts, other.InputLayouts...)
	d.Framebuffers = append(d.Framebuffers, other.Framebuffers...)
	*other = Deleter{}
}

// Resources flattens the batch in destruction order. Push buffers expand to
// the device buffers they own.
func (d *Deleter) Resources() []metadata.Resource {
	out := make([]metadata.Resource, 0, d.Len())
	for _, pb := range d.PushBuffers {
		for _, b := range pb.Buffers() {
			out = append(out, b)
		}
	}
	for _, s := range d.Shaders {
		out = append(out, s)
	}
	for _, p := range d.Programs {
		out = append(out, p)
	}
	for _, b := range d.Buffers {
		out = append(out, b)
	}
	for _, t := range d.Textures {
		out = append(out, t)
	}
	for _, il := range d.InputLayouts {
		out = append(out, il)
	}
	for _, fb := range d.Framebuffers {
		out = append(out, fb)
	}
	return out
}

// Perform destroys every queued handle through the backend and empties the
// batch. Render thread only.
func (d *Deleter) Perform(backend RendererBackend, skipGLCalls bool, onRelease func(metadata.Resource)) {
	for _, res := range d.Resources() {
		if onRelease != nil {
			onRelease(res)
		}
		if p, ok := res.(*metadata.Program); ok {
			p.Release()
		}
		backend.Release(res, skipGLCalls)
	}
	*d = Deleter{}
}
