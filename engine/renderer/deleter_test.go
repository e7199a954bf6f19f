package renderer

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
	"github.com/spaghettifunk/rendermanager/engine/renderer/null"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleterTake(t *testing.T) {
	var d Deleter
	assert.True(t, d.IsEmpty())

	other := Deleter{
		Textures: []*metadata.Texture{{}},
		Buffers:  []*metadata.Buffer{{}, {}},
	}
	d.Take(&other)
	assert.True(t, other.IsEmpty())
	assert.Equal(t, 3, d.Len())
	assert.Len(t, d.Resources(), 3)
}

func TestDeleteWaitsForReferencingTask(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{InflightFrames: 2, ValidateDeletes: true})
	var released []metadata.Resource
	h.rm.SetOnPerform(func(res metadata.Resource) {
		released = append(released, res)
	})

	tex := h.rm.CreateTexture(gputypes.TextureDimension2D, 4, 4, 1, 1)
	h.rm.TextureImage(tex, 0, 4, 4, 1, gputypes.TextureFormatRGBA8Unorm, make([]byte, 64), metadata.ALLOC_TYPE_NEW, false)
	h.frame(func(rm *RenderManager) {
		bindBackbuffer(rm, "Uses texture")
		rm.BindTexture(0, tex)
		// Deleting while the recorded frame still points at it is fine.
		rm.DeleteTexture(tex)
	})
	assert.Equal(t, 0, h.rm.PendingDeletes())
	assert.Empty(t, released)

	h.start()
	require.NoError(t, h.rm.FlushSync())

	require.Len(t, released, 1)
	assert.Same(t, tex, released[0])
	assert.False(t, h.backend.IsLive(tex))

	var kinds []null.EventKind
	for _, e := range h.backend.Events() {
		if e.Kind == null.EVENT_STEP || e.Kind == null.EVENT_RELEASE {
			kinds = append(kinds, e.Kind)
		}
	}
	assert.Equal(t, []null.EventKind{null.EVENT_STEP, null.EVENT_RELEASE}, kinds)
	assert.Contains(t, h.rm.Diagnostics(), "resources_released: 1\n")
}

func TestDeleteValidationCatchesLaterUse(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{ValidateDeletes: true})
	tex := h.rm.CreateTexture(gputypes.TextureDimension2D, 4, 4, 1, 1)
	buf := h.rm.CreateBuffer(gputypes.BufferUsageUniform, 64)

	h.frame(func(rm *RenderManager) {
		bindBackbuffer(rm, "Later use")
		rm.BindTexture(0, tex)
	})
	require.Len(t, h.rm.pending, 1)

	assertViolation(t, func() { h.rm.assertUnreferenced(tex) })
	assert.NotPanics(t, func() { h.rm.assertUnreferenced(&metadata.Texture{}) })
	// Referenced by a create step of the queued frame.
	assertViolation(t, func() { h.rm.assertUnreferenced(buf) })
}

func TestProgramDeleteCallback(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{})
	h.start()

	vs := h.rm.CreateShader(gputypes.ShaderStageVertex, "void main() {}", "vs")
	program := h.rm.CreateProgram([]*metadata.Shader{vs}, nil, nil, nil, "location data", metadata.ProgramFlags{})
	var params []any
	program.SetDeleteCallback(func(param any) {
		params = append(params, param)
	}, 42)
	require.NoError(t, h.rm.FlushSync())

	h.rm.DeleteShader(vs)
	h.rm.DeleteProgram(program)
	assert.Empty(t, params)
	require.NoError(t, h.rm.FlushSync())

	assert.Equal(t, []any{42}, params)
	assert.Nil(t, program.LocData)
	assert.Zero(t, h.backend.LiveObjects())
}

func TestSkipGLCallsStillReleases(t *testing.T) {
	h := newHarness(t, RenderManagerConfig{})
	h.start()

	buf := h.rm.CreateBuffer(gputypes.BufferUsageVertex, 16)
	require.NoError(t, h.rm.FlushSync())
	require.True(t, h.backend.IsLive(buf))

	h.rm.SetSkipGLCalls()
	h.rm.DeleteBuffer(buf)
	require.NoError(t, h.rm.FlushSync())

	events := h.backend.Events()
	last := events[len(events)-1]
	assert.Equal(t, null.EVENT_RELEASE, last.Kind)
	assert.True(t, last.Skipped)
}
