package renderer

import (
	"github.com/gogpu/gputypes"
	"github.com/spaghettifunk/rendermanager/engine/core"
	"github.com/spaghettifunk/rendermanager/engine/renderer/metadata"
)

type pushChunk struct {
	buffer *metadata.Buffer
	local  []byte
	// Bytes written since Begin.
	used int
	// Bytes already handed to the render thread.
	flushed int
}

/**
 * @brief A transient upload buffer for streaming vertex, index or uniform data.
 * Writes land in host memory and reach the device as BufferSubdata init steps
 * when the buffer is ended or its frame finishes. A push buffer belongs to one
 * frame slot and is only reused once that slot retired.
 */
type PushBuffer struct {
	rm        *RenderManager
	usage     gputypes.BufferUsage
	chunkSize int
	chunks    []*pushChunk
	cur       int
	writing   bool
}

func newPushBuffer(rm *RenderManager, usage gputypes.BufferUsage, size int) *PushBuffer {
	core.Assert(size > 0, "push buffer size must be positive, got %d", size)
	pb := &PushBuffer{
		rm:        rm,
		usage:     usage,
		chunkSize: size,
	}
	pb.addChunk(size)
	return pb
}

func (pb *PushBuffer) addChunk(size int) {
	pb.chunks = append(pb.chunks, &pushChunk{
		buffer: pb.rm.CreateBuffer(pb.usage, size),
		local:  make([]byte, size),
	})
}

// Begin starts a new round of writes from the start of the first chunk.
func (pb *PushBuffer) Begin() {
	core.Assert(!pb.writing, "push buffer already begun")
	for _, c := range pb.chunks {
		c.used = 0
		c.flushed = 0
	}
	pb.cur = 0
	pb.writing = true
}

// End flushes whatever was written and closes the round.
func (pb *PushBuffer) End() {
	core.Assert(pb.writing, "push buffer ended without Begin")
	pb.Flush()
	pb.writing = false
}

func (pb *PushBuffer) IsWriting() bool {
	return pb.writing
}

// Allocate reserves size bytes aligned to align and returns the offset inside
// the returned device buffer together with the host memory to fill. The slice
// must be written before the next flush.
func (pb *PushBuffer) Allocate(size, align int) (int, *metadata.Buffer, []byte) {
	core.Assert(pb.writing, "push buffer allocation outside Begin/End")
	core.Assert(size > 0, "push buffer allocation of %d bytes", size)
	if align < 1 {
		align = 1
	}
	c := pb.chunks[pb.cur]
	offset := alignUp(c.used, align)
	if offset+size > len(c.local) {
		pb.cur++
		if pb.cur == len(pb.chunks) {
			chunkSize := pb.chunkSize
			if size > chunkSize {
				chunkSize = size
			}
			pb.addChunk(chunkSize)
		}
		c = pb.chunks[pb.cur]
		offset = 0
	}
	c.used = offset + size
	return offset, c.buffer, c.local[offset : offset+size]
}

// Push copies data into the buffer and returns where it was placed.
func (pb *PushBuffer) Push(data []byte, align int) (int, *metadata.Buffer) {
	offset, buf, dst := pb.Allocate(len(data), align)
	copy(dst, data)
	return offset, buf
}

// Flush queues upload steps for every range written since the last flush.
func (pb *PushBuffer) Flush() {
	for i := 0; i <= pb.cur && i < len(pb.chunks); i++ {
		c := pb.chunks[i]
		if c.used <= c.flushed {
			continue
		}
		size := c.used - c.flushed
		data := make([]byte, size)
		copy(data, c.local[c.flushed:c.used])
		pb.rm.BufferSubdata(c.buffer, c.flushed, size, data, true)
		c.flushed = c.used
	}
}

// Buffers returns the device buffers backing the push buffer.
func (pb *PushBuffer) Buffers() []*metadata.Buffer {
	out := make([]*metadata.Buffer, 0, len(pb.chunks))
	for _, c := range pb.chunks {
		out = append(out, c.buffer)
	}
	return out
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}
