package render

import (
	"github.com/GglLfr/hephae/batch"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DrawCall is one indexed draw over the shared buffers.
type DrawCall[K any] struct {
	Key        K
	FirstIndex uint32
	IndexCount uint32
}

// DrawCalls converts a frame's batches into draw calls, dropping batches
// without indices.
func DrawCalls[K any](frame *batch.Frame[K], dst []DrawCall[K]) []DrawCall[K] {
	dst = dst[:0]
	if frame.Empty() {
		return dst
	}
	for i := range frame.Batches {
		b := &frame.Batches[i]
		if b.Indices.Empty() {
			continue
		}
		dst = append(dst, DrawCall[K]{Key: b.Key, FirstIndex: b.FirstIndex(), IndexCount: b.IndexCount()})
	}
	return dst
}

// BindFunc sets the pipeline and bind groups for a batch key. It is called
// once per draw call, before DrawIndexed.
type BindFunc[K any] func(rp hal.RenderPassEncoder, key K)

// RecordDraws records the frame's draw calls into an existing render pass.
// The buffers must hold the frame's data. This is a no-op for an empty
// frame.
func RecordDraws[K any](rp hal.RenderPassEncoder, b *Buffers, frame *batch.Frame[K], bind BindFunc[K]) int {
	if frame.Empty() || b.VertexBuffer() == nil || b.IndexBuffer() == nil {
		return 0
	}
	rp.SetVertexBuffer(0, b.VertexBuffer(), 0)
	rp.SetIndexBuffer(b.IndexBuffer(), gputypes.IndexFormatUint32, 0)

	draws := 0
	for i := range frame.Batches {
		bt := &frame.Batches[i]
		if bt.Indices.Empty() {
			continue
		}
		if bind != nil {
			bind(rp, bt.Key)
		}
		rp.DrawIndexed(bt.IndexCount(), 1, bt.FirstIndex(), 0, 0)
		draws++
	}
	return draws
}
