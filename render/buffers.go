package render

import (
	"errors"
	"fmt"

	"github.com/GglLfr/hephae"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrDestroyed is returned when using Buffers after Destroy.
var ErrDestroyed = errors.New("render: buffers destroyed")

// Initial GPU buffer sizes, matching the batch writer defaults.
const (
	DefaultVertexBufferSize = 64 << 10
	DefaultIndexBufferSize  = 6144 * 4
)

// gpuBuffer is a grow-only GPU buffer.
type gpuBuffer struct {
	buf   hal.Buffer
	size  uint64
	usage gputypes.BufferUsage
	label string
}

// Buffers owns the vertex and index GPU buffers of one pipeline.
//
// A buffer is recreated only when the uploaded data no longer fits; the new
// size at least doubles. Smaller uploads write into the existing buffer.
// Buffers is not safe for concurrent use.
type Buffers struct {
	device hal.Device
	queue  hal.Queue

	vertex gpuBuffer
	index  gpuBuffer

	recreated int
	destroyed bool
}

// NewBuffers creates buffers on device. Nothing is allocated until the
// first upload.
func NewBuffers(device hal.Device, queue hal.Queue, label string) *Buffers {
	return &Buffers{
		device: device,
		queue:  queue,
		vertex: gpuBuffer{
			size:  DefaultVertexBufferSize,
			usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
			label: label + "_vertices",
		},
		index: gpuBuffer{
			size:  DefaultIndexBufferSize,
			usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
			label: label + "_indices",
		},
	}
}

// NewBuffersFromProvider creates buffers on the device shared by the host.
func NewBuffersFromProvider(provider DeviceHandle, label string) (*Buffers, error) {
	device, queue, err := HAL(provider)
	if err != nil {
		return nil, err
	}
	return NewBuffers(device, queue, label), nil
}

// UploadFrame writes vertices and indices to the GPU buffers, growing them
// if needed. Empty slices leave the corresponding buffer untouched.
func (b *Buffers) UploadFrame(vertices, indices []byte) error {
	if b.destroyed {
		return ErrDestroyed
	}
	if err := b.upload(&b.vertex, vertices); err != nil {
		return err
	}
	return b.upload(&b.index, indices)
}

func (b *Buffers) upload(g *gpuBuffer, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	need := uint64(len(data))
	if g.buf == nil || need > g.size {
		size := g.size
		if g.buf != nil {
			size *= 2
		}
		for size < need {
			size *= 2
		}
		size = align4(size)

		buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
			Label: g.label,
			Size:  size,
			Usage: g.usage,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", g.label, err)
		}
		if g.buf != nil {
			b.device.DestroyBuffer(g.buf)
			b.recreated++
			hephae.Logger().Info("render: buffer grown", "label", g.label, "from", g.size, "to", size)
		}
		g.buf = buf
		g.size = size
	}
	b.queue.WriteBuffer(g.buf, 0, data)
	return nil
}

// VertexBuffer returns the vertex buffer, or nil before the first upload.
func (b *Buffers) VertexBuffer() hal.Buffer { return b.vertex.buf }

// IndexBuffer returns the index buffer, or nil before the first upload.
func (b *Buffers) IndexBuffer() hal.Buffer { return b.index.buf }

// Sizes returns the current vertex and index buffer sizes in bytes.
func (b *Buffers) Sizes() (vertexBytes, indexBytes uint64) {
	return b.vertex.size, b.index.size
}

// Recreated returns how many times a buffer was replaced by a larger one.
func (b *Buffers) Recreated() int { return b.recreated }

// Destroy releases the GPU buffers. Destroy is safe to call multiple times.
func (b *Buffers) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	if b.vertex.buf != nil {
		b.device.DestroyBuffer(b.vertex.buf)
		b.vertex.buf = nil
	}
	if b.index.buf != nil {
		b.device.DestroyBuffer(b.index.buf)
		b.index.buf = nil
	}
}

func align4(n uint64) uint64 { return (n + 3) &^ 3 }
