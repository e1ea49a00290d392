package render

import (
	"fmt"

	"github.com/GglLfr/hephae/batch"
	"github.com/gogpu/wgpu/hal"
)

// Node ties a batch.Pipeline to its GPU buffers. Prepare runs once per frame
// before the render pass; Record runs inside it.
type Node[S, K any] struct {
	pipeline *batch.Pipeline[S, K]
	buffers  *Buffers
	bind     BindFunc[K]
	frame    *batch.Frame[K]
}

// NewNode creates a node drawing pipeline's frames into buffers.
func NewNode[S, K any](pipeline *batch.Pipeline[S, K], buffers *Buffers, bind BindFunc[K]) *Node[S, K] {
	return &Node[S, K]{pipeline: pipeline, buffers: buffers, bind: bind}
}

// Prepare evaluates states, batches the commands and uploads the frame.
// On error the node draws nothing this frame.
func (n *Node[S, K]) Prepare(states []S) error {
	n.frame = nil
	frame, err := n.pipeline.Run(states)
	if err != nil {
		return err
	}
	if frame.Empty() {
		return nil
	}
	if err := n.buffers.UploadFrame(frame.Vertices, frame.Indices); err != nil {
		return fmt.Errorf("render: upload frame: %w", err)
	}
	n.frame = frame
	return nil
}

// Frame returns the last prepared frame, or nil if none is pending.
func (n *Node[S, K]) Frame() *batch.Frame[K] { return n.frame }

// Record records the prepared frame into rp and returns the number of
// draw calls.
func (n *Node[S, K]) Record(rp hal.RenderPassEncoder) int {
	return RecordDraws(rp, n.buffers, n.frame, n.bind)
}
