// Package sprite draws textured quads from atlas sprites through the batch
// pipeline.
//
// Each Instance becomes one Quad keyed by batch.DrawKey with the sprite's
// atlas page as bind group, so sprites sharing a page and pipeline merge
// into a single draw call. Nine-slice sprites drawn larger than their
// native size become a NinePatch instead.
package sprite

import (
	"github.com/GglLfr/hephae/atlas"
	"github.com/GglLfr/hephae/batch"
	"github.com/GglLfr/hephae/vertex"
	"github.com/gogpu/gputypes"
)

// Vertex is a textured, tinted 2D vertex.
type Vertex struct {
	X, Y  float32
	U, V  float32
	Color [4]float32
}

// Stride is the byte size of an encoded Vertex.
const Stride = 32

var layout = vertex.MustLayout(
	gputypes.VertexFormatFloat32x2,
	gputypes.VertexFormatFloat32x2,
	gputypes.VertexFormatFloat32x4,
)

// Layout returns the vertex layout: position at location 0, uv at 1 and
// color at 2.
func Layout() vertex.Layout { return layout }

// Put implements vertex.Vertex.
func (v Vertex) Put(dst []byte) {
	vertex.PutFloat32s(dst, v.X, v.Y, v.U, v.V, v.Color[0], v.Color[1], v.Color[2], v.Color[3])
}

// Quad is a four-vertex command in top-left, top-right, bottom-right,
// bottom-left order.
type Quad [4]Vertex

// Counts implements batch.Command.
func (Quad) Counts() (int, int) { return 4, len(batch.QuadIndices) }

// Encode implements batch.Command.
func (q Quad) Encode(vertices []byte, indices []uint32) {
	for i := range q {
		q[i].Put(vertices[i*Stride:])
	}
	copy(indices, batch.QuadIndices)
}

// White is the default tint.
var White = [4]float32{1, 1, 1, 1}

// Instance is the per-entity sprite state.
type Instance struct {
	// Name is the atlas sprite name.
	Name string

	// X and Y are the top-left corner.
	X, Y float32

	// Width and Height override the sprite's pixel size when non-zero.
	Width, Height float32

	// Z is the layer.
	Z float32

	// Color tints the sprite. The zero value draws untinted.
	Color [4]float32

	// Pipeline selects the render pipeline in the batch key.
	Pipeline uint32
}

// Drawer emits one Quad or NinePatch per visible Instance. Instances naming
// unknown sprites draw nothing.
type Drawer struct {
	Atlas *atlas.Atlas
}

var _ batch.Drawer[Instance, batch.DrawKey] = Drawer{}

// Draw implements batch.Drawer.
func (d Drawer) Draw(in Instance, q batch.Queue[batch.DrawKey]) {
	s, ok := d.Atlas.Lookup(in.Name)
	if !ok {
		return
	}
	w, h := in.Width, in.Height
	if w == 0 {
		w = float32(s.Region.Width)
	}
	if h == 0 {
		h = float32(s.Region.Height)
	}
	c := in.Color
	if c == ([4]float32{}) {
		c = White
	}

	key := batch.DrawKey{Z: in.Z, Pipeline: in.Pipeline, BindGroup: uint32(s.Page)} //nolint:gosec // page count is small
	if s.NineSlice != nil && (w > float32(s.Region.Width) || h > float32(s.Region.Height)) {
		q.Push(key, NewNinePatch(in.X, in.Y, w, h, s, c))
		return
	}
	q.Push(key, NewQuad(in.X, in.Y, w, h, s.UV, c))
}

// NewQuad builds an axis-aligned quad at (x, y) of size w x h.
func NewQuad(x, y, w, h float32, uv [4]float32, color [4]float32) Quad {
	u0, v0, u1, v1 := uv[0], uv[1], uv[2], uv[3]
	return Quad{
		{X: x, Y: y, U: u0, V: v0, Color: color},
		{X: x + w, Y: y, U: u1, V: v0, Color: color},
		{X: x + w, Y: y + h, U: u1, V: v1, Color: color},
		{X: x, Y: y + h, U: u0, V: v1, Color: color},
	}
}

// NinePatch is a 4x4 vertex grid in row-major order drawn as nine quads.
type NinePatch [16]Vertex

var ninePatchIndices = func() []uint32 {
	out := make([]uint32, 0, 9*len(batch.QuadIndices))
	for row := range uint32(3) {
		for col := range uint32(3) {
			tl := row*4 + col
			corners := [4]uint32{tl, tl + 1, tl + 5, tl + 4}
			for _, i := range batch.QuadIndices {
				out = append(out, corners[i])
			}
		}
	}
	return out
}()

// Counts implements batch.Command.
func (NinePatch) Counts() (int, int) { return 16, len(ninePatchIndices) }

// Encode implements batch.Command.
func (p NinePatch) Encode(vertices []byte, indices []uint32) {
	for i := range p {
		p[i].Put(vertices[i*Stride:])
	}
	copy(indices, ninePatchIndices)
}

// NewNinePatch builds a nine-patch of s at (x, y) of size w x h. Edges keep
// their pixel size and the center stretches; when w or h is smaller than
// both edges together, the edges shrink proportionally on that axis.
func NewNinePatch(x, y, w, h float32, s atlas.Sprite, color [4]float32) NinePatch {
	cuts := s.NineSlice
	xs := sliceAxis(x, w, cuts.Left, cuts.Right, s.Region.Width)
	ys := sliceAxis(y, h, cuts.Top, cuts.Bottom, s.Region.Height)
	us := sliceUV(s.UV[0], s.UV[2], cuts.Left, cuts.Right, s.Region.Width)
	vs := sliceUV(s.UV[1], s.UV[3], cuts.Top, cuts.Bottom, s.Region.Height)

	var p NinePatch
	for row := range 4 {
		for col := range 4 {
			p[row*4+col] = Vertex{X: xs[col], Y: ys[row], U: us[col], V: vs[row], Color: color}
		}
	}
	return p
}

func sliceAxis(pos, size float32, lo, hi, native int) [4]float32 {
	head, tail := float32(lo), float32(native-hi)
	if edges := head + tail; edges > size && edges > 0 {
		head, tail = head*size/edges, tail*size/edges
	}
	return [4]float32{pos, pos + head, pos + size - tail, pos + size}
}

func sliceUV(t0, t1 float32, lo, hi, native int) [4]float32 {
	span := (t1 - t0) / float32(native)
	return [4]float32{t0, t0 + span*float32(lo), t0 + span*float32(hi), t1}
}

// NewPipeline creates a batch pipeline drawing Instances from a.
func NewPipeline(a *atlas.Atlas, cfg batch.PipelineConfig) (*batch.Pipeline[Instance, batch.DrawKey], error) {
	return batch.NewPipeline[Instance, batch.DrawKey](Drawer{Atlas: a}, batch.DrawKeyOrder{}, layout, cfg)
}
