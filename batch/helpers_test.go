package batch

import (
	"cmp"

	"github.com/GglLfr/hephae/vertex"
	"github.com/gogpu/gputypes"
)

// testVertex is a 2D position vertex.
type testVertex struct{ X, Y float32 }

func (v testVertex) Put(dst []byte) { vertex.PutFloat32s(dst, v.X, v.Y) }

var testLayout = vertex.MustLayout(gputypes.VertexFormatFloat32x2)

const testStride = 8

// quad returns a Mesh with four vertices at (x, y) and six indices.
func quad(x, y float32) Mesh[testVertex] {
	return Mesh[testVertex]{
		Vertices: []testVertex{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}},
		Indices:  QuadIndices,
	}
}

// tagged is a command that carries an id and writes one vertex and one index.
type tagged struct{ id int }

func (tagged) Counts() (int, int) { return 1, 1 }

func (c tagged) Encode(vertices []byte, indices []uint32) {
	vertex.PutFloat32s(vertices, float32(c.id), 0)
	indices[0] = 0
}

// empty is a command with no geometry.
type empty struct{}

func (empty) Counts() (int, int)      { return 0, 0 }
func (empty) Encode([]byte, []uint32) {}

// zOnly orders DrawKeys by Z alone and merges on pipeline and bind group.
var zOnly = KeyFuncs[DrawKey]{
	CompareFunc:   func(a, b DrawKey) int { return cmp.Compare(a.Z, b.Z) },
	MergeableFunc: DrawKeyOrder{}.Mergeable,
}

func newTestWriter(cfg WriterConfig) *Writer {
	w, err := NewWriter(testStride, cfg)
	if err != nil {
		panic(err)
	}
	return w
}
