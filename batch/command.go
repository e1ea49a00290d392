package batch

import "github.com/GglLfr/hephae/vertex"

// Command is one draw request. It is created by a drawer during a frame,
// consumed exactly once by the Writer and then discarded.
type Command interface {
	// Counts reports how many vertices and indices Encode writes.
	Counts() (vertices, indices int)

	// Encode writes the command's vertices into vertices, which holds exactly
	// Counts().vertices strides, and its indices into indices. Indices are
	// relative to the command's first vertex; the Writer rebases them.
	Encode(vertices []byte, indices []uint32)
}

// Queue accepts draw commands from drawers.
type Queue[K any] interface {
	Push(key K, cmd Command)
}

// Drawer translates one entity's state into draw commands.
//
// Draw is called concurrently for different states and must not touch
// shared mutable state other than q. A drawer that cannot produce geometry
// simply pushes nothing.
type Drawer[S, K any] interface {
	Draw(state S, q Queue[K])
}

// Preparer is optionally implemented by a Drawer that needs to update
// shared resources, such as rasterizing glyphs into an atlas, before its
// Draw calls run. Prepare is called once per frame on the goroutine running
// the pipeline, before any Draw; Draw may then only read those resources.
type Preparer[S any] interface {
	Prepare(states []S)
}

// DrawerFunc adapts a function to Drawer.
type DrawerFunc[S, K any] func(state S, q Queue[K])

// Draw implements Drawer.
func (f DrawerFunc[S, K]) Draw(state S, q Queue[K]) { f(state, q) }

// Mesh is a Command over typed vertices and local indices.
type Mesh[V vertex.Vertex] struct {
	Vertices []V
	Indices  []uint32
}

// Counts implements Command.
func (m Mesh[V]) Counts() (int, int) {
	return len(m.Vertices), len(m.Indices)
}

// Encode implements Command.
func (m Mesh[V]) Encode(vertices []byte, indices []uint32) {
	if len(m.Vertices) > 0 {
		stride := len(vertices) / len(m.Vertices)
		for i, v := range m.Vertices {
			v.Put(vertices[i*stride : (i+1)*stride])
		}
	}
	copy(indices, m.Indices)
}

// QuadIndices are the local indices of a quad drawn as two triangles over
// vertices in top-left, top-right, bottom-right, bottom-left order.
var QuadIndices = []uint32{0, 1, 2, 2, 3, 0}
