package vertex

import (
	"encoding/binary"
	"math"
)

// Vertex is a single vertex record that knows how to serialize itself.
// Put writes exactly one stride of little-endian data into dst; dst is
// guaranteed to be at least Layout.Stride bytes long.
type Vertex interface {
	Put(dst []byte)
}

// PutFloat32 writes v at dst[0:4] in little-endian order.
func PutFloat32(dst []byte, v float32) {
	binary.LittleEndian.PutUint32(dst, math.Float32bits(v))
}

// PutFloat32s writes vs back to back starting at dst[0] and returns the
// number of bytes written.
func PutFloat32s(dst []byte, vs ...float32) int {
	for i, v := range vs {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
	return len(vs) * 4
}

// Float32At reads the little-endian float32 at dst[off:off+4].
func Float32At(src []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src[off:]))
}
