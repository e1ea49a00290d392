package batch

import (
	"encoding/binary"
	"fmt"
	"math"
)

// IndexSize is the byte size of one index in the index region.
const IndexSize = 4

// Default writer settings.
const (
	// DefaultInitialVertexBytes is the initial vertex region capacity.
	DefaultInitialVertexBytes = 64 << 10

	// DefaultInitialIndexBytes is the initial index region capacity
	// (6144 indices, enough for 1024 quads).
	DefaultInitialIndexBytes = 6144 * IndexSize

	// DefaultGrowthFactor multiplies the capacity on every growth step.
	DefaultGrowthFactor = 2
)

// Range is a half-open byte range [Start, End).
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of bytes in the range.
func (r Range) Len() uint64 { return r.End - r.Start }

// Empty reports whether the range covers no bytes.
func (r Range) Empty() bool { return r.End <= r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d, %d)", r.Start, r.End) }

// WriterConfig configures buffer region sizing.
type WriterConfig struct {
	// InitialVertexBytes is the vertex region capacity allocated up front.
	InitialVertexBytes int

	// InitialIndexBytes is the index region capacity allocated up front.
	InitialIndexBytes int

	// GrowthFactor multiplies the capacity until it fits a request. Must be >= 2.
	GrowthFactor int

	// MaxBytes caps each region. Zero means unbounded.
	MaxBytes int
}

// DefaultWriterConfig returns the default writer configuration.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		InitialVertexBytes: DefaultInitialVertexBytes,
		InitialIndexBytes:  DefaultInitialIndexBytes,
		GrowthFactor:       DefaultGrowthFactor,
	}
}

// Validate checks the configuration.
func (c *WriterConfig) Validate() error {
	if c.InitialVertexBytes < 0 {
		return &ConfigError{Field: "InitialVertexBytes", Reason: "must be >= 0"}
	}
	if c.InitialIndexBytes < 0 {
		return &ConfigError{Field: "InitialIndexBytes", Reason: "must be >= 0"}
	}
	if c.GrowthFactor < 2 {
		return &ConfigError{Field: "GrowthFactor", Reason: "must be >= 2"}
	}
	if c.MaxBytes < 0 {
		return &ConfigError{Field: "MaxBytes", Reason: "must be >= 0"}
	}
	if c.MaxBytes > 0 && (c.InitialVertexBytes > c.MaxBytes || c.InitialIndexBytes > c.MaxBytes) {
		return &ConfigError{Field: "MaxBytes", Reason: "smaller than initial capacity"}
	}
	return nil
}

// WriterStats reports buffer usage.
type WriterStats struct {
	VertexCapacity int
	IndexCapacity  int
	VertexBytes    int
	IndexBytes     int
	Grows          int
}

// Writer is the append-only vertex/index buffer writer.
//
// The write cursors never exceed the reserved capacity. A failed reserve
// leaves both capacity and cursors untouched. Writer is not safe for
// concurrent use.
type Writer struct {
	stride int
	cfg    WriterConfig

	// vertices and indices are the backing regions; len is the capacity.
	vertices []byte
	indices  []byte

	vertexCursor int
	indexCursor  int

	scratch []uint32
	grows   int
}

// NewWriter creates a writer for vertices of the given stride.
func NewWriter(stride int, cfg WriterConfig) (*Writer, error) {
	if stride <= 0 {
		return nil, &ConfigError{Field: "stride", Reason: "must be > 0"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Writer{
		stride:   stride,
		cfg:      cfg,
		vertices: make([]byte, cfg.InitialVertexBytes),
		indices:  make([]byte, cfg.InitialIndexBytes),
	}, nil
}

// Stride returns the vertex stride in bytes.
func (w *Writer) Stride() int { return w.stride }

// Reserve grows the vertex region to at least capacity bytes. It never
// shrinks the region.
func (w *Writer) Reserve(capacity int) error {
	buf, err := w.grow(w.vertices, w.vertexCursor, capacity)
	if err != nil {
		return fmt.Errorf("reserve %d vertex bytes: %w", capacity, err)
	}
	w.vertices = buf
	return nil
}

// ReserveIndices grows the index region to at least capacity bytes. It
// never shrinks the region.
func (w *Writer) ReserveIndices(capacity int) error {
	buf, err := w.grow(w.indices, w.indexCursor, capacity)
	if err != nil {
		return fmt.Errorf("reserve %d index bytes: %w", capacity, err)
	}
	w.indices = buf
	return nil
}

// grow returns buf with at least need bytes, copying the first cursor bytes
// into a larger allocation when needed.
func (w *Writer) grow(buf []byte, cursor, need int) ([]byte, error) {
	if need <= len(buf) {
		return buf, nil
	}
	if w.cfg.MaxBytes > 0 && need > w.cfg.MaxBytes {
		return buf, fmt.Errorf("%w: need %d bytes, limit %d", ErrCapacityExceeded, need, w.cfg.MaxBytes)
	}

	newCap := max(len(buf), w.stride)
	for newCap < need {
		if newCap > math.MaxInt/w.cfg.GrowthFactor {
			newCap = need
			break
		}
		newCap *= w.cfg.GrowthFactor
	}
	if w.cfg.MaxBytes > 0 && newCap > w.cfg.MaxBytes {
		newCap = w.cfg.MaxBytes
	}

	grown := make([]byte, newCap)
	copy(grown, buf[:cursor])
	w.grows++
	return grown, nil
}

// Write appends cmd at the write cursors and returns the vertex and index
// byte ranges it occupies. A command with no vertices and no indices yields
// two empty ranges at the current cursors.
func (w *Writer) Write(cmd Command) (Range, Range, error) {
	vr := Range{Start: uint64(w.vertexCursor), End: uint64(w.vertexCursor)}
	ir := Range{Start: uint64(w.indexCursor), End: uint64(w.indexCursor)}
	if cmd == nil {
		return vr, ir, nil
	}

	nv, ni := cmd.Counts()
	if nv < 0 || ni < 0 {
		return vr, ir, fmt.Errorf("%w: counts (%d, %d)", ErrInvalidCommand, nv, ni)
	}
	if nv == 0 && ni == 0 {
		return vr, ir, nil
	}

	base := w.vertexCursor / w.stride
	if uint64(base)+uint64(nv) > math.MaxUint32 {
		return vr, ir, fmt.Errorf("%w: vertex count overflows uint32 indices", ErrCapacityExceeded)
	}

	vertexBytes := nv * w.stride
	indexBytes := ni * IndexSize
	if err := w.Reserve(w.vertexCursor + vertexBytes); err != nil {
		return vr, ir, err
	}
	if err := w.ReserveIndices(w.indexCursor + indexBytes); err != nil {
		return vr, ir, err
	}

	if cap(w.scratch) < ni {
		w.scratch = make([]uint32, ni)
	}
	local := w.scratch[:ni]
	clear(local)

	cmd.Encode(w.vertices[w.vertexCursor:w.vertexCursor+vertexBytes], local)

	dst := w.indices[w.indexCursor : w.indexCursor+indexBytes]
	for i, idx := range local {
		binary.LittleEndian.PutUint32(dst[i*IndexSize:], uint32(base)+idx) //nolint:gosec // base checked above
	}

	w.vertexCursor += vertexBytes
	w.indexCursor += indexBytes
	vr.End = uint64(w.vertexCursor)
	ir.End = uint64(w.indexCursor)
	return vr, ir, nil
}

// Reset rewinds both cursors to zero without releasing storage.
func (w *Writer) Reset() {
	w.vertexCursor = 0
	w.indexCursor = 0
}

// Vertices returns the written part of the vertex region. The slice is only
// valid until the next Write, Reserve or Reset.
func (w *Writer) Vertices() []byte { return w.vertices[:w.vertexCursor] }

// Indices returns the written part of the index region. The slice is only
// valid until the next Write, Reserve or Reset.
func (w *Writer) Indices() []byte { return w.indices[:w.indexCursor] }

// VertexCount returns the number of vertices written since the last Reset.
func (w *Writer) VertexCount() int { return w.vertexCursor / w.stride }

// IndexCount returns the number of indices written since the last Reset.
func (w *Writer) IndexCount() int { return w.indexCursor / IndexSize }

// Capacity returns the current capacity of the vertex and index regions.
func (w *Writer) Capacity() (vertexBytes, indexBytes int) {
	return len(w.vertices), len(w.indices)
}

// Stats returns buffer usage statistics.
func (w *Writer) Stats() WriterStats {
	return WriterStats{
		VertexCapacity: len(w.vertices),
		IndexCapacity:  len(w.indices),
		VertexBytes:    w.vertexCursor,
		IndexBytes:     w.indexCursor,
		Grows:          w.grows,
	}
}

// DoubleBuffer alternates between two writers so one frame can be written
// while the previous frame's regions are still being read.
type DoubleBuffer struct {
	writers [2]*Writer
	current int
}

// NewDoubleBuffer creates two writers with the same configuration.
func NewDoubleBuffer(stride int, cfg WriterConfig) (*DoubleBuffer, error) {
	var d DoubleBuffer
	for i := range d.writers {
		w, err := NewWriter(stride, cfg)
		if err != nil {
			return nil, err
		}
		d.writers[i] = w
	}
	return &d, nil
}

// Current returns the writer of the most recent frame.
func (d *DoubleBuffer) Current() *Writer { return d.writers[d.current] }

// Previous returns the writer of the frame before the current one.
func (d *DoubleBuffer) Previous() *Writer { return d.writers[d.current^1] }

// Next flips to the other writer, resets it and returns it.
func (d *DoubleBuffer) Next() *Writer {
	d.current ^= 1
	w := d.writers[d.current]
	w.Reset()
	return w
}
