package batch

import "fmt"

// Batch is a contiguous run of merge-equal commands drawn with one call.
type Batch[K any] struct {
	// Key is the key of the batch's first command.
	Key K

	// Vertices is the byte range in the vertex region.
	Vertices Range

	// Indices is the byte range in the index region.
	Indices Range

	// Commands is the number of commands in the batch.
	Commands int
}

// FirstIndex returns the index of the batch's first index.
func (b *Batch[K]) FirstIndex() uint32 {
	return uint32(b.Indices.Start / IndexSize) //nolint:gosec // writer caps indices to uint32 range
}

// IndexCount returns the number of indices in the batch.
func (b *Batch[K]) IndexCount() uint32 {
	return uint32(b.Indices.Len() / IndexSize) //nolint:gosec // writer caps indices to uint32 range
}

// Batcher turns a sorted entry sequence into a minimal batch sequence.
//
// A new batch starts at the first entry and whenever an entry's key is not
// mergeable with the current batch's key; otherwise the entry extends the
// current batch. The Batcher reuses its output slice across frames and is
// not safe for concurrent use.
type Batcher[K any] struct {
	order     KeyOrder[K]
	validator KeyValidator[K]
	batches   []Batch[K]
}

// NewBatcher creates a batcher over order. If order implements
// KeyValidator, every key is validated before it is written.
func NewBatcher[K any](order KeyOrder[K]) *Batcher[K] {
	b := &Batcher[K]{order: order}
	if v, ok := order.(KeyValidator[K]); ok {
		b.validator = v
	}
	return b
}

// Batch writes entries into w in order and returns the batches covering
// the written regions. w should be freshly reset so that the batch ranges
// partition its written regions exactly.
//
// The returned slice is reused by the next call. On error the output is
// nil and w holds a partial frame that the caller must reset.
func (b *Batcher[K]) Batch(entries []Entry[K], w *Writer) ([]Batch[K], error) {
	out := b.batches[:0]
	for i := range entries {
		e := &entries[i]
		if b.validator != nil {
			if err := b.validator.ValidateKey(e.Key); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnsupportedKey, err)
			}
		}

		vr, ir, err := w.Write(e.Command)
		if err != nil {
			return nil, fmt.Errorf("write command %d: %w", i, err)
		}

		if n := len(out); n > 0 && b.order.Mergeable(out[n-1].Key, e.Key) {
			last := &out[n-1]
			last.Vertices.End = vr.End
			last.Indices.End = ir.End
			last.Commands++
			continue
		}
		out = append(out, Batch[K]{Key: e.Key, Vertices: vr, Indices: ir, Commands: 1})
	}
	b.batches = out
	return out, nil
}
