package batch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entriesOf(keys ...DrawKey) []Entry[DrawKey] {
	out := make([]Entry[DrawKey], len(keys))
	for i, k := range keys {
		out[i] = Entry[DrawKey]{Key: k, Command: quad(float32(i), 0)}
	}
	return out
}

func TestBatcherThreeDistinctBatches(t *testing.T) {
	// b sorts before a on bind group alone; push order must win.
	a := DrawKey{Z: 0, BindGroup: 2}
	b := DrawKey{Z: 0, BindGroup: 1}
	c := DrawKey{Z: 1, BindGroup: 2}

	cache := NewCache[DrawKey](DrawKeyOrder{})
	cache.Push(a, quad(0, 0))
	cache.Push(b, quad(1, 0))
	cache.Push(c, quad(2, 0))

	entries := cache.DrainSorted(nil)
	require.Len(t, entries, 3)
	assert.Equal(t, []DrawKey{a, b, c}, []DrawKey{entries[0].Key, entries[1].Key, entries[2].Key})

	w := newTestWriter(DefaultWriterConfig())
	batches, err := NewBatcher[DrawKey](DrawKeyOrder{}).Batch(entries, w)
	require.NoError(t, err)
	require.Len(t, batches, 3)
	for i, want := range []DrawKey{a, b, c} {
		assert.Equal(t, want, batches[i].Key)
		assert.Equal(t, 1, batches[i].Commands)
		assert.Equal(t, uint32(6), batches[i].IndexCount())
		assert.Equal(t, uint32(6*i), batches[i].FirstIndex())
	}
}

func TestDrawKeyOrderKeepsPushOrderWithinLayer(t *testing.T) {
	cache := NewCache[DrawKey](DrawKeyOrder{})
	cache.Push(DrawKey{Z: 1, Pipeline: 0, BindGroup: 0}, tagged{id: 0})
	cache.Push(DrawKey{Z: 0, Pipeline: 2, BindGroup: 2}, tagged{id: 1})
	cache.Push(DrawKey{Z: 0, Pipeline: 1, BindGroup: 1}, tagged{id: 2})
	cache.Push(DrawKey{Z: 0, Pipeline: 2, BindGroup: 0}, tagged{id: 3})
	cache.Push(DrawKey{Z: -1, BindGroup: 9}, tagged{id: 4})

	var ids []int
	for _, e := range cache.DrainSorted(nil) {
		ids = append(ids, e.Command.(tagged).id)
	}
	assert.Equal(t, []int{4, 1, 2, 3, 0}, ids)

	order := DrawKeyOrder{}
	assert.Zero(t, order.Compare(DrawKey{BindGroup: 2}, DrawKey{BindGroup: 1}))
	assert.Zero(t, order.Compare(DrawKey{Pipeline: 2}, DrawKey{Pipeline: 1}))
	assert.Negative(t, order.Compare(DrawKey{Z: -1, Pipeline: 5}, DrawKey{Z: 0}))
}

func TestBatcherMergesConsecutiveEqualKeys(t *testing.T) {
	k1 := DrawKey{Z: 0, Pipeline: 1}
	k1z := DrawKey{Z: 3, Pipeline: 1}
	k2 := DrawKey{Z: 4, Pipeline: 2}

	w := newTestWriter(DefaultWriterConfig())
	batches, err := NewBatcher[DrawKey](DrawKeyOrder{}).Batch(entriesOf(k1, k1, k1z, k2, k2, k1), w)
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, 3, batches[0].Commands)
	assert.Equal(t, k1, batches[0].Key)
	assert.Equal(t, 2, batches[1].Commands)
	assert.Equal(t, k2, batches[1].Key)
	assert.Equal(t, 1, batches[2].Commands)

	order := DrawKeyOrder{}
	for i := 1; i < len(batches); i++ {
		assert.False(t, order.Mergeable(batches[i-1].Key, batches[i].Key))
	}
}

func TestBatcherRangesPartitionRegions(t *testing.T) {
	keys := []DrawKey{{BindGroup: 1}, {BindGroup: 1}, {BindGroup: 2}, {BindGroup: 3}, {BindGroup: 3}}
	entries := entriesOf(keys...)
	entries = append(entries, Entry[DrawKey]{Key: DrawKey{BindGroup: 4}, Command: empty{}})
	entries = append(entries, Entry[DrawKey]{Key: DrawKey{BindGroup: 4}, Command: tagged{id: 9}})

	w := newTestWriter(DefaultWriterConfig())
	batches, err := NewBatcher[DrawKey](DrawKeyOrder{}).Batch(entries, w)
	require.NoError(t, err)

	var vEnd, iEnd uint64
	commands := 0
	for _, b := range batches {
		assert.Equal(t, vEnd, b.Vertices.Start, "vertex gap before %v", b.Key)
		assert.Equal(t, iEnd, b.Indices.Start, "index gap before %v", b.Key)
		vEnd, iEnd = b.Vertices.End, b.Indices.End
		commands += b.Commands
	}
	assert.Equal(t, uint64(len(w.Vertices())), vEnd)
	assert.Equal(t, uint64(len(w.Indices())), iEnd)
	assert.Equal(t, len(entries), commands)
}

func TestBatcherEmpty(t *testing.T) {
	w := newTestWriter(DefaultWriterConfig())
	batches, err := NewBatcher[DrawKey](DrawKeyOrder{}).Batch(nil, w)
	require.NoError(t, err)
	assert.Empty(t, batches)
	assert.Empty(t, w.Vertices())
	assert.Empty(t, w.Indices())
}

func TestBatcherUnsupportedKey(t *testing.T) {
	w := newTestWriter(DefaultWriterConfig())
	entries := entriesOf(DrawKey{}, DrawKey{Z: float32(math.NaN())})
	batches, err := NewBatcher[DrawKey](DrawKeyOrder{}).Batch(entries, w)
	require.ErrorIs(t, err, ErrUnsupportedKey)
	assert.Nil(t, batches)
}

func TestBatcherCustomKeyOrderSkipsValidation(t *testing.T) {
	w := newTestWriter(DefaultWriterConfig())
	entries := entriesOf(DrawKey{Z: float32(math.Inf(1))})
	batches, err := NewBatcher[DrawKey](zOnly).Batch(entries, w)
	require.NoError(t, err)
	assert.Len(t, batches, 1)
}
