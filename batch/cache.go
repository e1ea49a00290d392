package batch

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
)

const (
	// cacheShards is the number of append shards. Must be a power of 2.
	cacheShards = 16

	cacheShardMask = cacheShards - 1
)

// Entry is a recorded (key, command) pair.
type Entry[K any] struct {
	Key     K
	Command Command

	// seq is the recording position used to break key ties.
	seq uint64
}

// Cache is the frame-scoped store of recorded draw commands.
//
// Push and Commit are safe for concurrent use by many writers. DrainSorted
// and Reset must only be called once every writer has finished.
//
// Every entry receives a sequence number when it is recorded; DrainSorted
// orders by key and then by sequence, so equal keys keep recording order.
// Commit assigns a whole recorder a contiguous block of sequence numbers,
// which keeps the final order independent of goroutine interleaving when
// recorders are committed in a fixed order.
type Cache[K any] struct {
	order  KeyOrder[K]
	seq    atomic.Uint64
	shards [cacheShards]cacheShard[K]
}

type cacheShard[K any] struct {
	mu      sync.Mutex
	entries []Entry[K]
}

// NewCache creates an empty cache sorted by order.
func NewCache[K any](order KeyOrder[K]) *Cache[K] {
	return &Cache[K]{order: order}
}

// Push records a command. Safe for concurrent use.
func (c *Cache[K]) Push(key K, cmd Command) {
	seq := c.seq.Add(1) - 1
	s := &c.shards[seq&cacheShardMask]

	s.mu.Lock()
	s.entries = append(s.entries, Entry[K]{Key: key, Command: cmd, seq: seq})
	s.mu.Unlock()
}

// Commit moves every entry of r into the cache, preserving r's order, and
// clears r. Safe for concurrent use.
func (c *Cache[K]) Commit(r *Recorder[K]) {
	n := uint64(len(r.entries))
	if n == 0 {
		return
	}
	start := c.seq.Add(n) - n
	for i := range r.entries {
		r.entries[i].seq = start + uint64(i)
	}

	s := &c.shards[start&cacheShardMask]
	s.mu.Lock()
	s.entries = append(s.entries, r.entries...)
	s.mu.Unlock()

	r.Reset()
}

// Len returns the number of recorded entries.
func (c *Cache[K]) Len() int {
	total := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		total += len(s.entries)
		s.mu.Unlock()
	}
	return total
}

// DrainSorted appends every entry to dst[:0] ordered by key ascending, with
// equal keys in recording order, and empties the cache. Shard storage is
// kept for the next frame.
func (c *Cache[K]) DrainSorted(dst []Entry[K]) []Entry[K] {
	dst = dst[:0]
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		dst = append(dst, s.entries...)
		clear(s.entries)
		s.entries = s.entries[:0]
		s.mu.Unlock()
	}
	c.seq.Store(0)

	slices.SortFunc(dst, func(a, b Entry[K]) int {
		if r := c.order.Compare(a.Key, b.Key); r != 0 {
			return r
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return dst
}

// Reset discards every recorded entry.
func (c *Cache[K]) Reset() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		clear(s.entries)
		s.entries = s.entries[:0]
		s.mu.Unlock()
	}
	c.seq.Store(0)
}

// Recorder is a single-goroutine queue that buffers commands for one drawer
// task until they are committed to a Cache.
type Recorder[K any] struct {
	entries []Entry[K]
}

// Push implements Queue.
func (r *Recorder[K]) Push(key K, cmd Command) {
	r.entries = append(r.entries, Entry[K]{Key: key, Command: cmd})
}

// Len reports how many commands are buffered.
func (r *Recorder[K]) Len() int {
	return len(r.entries)
}

// Snapshot returns the current length so a failed drawer can be rolled back.
func (r *Recorder[K]) Snapshot() int {
	return len(r.entries)
}

// Restore truncates the recorder back to snapshot.
func (r *Recorder[K]) Restore(snapshot int) {
	if snapshot < 0 {
		snapshot = 0
	}
	if snapshot >= len(r.entries) {
		return
	}
	clear(r.entries[snapshot:])
	r.entries = r.entries[:snapshot]
}

// Reset empties the recorder and keeps its storage.
func (r *Recorder[K]) Reset() {
	clear(r.entries)
	r.entries = r.entries[:0]
}
