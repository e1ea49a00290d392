// Package cache provides the sharded LRU cache shared by the text and
// glyph layers.
//
//	c := cache.New[runKey, []Glyph](256)
//	glyphs := c.GetOrCreate(key, func() []Glyph { return shape(key) })
//
// Sharded spreads keys over 16 shards by hash, each with its own mutex and
// LRU list, so parallel drawers rarely contend. It is safe for concurrent
// use and must not be copied after creation.
package cache
