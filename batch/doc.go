// Copyright 2026 The hephae Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package batch collects per-entity draw commands, sorts them by batch key,
// merges compatible neighbours into batches and serializes them into
// growable vertex and index byte regions.
//
// # Frame phases
//
// A frame runs through four phases in order:
//
//  1. Evaluate: drawers run in parallel over entity states and record
//     (key, command) pairs. A barrier joins all drawer tasks.
//  2. Drain: the command cache is consumed and sorted by key; ties keep
//     recording order.
//  3. Batch: adjacent commands whose keys are merge-equal share a batch.
//  4. Write: commands are appended to the Writer in batch order.
//
// Pipeline runs the phases in sequence. Each phase is also exposed on its
// own so a host scheduler can place them where it needs to.
//
// # Keys
//
// Sorting and merging use two distinct relations supplied by a KeyOrder.
// Two keys may compare unequal (for example by z-order) and still be
// mergeable, and two keys that sort next to each other may still need
// separate draw calls. Mergeable must be an equivalence relation.
//
// # Buffers
//
// Writer owns the vertex and index regions. Regions grow by a constant
// factor and never shrink; Reset rewinds the cursors so the next frame
// reuses the same storage. Indices are written as little-endian uint32
// values already offset by the command's base vertex.
package batch
