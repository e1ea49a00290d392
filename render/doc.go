// Copyright 2026 The hephae Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render uploads batched frames to the GPU and records their draw
// calls.
//
// The package RECEIVES a GPU device from the host application; it never
// creates one. Hosts pass a DeviceHandle (gpucontext.DeviceProvider) that
// also exposes the HAL device and queue, or hand over a hal.Device and
// hal.Queue directly.
//
// # Per-frame flow
//
//	frame, err := pipeline.Run(states)  // batch package
//	err = buffers.UploadFrame(frame.Vertices, frame.Indices)
//	RecordDraws(rp, buffers, frame, bind)
//
// Buffers keeps one vertex and one index buffer per pipeline. They grow by
// recreation when a frame outgrows them and are written in place otherwise.
// AtlasTextures mirrors atlas pages into textures, re-uploading only pages
// marked dirty.
//
// Node wraps a batch.Pipeline together with its Buffers for hosts that want
// a single prepare/record pair per vertex type.
package render
