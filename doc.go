// Package hephae provides a vertex batching pipeline and the plugins built on
// top of it: texture atlases, text glyph atlases and localization.
//
// # Overview
//
// Every frame, drawers turn per-entity state into draw commands tagged with a
// batch key. The commands are collected in a frame-scoped cache, sorted by key,
// merged into batches that share GPU state and serialized into vertex and
// index byte regions that persist across frames.
//
//	pipeline, err := sprite.NewPipeline(atlas, batch.DefaultPipelineConfig())
//	if err != nil {
//	    return err
//	}
//	defer pipeline.Close()
//
//	frame, err := pipeline.Run(instances)
//	if err != nil {
//	    return err // skip this frame's draw calls
//	}
//	err = buffers.UploadFrame(frame.Vertices, frame.Indices)
//
// render.Node wraps the last two steps and records one indexed draw per
// batch into a render pass.
//
// # Packages
//
//   - vertex: vertex layout description and encoding contract
//   - batch: drawers, command cache, batcher, buffer writer and pipeline phases
//   - render: GPU upload and draw-call recording on gogpu/wgpu
//   - atlas: shelf-packed texture atlas pages with sprite lookup
//   - sprite: textured quads drawn from atlas sprites
//   - text: text shaping and glyph atlas
//   - locale: localization collections with language fallback
//
// # Logging
//
// Logging is silent by default. Call [SetLogger] to route diagnostics from
// every sub-package to a [log/slog] logger.
package hephae
