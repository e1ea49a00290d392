// Package text shapes, lays out and draws strings through the batch
// pipeline.
//
// Shaping uses go-text/typesetting (HarfBuzz); glyph outlines are read with
// golang.org/x/image/font/sfnt and rasterized with golang.org/x/image/vector
// into a GlyphAtlas. Each visible glyph becomes one textured quad keyed by
// its glyph atlas page.
//
//	f, _ := text.ParseFont(ttf)
//	shaper := text.NewShaper(0)
//	glyphs, _ := text.NewGlyphAtlas(text.DefaultGlyphAtlasConfig())
//	p, _ := text.NewPipeline(text.Drawer{Shaper: shaper, Glyphs: glyphs}, batch.DefaultPipelineConfig())
//	frame, _ := p.Run([]text.Label{{Text: "hello", Font: f, Size: 16}})
//
// Font, Shaper and GlyphAtlas are safe for concurrent use, so a Drawer can
// run on every pipeline worker.
package text
