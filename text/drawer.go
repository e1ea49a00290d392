package text

import (
	"github.com/GglLfr/hephae"
	"github.com/GglLfr/hephae/batch"
	"github.com/GglLfr/hephae/sprite"
)

// Label is the per-entity text state.
type Label struct {
	// Text is drawn as is unless Key is set.
	Text string

	// Key, when set and the Drawer has a Localize func, is resolved to the
	// displayed text. Lookup failures fall back to Text.
	Key string

	Font *Font
	Size float32

	// X and Y are the top-left corner of the layout box.
	X, Y float32
	Z    float32

	// Color tints the glyphs. The zero value draws white.
	Color [4]float32

	Layout LayoutOptions

	// Pipeline selects the render pipeline in the batch key.
	Pipeline uint32
}

// Drawer lays out Labels and emits one sprite.Quad per visible glyph,
// keyed by the glyph's atlas page.
//
// Glyphs are rasterized in Prepare, in label order, before any Draw runs.
// Draw only looks glyphs up, so glyph placement in the atlas does not
// depend on how drawer tasks are scheduled.
type Drawer struct {
	Shaper *Shaper
	Glyphs *GlyphAtlas

	// Localize optionally resolves Label.Key.
	Localize func(key string) (string, error)
}

var (
	_ batch.Drawer[Label, batch.DrawKey] = Drawer{}
	_ batch.Preparer[Label]              = Drawer{}
)

// text returns the string to display for l.
func (d Drawer) text(l *Label) string {
	if l.Key == "" || d.Localize == nil {
		return l.Text
	}
	s, err := d.Localize(l.Key)
	if err != nil {
		hephae.Logger().Debug("text: localization failed", "key", l.Key, "err", err)
		return l.Text
	}
	return s
}

// Prepare implements batch.Preparer. It rasterizes every glyph the labels
// need that is not in the glyph atlas yet.
func (d Drawer) Prepare(labels []Label) {
	for i := range labels {
		l := &labels[i]
		if l.Font == nil || l.Size <= 0 {
			continue
		}
		str := d.text(l)
		if str == "" {
			continue
		}
		for _, pg := range d.Shaper.Layout(str, l.Font, l.Size, l.Layout).Glyphs {
			if _, err := d.Glyphs.Glyph(l.Font, pg.ID, l.Size); err != nil {
				hephae.Logger().Warn("text: glyph skipped", "glyph", pg.ID, "err", err)
			}
		}
	}
}

// Draw implements batch.Drawer. Glyphs missing from the atlas, because
// Prepare was not called or failed for them, are skipped.
func (d Drawer) Draw(l Label, q batch.Queue[batch.DrawKey]) {
	if l.Font == nil || l.Size <= 0 {
		return
	}
	str := d.text(&l)
	if str == "" {
		return
	}

	color := l.Color
	if color == ([4]float32{}) {
		color = sprite.White
	}

	layout := d.Shaper.Layout(str, l.Font, l.Size, l.Layout)
	for _, pg := range layout.Glyphs {
		gs, ok := d.Glyphs.Lookup(l.Font, pg.ID, l.Size)
		if !ok || gs.Empty {
			continue
		}
		x := l.X + pg.X + gs.OffsetX
		y := l.Y + pg.Y + gs.OffsetY
		q.Push(batch.DrawKey{Z: l.Z, Pipeline: l.Pipeline, BindGroup: uint32(gs.Page)}, //nolint:gosec // page count is small
			sprite.NewQuad(x, y, float32(gs.Region.Width), float32(gs.Region.Height), gs.UV, color))
	}
}

// NewPipeline creates a batch pipeline drawing Labels with d.
func NewPipeline(d Drawer, cfg batch.PipelineConfig) (*batch.Pipeline[Label, batch.DrawKey], error) {
	return batch.NewPipeline[Label, batch.DrawKey](d, batch.DrawKeyOrder{}, sprite.Layout(), cfg)
}
