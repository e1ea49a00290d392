package text

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"math"
	"sync"

	"github.com/GglLfr/hephae"
	"github.com/GglLfr/hephae/atlas"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/vector"
)

// GlyphAtlasConfig configures a GlyphAtlas.
type GlyphAtlasConfig struct {
	// Atlas configures the underlying pages.
	Atlas atlas.Config

	// Antialias keeps partial coverage. When false, coverage is
	// thresholded at one half.
	Antialias bool
}

// DefaultGlyphAtlasConfig returns 512x512 pages with a one pixel gap and
// antialiasing enabled.
func DefaultGlyphAtlasConfig() GlyphAtlasConfig {
	return GlyphAtlasConfig{
		Atlas:     atlas.Config{PageSize: 512, Padding: 1, MaxPages: 16},
		Antialias: true,
	}
}

// GlyphSprite locates a rasterized glyph.
type GlyphSprite struct {
	atlas.Sprite

	// OffsetX and OffsetY move the pen position on the baseline to the
	// top-left corner of the glyph image.
	OffsetX, OffsetY float32

	// Empty is set for glyphs without pixels, such as spaces.
	Empty bool
}

type glyphKey struct {
	font uint64
	id   GlyphID
	size float32
}

// GlyphAtlas rasterizes glyphs on first use and packs them into atlas
// pages. Glyphs stay in the atlas until Reset.
type GlyphAtlas struct {
	cfg   GlyphAtlasConfig
	atlas *atlas.Atlas

	mu     sync.RWMutex
	glyphs map[glyphKey]GlyphSprite
}

// NewGlyphAtlas creates an empty glyph atlas.
func NewGlyphAtlas(cfg GlyphAtlasConfig) (*GlyphAtlas, error) {
	a, err := atlas.New(cfg.Atlas)
	if err != nil {
		return nil, err
	}
	return &GlyphAtlas{cfg: cfg, atlas: a, glyphs: make(map[glyphKey]GlyphSprite)}, nil
}

// Atlas returns the underlying page atlas, for uploading pages.
func (g *GlyphAtlas) Atlas() *atlas.Atlas { return g.atlas }

// Len returns the number of cached glyphs, including empty ones.
func (g *GlyphAtlas) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.glyphs)
}

// Lookup returns the sprite of an already rasterized glyph. It only takes a
// read lock and never modifies the atlas, so it is safe from parallel
// drawers.
func (g *GlyphAtlas) Lookup(f *Font, id GlyphID, size float32) (GlyphSprite, bool) {
	g.mu.RLock()
	s, ok := g.glyphs[glyphKey{font: f.id, id: id, size: size}]
	g.mu.RUnlock()
	return s, ok
}

// Glyph returns the sprite of glyph id of f at size, rasterizing it on the
// first request. Rasterizing packs the glyph into the next free atlas slot,
// so callers that need a reproducible layout must request glyphs in a fixed
// order from one goroutine.
func (g *GlyphAtlas) Glyph(f *Font, id GlyphID, size float32) (GlyphSprite, error) {
	key := glyphKey{font: f.id, id: id, size: size}
	g.mu.RLock()
	s, ok := g.glyphs[key]
	g.mu.RUnlock()
	if ok {
		return s, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if s, ok := g.glyphs[key]; ok {
		return s, nil
	}
	s, err := g.rasterize(f, id, size)
	if err != nil {
		return GlyphSprite{}, fmt.Errorf("glyph %d of font %d at %g: %w", id, f.id, size, err)
	}
	g.glyphs[key] = s
	return s, nil
}

func (g *GlyphAtlas) rasterize(f *Font, id GlyphID, size float32) (GlyphSprite, error) {
	segs, err := f.loadGlyph(id, size)
	if err != nil {
		if errors.Is(err, sfnt.ErrColoredGlyph) {
			return GlyphSprite{}, ErrNoOutline
		}
		return GlyphSprite{}, err
	}
	if len(segs) == 0 {
		return GlyphSprite{Empty: true}, nil
	}

	b := segs.Bounds()
	minX := int(math.Floor(float64(fromFixed(b.Min.X))))
	minY := int(math.Floor(float64(fromFixed(b.Min.Y))))
	maxX := int(math.Ceil(float64(fromFixed(b.Max.X))))
	maxY := int(math.Ceil(float64(fromFixed(b.Max.Y))))
	w, h := maxX-minX, maxY-minY
	if w <= 0 || h <= 0 {
		return GlyphSprite{Empty: true}, nil
	}

	mask := rasterizeOutline(segs, minX, minY, w, h)
	img := image.NewRGBA(mask.Rect)
	for i, a := range mask.Pix {
		if !g.cfg.Antialias {
			if a > 127 {
				a = 255
			} else {
				a = 0
			}
		}
		// Premultiplied white.
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0], px[1], px[2], px[3] = a, a, a, a
	}

	sprite, err := g.atlas.Insert(img)
	if err != nil {
		return GlyphSprite{}, err
	}
	hephae.Logger().Debug("text: glyph rasterized", "font", f.id, "glyph", id, "size", size, "page", sprite.Page)
	return GlyphSprite{Sprite: sprite, OffsetX: float32(minX), OffsetY: float32(minY)}, nil
}

// rasterizeOutline fills segs, translated by (-minX, -minY), into a w x h
// coverage mask.
func rasterizeOutline(segs sfnt.Segments, minX, minY, w, h int) *image.Alpha {
	ox, oy := float32(minX), float32(minY)
	pt := func(i int, s sfnt.Segment) (float32, float32) {
		return fromFixed(s.Args[i].X) - ox, fromFixed(s.Args[i].Y) - oy
	}

	r := vector.NewRasterizer(w, h)
	r.DrawOp = draw.Src
	open := false
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				r.ClosePath()
			}
			r.MoveTo(pt(0, s))
			open = true
		case sfnt.SegmentOpLineTo:
			r.LineTo(pt(0, s))
		case sfnt.SegmentOpQuadTo:
			bx, by := pt(0, s)
			cx, cy := pt(1, s)
			r.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := pt(0, s)
			cx, cy := pt(1, s)
			dx, dy := pt(2, s)
			r.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		r.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// Reset drops every glyph and clears the pages.
func (g *GlyphAtlas) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.glyphs)
	g.atlas.Reset()
}
