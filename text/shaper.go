package text

import (
	"sync"
	"unicode"

	"github.com/GglLfr/hephae/internal/cache"
	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
)

// GlyphID identifies a glyph inside a font.
type GlyphID uint16

// Glyph is one shaped glyph. Offsets and advances are in pixels.
type Glyph struct {
	ID      GlyphID
	XOffset float32
	YOffset float32
	Advance float32
	Cluster int
	Space   bool
}

type runKey struct {
	font uint64
	size float32
	text string
}

// Shaper turns strings into glyph runs and caches the results.
//
// HarfbuzzShaper is not safe for concurrent use, so shapers are pooled;
// gtfont.Face is created per call from the shared read-only Font.
type Shaper struct {
	pool sync.Pool
	runs *cache.Sharded[runKey, []Glyph]
}

// NewShaper creates a shaper caching up to capacity runs per cache shard.
// A capacity <= 0 uses the cache default.
func NewShaper(capacity int) *Shaper {
	return &Shaper{
		pool: sync.Pool{New: func() any { return &shaping.HarfbuzzShaper{} }},
		runs: cache.New[runKey, []Glyph](capacity),
	}
}

// Shape shapes a single line of left-to-right text. The returned slice is
// shared with the cache and must not be modified.
func (s *Shaper) Shape(str string, f *Font, size float32) []Glyph {
	if str == "" || f == nil || size <= 0 {
		return nil
	}
	return s.runs.GetOrCreate(runKey{font: f.id, size: size, text: str}, func() []Glyph {
		return s.shape(str, f, size)
	})
}

func (s *Shaper) shape(str string, f *Font, size float32) []Glyph {
	runes := []rune(str)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(f.shaping),
		Size:      toFixed(size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.pool.Put(hb)

	glyphs := make([]Glyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		cluster := g.TextIndex()
		glyphs[i] = Glyph{
			ID:      GlyphID(g.GlyphID), //nolint:gosec // TrueType glyph ids are 16-bit
			XOffset: fromFixed(g.XOffset),
			YOffset: fromFixed(g.YOffset),
			Advance: fromFixed(g.Advance),
			Cluster: cluster,
			Space:   cluster < len(runes) && unicode.IsSpace(runes[cluster]),
		}
	}
	return glyphs
}

// CacheStats reports how well the Shaper's run cache is doing.
type CacheStats struct {
	// Len is the number of cached runs and Capacity the limit.
	Len, Capacity int

	Hits, Misses, Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 with no lookups.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Stats returns the run cache statistics.
func (s *Shaper) Stats() CacheStats {
	st := s.runs.Stats()
	return CacheStats{
		Len:       st.Len,
		Capacity:  st.Capacity,
		Hits:      st.Hits,
		Misses:    st.Misses,
		Evictions: st.Evictions,
	}
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
