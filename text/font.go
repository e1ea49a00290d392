package text

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"

	gtfont "github.com/go-text/typesetting/font"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var nextFontID atomic.Uint64

// Metrics are vertical font metrics in pixels at a given size.
type Metrics struct {
	Ascent  float32
	Descent float32
	Height  float32
}

// Font is a parsed TrueType/OpenType font.
//
// The data is parsed twice: by go-text for shaping and by sfnt for
// outlines. Both parsed forms are read-only and safe for concurrent use.
type Font struct {
	id   uint64
	name string

	shaping *gtfont.Font
	outline *sfnt.Font

	buffers sync.Pool
}

// ParseFont parses TTF or OTF data. The data must not be modified
// afterwards.
func ParseFont(data []byte) (*Font, error) {
	face, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}
	outline, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFont, err)
	}

	f := &Font{
		id:      nextFontID.Add(1),
		shaping: face.Font,
		outline: outline,
	}
	f.buffers.New = func() any { return new(sfnt.Buffer) }
	if name, err := outline.Name(nil, sfnt.NameIDFamily); err == nil {
		f.name = name
	}
	return f, nil
}

// ID returns a process-unique font id.
func (f *Font) ID() uint64 { return f.id }

// Name returns the font family name, if the font has one.
func (f *Font) Name() string { return f.name }

// Metrics returns the font metrics at size pixels per em.
func (f *Font) Metrics(size float32) Metrics {
	buf := f.buffers.Get().(*sfnt.Buffer)
	defer f.buffers.Put(buf)
	m, err := f.outline.Metrics(buf, toFixed(size), xfont.HintingNone)
	if err != nil {
		return Metrics{Ascent: size, Height: size}
	}
	return Metrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
		Height:  fromFixed(m.Height),
	}
}

// loadGlyph returns the outline of gid at size, in pixels with y down and
// the pen origin on the baseline.
func (f *Font) loadGlyph(gid GlyphID, size float32) (sfnt.Segments, error) {
	buf := f.buffers.Get().(*sfnt.Buffer)
	defer f.buffers.Put(buf)
	segs, err := f.outline.LoadGlyph(buf, sfnt.GlyphIndex(gid), toFixed(size), nil)
	if err != nil {
		return nil, err
	}
	// The buffer owns segs; copy before it goes back to the pool.
	return append(sfnt.Segments(nil), segs...), nil
}

func toFixed(v float32) fixed.Int26_6 { return fixed.Int26_6(v * 64) }

func fromFixed(v fixed.Int26_6) float32 { return float32(v) / 64 }
