package text

import "strings"

// Wrap selects how lines break when they exceed the maximum width.
type Wrap uint8

const (
	// WrapNone never breaks lines except at newlines.
	WrapNone Wrap = iota
	// WrapGlyph breaks between any two glyphs.
	WrapGlyph
	// WrapWord breaks after spaces only; long words overflow.
	WrapWord
	// WrapWordOrGlyph breaks after spaces, or between glyphs when a word
	// does not fit on a line by itself.
	WrapWordOrGlyph
)

// Align selects the horizontal placement of each line.
type Align uint8

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
	// AlignJustified stretches spaces so that wrapped lines fill the width.
	// The last line of a paragraph is left-aligned.
	AlignJustified
	// AlignEnd is AlignRight for left-to-right text.
	AlignEnd
)

// DefaultLineHeight is the line advance relative to the font size.
const DefaultLineHeight = 1.2

// LayoutOptions configure Layout.
type LayoutOptions struct {
	// MaxWidth is the box width. Zero means unbounded.
	MaxWidth float32
	Wrap     Wrap
	Align    Align

	// LineHeight is the line advance relative to the size. Zero uses
	// DefaultLineHeight.
	LineHeight float32
}

// PlacedGlyph is a glyph with its pen position relative to the top-left
// corner of the layout box. Y is the baseline.
type PlacedGlyph struct {
	ID   GlyphID
	X, Y float32
	Line int
}

// Layout is the result of laying out a string.
type Layout struct {
	Glyphs []PlacedGlyph
	Width  float32
	Height float32
	Lines  int
}

type line struct {
	glyphs []Glyph
	width  float32
	last   bool
}

// Layout shapes str and arranges it into lines. Newlines always break.
func (s *Shaper) Layout(str string, f *Font, size float32, opts LayoutOptions) Layout {
	if f == nil || size <= 0 {
		return Layout{}
	}
	lh := opts.LineHeight
	if lh <= 0 {
		lh = DefaultLineHeight
	}
	advance := size * lh
	ascent := f.Metrics(size).Ascent

	var lines []line
	for _, para := range strings.Split(str, "\n") {
		lines = breakLines(lines, s.Shape(para, f, size), opts)
	}

	box := opts.MaxWidth
	if box <= 0 {
		for _, l := range lines {
			box = max(box, l.width)
		}
	}

	out := Layout{Lines: len(lines), Height: float32(len(lines)) * advance}
	for i, l := range lines {
		x, gap := alignLine(l, box, opts.Align)
		y := ascent + float32(i)*advance
		for _, g := range l.glyphs {
			out.Glyphs = append(out.Glyphs, PlacedGlyph{ID: g.ID, X: x + g.XOffset, Y: y - g.YOffset, Line: i})
			x += g.Advance
			if g.Space {
				x += gap
			}
		}
		out.Width = max(out.Width, l.width)
	}
	if opts.MaxWidth > 0 {
		out.Width = opts.MaxWidth
	}
	return out
}

// breakLines appends the lines of one paragraph to dst.
func breakLines(dst []line, glyphs []Glyph, opts LayoutOptions) []line {
	if opts.Wrap == WrapNone || opts.MaxWidth <= 0 {
		return append(dst, newLine(glyphs, true))
	}

	start := 0
	lastBreak := -1
	var x float32
	for i := 0; i < len(glyphs); i++ {
		g := glyphs[i]
		if x+g.Advance > opts.MaxWidth && i > start && !g.Space {
			brk := -1
			switch opts.Wrap {
			case WrapGlyph:
				brk = i
			case WrapWord:
				brk = lastBreak
			case WrapWordOrGlyph:
				brk = lastBreak
				if brk <= start {
					brk = i
				}
			}
			if brk > start {
				dst = append(dst, newLine(glyphs[start:brk], false))
				start = brk
				lastBreak = -1
				x = 0
				for _, pg := range glyphs[start:i] {
					x += pg.Advance
				}
			}
		}
		x += g.Advance
		if g.Space {
			lastBreak = i + 1
		}
	}
	return append(dst, newLine(glyphs[start:], true))
}

// newLine measures glyphs, ignoring trailing spaces.
func newLine(glyphs []Glyph, last bool) line {
	end := len(glyphs)
	for end > 0 && glyphs[end-1].Space {
		end--
	}
	var w float32
	for _, g := range glyphs[:end] {
		w += g.Advance
	}
	return line{glyphs: glyphs, width: w, last: last}
}

// alignLine returns the starting x and the extra space added after every
// inner space glyph.
func alignLine(l line, box float32, align Align) (x, gap float32) {
	free := box - l.width
	if free <= 0 {
		return 0, 0
	}
	switch align {
	case AlignRight, AlignEnd:
		return free, 0
	case AlignCenter:
		return free / 2, 0
	case AlignJustified:
		if l.last {
			return 0, 0
		}
		end := len(l.glyphs)
		for end > 0 && l.glyphs[end-1].Space {
			end--
		}
		spaces := 0
		for _, g := range l.glyphs[:end] {
			if g.Space {
				spaces++
			}
		}
		if spaces == 0 {
			return 0, 0
		}
		return 0, free / float32(spaces)
	default:
		return 0, 0
	}
}
