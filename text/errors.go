package text

import "errors"

var (
	// ErrInvalidFont is returned when font data cannot be parsed.
	ErrInvalidFont = errors.New("text: invalid font")

	// ErrNoOutline is returned for glyphs without a vector outline, such as
	// bitmap or color glyphs.
	ErrNoOutline = errors.New("text: glyph has no outline")
)
