package atlas

import (
	"errors"
	"fmt"
	"image"
)

// ErrInvalidNineSlice is returned for cuts outside the sprite or out of
// order, and for nine-patch images without markers.
var ErrInvalidNineSlice = errors.New("atlas: invalid nine-slice")

// NineSliceCuts splits a sprite into nine patches. Cuts are sprite-local
// pixel positions: columns x < Left form the left edge, Left <= x < Right
// the stretched center and x >= Right the right edge. Top and Bottom split
// rows the same way.
type NineSliceCuts struct {
	Left, Right int
	Top, Bottom int
}

// Validate checks the cuts against a sprite of w x h pixels.
func (c NineSliceCuts) Validate(w, h int) error {
	if c.Left < 0 || c.Left > c.Right || c.Right > w {
		return fmt.Errorf("%w: columns %d..%d of %d", ErrInvalidNineSlice, c.Left, c.Right, w)
	}
	if c.Top < 0 || c.Top > c.Bottom || c.Bottom > h {
		return fmt.Errorf("%w: rows %d..%d of %d", ErrInvalidNineSlice, c.Top, c.Bottom, h)
	}
	return nil
}

// AddNineSlice packs img under name and attaches cuts to it, so drawers can
// stretch the center while keeping the edges at their native size.
func (a *Atlas) AddNineSlice(name string, img image.Image, cuts NineSliceCuts) (Sprite, error) {
	b := img.Bounds()
	if err := cuts.Validate(b.Dx(), b.Dy()); err != nil {
		return Sprite{}, fmt.Errorf("add %q: %w", name, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sprites[name]; ok {
		return Sprite{}, fmt.Errorf("%w: %q", ErrDuplicateSprite, name)
	}
	s, err := a.insertLocked(img)
	if err != nil {
		return Sprite{}, fmt.Errorf("add %q: %w", name, err)
	}
	s.NineSlice = &cuts
	a.sprites[name] = s
	return s, nil
}

// AddNinePatch packs a nine-patch image: the top row and left column are a
// one pixel marker border whose opaque run marks the stretched center, and
// the rest is the sprite itself.
func (a *Atlas) AddNinePatch(name string, img image.Image) (Sprite, error) {
	inner, cuts, err := ParseNinePatch(img)
	if err != nil {
		return Sprite{}, fmt.Errorf("add %q: %w", name, err)
	}
	return a.AddNineSlice(name, inner, cuts)
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// ParseNinePatch strips the marker border from a nine-patch image and
// returns the sprite image with its cuts. A marker pixel counts as set when
// its alpha is at least one half.
func ParseNinePatch(img image.Image) (image.Image, NineSliceCuts, error) {
	b := img.Bounds()
	inner := image.Rect(b.Min.X+1, b.Min.Y+1, b.Max.X, b.Max.Y)
	if inner.Empty() {
		return nil, NineSliceCuts{}, ErrEmptySprite
	}
	sub, ok := img.(subImager)
	if !ok {
		return nil, NineSliceCuts{}, fmt.Errorf("%w: %T cannot be cropped", ErrInvalidNineSlice, img)
	}

	set := func(x, y int) bool {
		_, _, _, alpha := img.At(x, y).RGBA()
		return alpha >= 0x8000
	}
	left, right, okX := markerRun(inner.Dx(), func(i int) bool { return set(inner.Min.X+i, b.Min.Y) })
	top, bottom, okY := markerRun(inner.Dy(), func(i int) bool { return set(b.Min.X, inner.Min.Y+i) })
	if !okX || !okY {
		return nil, NineSliceCuts{}, fmt.Errorf("%w: missing border markers", ErrInvalidNineSlice)
	}
	return sub.SubImage(inner), NineSliceCuts{Left: left, Right: right, Top: top, Bottom: bottom}, nil
}

// markerRun returns the first run of set pixels in [0, n) as a half-open
// range.
func markerRun(n int, set func(i int) bool) (int, int, bool) {
	start := -1
	for i := range n {
		switch {
		case start < 0 && set(i):
			start = i
		case start >= 0 && !set(i):
			return start, i, true
		}
	}
	if start < 0 {
		return 0, 0, false
	}
	return start, n, true
}
