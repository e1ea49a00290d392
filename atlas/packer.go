package atlas

import (
	"fmt"
	"image"
)

// Region is a rectangle inside an atlas page.
type Region struct {
	X, Y          int
	Width, Height int
}

// IsValid reports whether the region has a positive size.
func (r Region) IsValid() bool { return r.Width > 0 && r.Height > 0 }

// Rect returns the region as an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// shelf is one horizontal row of the packer.
type shelf struct {
	y      int
	height int
	nextX  int
}

// Packer places rectangles on horizontal shelves inside a fixed area.
//
// A rectangle goes on the first shelf with horizontal room that is at least
// as tall as the rectangle; otherwise a new shelf as tall as the rectangle
// opens below the last one. Packer is not
// safe for concurrent use.
type Packer struct {
	width, height int
	padding       int
	shelves       []shelf

	count int
	used  int
}

// NewPacker creates a packer for a width x height area, leaving padding
// pixels after every rectangle.
func NewPacker(width, height, padding int) *Packer {
	return &Packer{width: width, height: height, padding: max(padding, 0)}
}

// Allocate reserves a width x height rectangle and reports whether it fit.
func (p *Packer) Allocate(width, height int) (Region, bool) {
	if width <= 0 || height <= 0 {
		return Region{}, false
	}
	pw, ph := width+p.padding, height+p.padding
	if pw > p.width || ph > p.height {
		return Region{}, false
	}

	for i := range p.shelves {
		s := &p.shelves[i]
		if s.nextX+pw > p.width || ph > s.height {
			continue
		}
		return p.place(s, width, height, pw), true
	}

	y := 0
	if n := len(p.shelves); n > 0 {
		last := p.shelves[n-1]
		y = last.y + last.height
	}
	if y+ph > p.height {
		return Region{}, false
	}
	p.shelves = append(p.shelves, shelf{y: y, height: ph})
	return p.place(&p.shelves[len(p.shelves)-1], width, height, pw), true
}

func (p *Packer) place(s *shelf, width, height, pw int) Region {
	r := Region{X: s.nextX, Y: s.y, Width: width, Height: height}
	s.nextX += pw
	p.count++
	p.used += width * height
	return r
}

// Reset frees the whole area.
func (p *Packer) Reset() {
	p.shelves = p.shelves[:0]
	p.count = 0
	p.used = 0
}

// Count returns the number of allocated rectangles.
func (p *Packer) Count() int { return p.count }

// Utilization returns the allocated fraction of the area.
func (p *Packer) Utilization() float64 {
	total := p.width * p.height
	if total == 0 {
		return 0
	}
	return float64(p.used) / float64(total)
}
