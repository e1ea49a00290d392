// Package atlas packs images into fixed-size RGBA pages for batched
// sprite drawing.
//
// Every page is one texture on the GPU; sprites on the same page share a
// bind group and therefore merge into the same batch. Pages are filled in
// order and a new page opens when none has room, up to Config.MaxPages.
// Pages changed since the last upload are handed out by TakeDirty.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"

	"github.com/GglLfr/hephae"
	xdraw "golang.org/x/image/draw"
)

var (
	// ErrAtlasFull is returned when no page has room and MaxPages is reached.
	ErrAtlasFull = errors.New("atlas: full")

	// ErrSpriteTooLarge is returned when an image cannot fit on an empty page.
	ErrSpriteTooLarge = errors.New("atlas: sprite larger than page")

	// ErrEmptySprite is returned for images with no pixels.
	ErrEmptySprite = errors.New("atlas: empty sprite")

	// ErrDuplicateSprite is returned when a name is added twice.
	ErrDuplicateSprite = errors.New("atlas: duplicate sprite")

	// ErrSpriteNotFound is returned by Get for unknown names.
	ErrSpriteNotFound = errors.New("atlas: sprite not found")
)

// Default atlas settings.
const (
	DefaultPageSize = 2048
	DefaultPadding  = 1
	DefaultMaxPages = 8

	// MinPageSize is the smallest accepted page size.
	MinPageSize = 16
)

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("atlas: invalid config %s: %s", e.Field, e.Reason)
}

// Config configures an Atlas.
type Config struct {
	// PageSize is the width and height of every page in pixels.
	PageSize int

	// Padding is the gap left after every sprite.
	Padding int

	// MaxPages limits the number of pages.
	MaxPages int
}

// DefaultConfig returns the default atlas configuration.
func DefaultConfig() Config {
	return Config{PageSize: DefaultPageSize, Padding: DefaultPadding, MaxPages: DefaultMaxPages}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.PageSize < MinPageSize {
		return &ConfigError{Field: "PageSize", Reason: fmt.Sprintf("must be >= %d", MinPageSize)}
	}
	if c.Padding < 0 || c.Padding >= c.PageSize {
		return &ConfigError{Field: "Padding", Reason: "must be in [0, PageSize)"}
	}
	if c.MaxPages < 1 {
		return &ConfigError{Field: "MaxPages", Reason: "must be >= 1"}
	}
	return nil
}

// Sprite locates an image inside the atlas.
type Sprite struct {
	// Page is the page index, used as the batch bind group.
	Page int

	// Region is the pixel rectangle on the page.
	Region Region

	// UV holds normalized texture coordinates u0, v0, u1, v1.
	UV [4]float32

	// NineSlice is set for sprites added with AddNineSlice.
	NineSlice *NineSliceCuts
}

type page struct {
	img    *image.RGBA
	packer *Packer
	dirty  bool
}

// Atlas is a set of pages holding named and anonymous sprites.
//
// Atlas is safe for concurrent use. Lookups take a read lock and may run
// from parallel drawers while another goroutine adds sprites.
type Atlas struct {
	mu      sync.RWMutex
	cfg     Config
	pages   []*page
	sprites map[string]Sprite
}

// New creates an empty atlas.
func New(cfg Config) (*Atlas, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Atlas{cfg: cfg, sprites: make(map[string]Sprite)}, nil
}

// Config returns the atlas configuration.
func (a *Atlas) Config() Config { return a.cfg }

// Add packs img under name.
func (a *Atlas) Add(name string, img image.Image) (Sprite, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.sprites[name]; ok {
		return Sprite{}, fmt.Errorf("%w: %q", ErrDuplicateSprite, name)
	}
	s, err := a.insertLocked(img)
	if err != nil {
		return Sprite{}, fmt.Errorf("add %q: %w", name, err)
	}
	a.sprites[name] = s
	return s, nil
}

// Insert packs img without a name. Callers keep the returned Sprite.
func (a *Atlas) Insert(img image.Image) (Sprite, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.insertLocked(img)
}

func (a *Atlas) insertLocked(img image.Image) (Sprite, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return Sprite{}, ErrEmptySprite
	}
	if w+a.cfg.Padding > a.cfg.PageSize || h+a.cfg.Padding > a.cfg.PageSize {
		return Sprite{}, fmt.Errorf("%w: %dx%d on %d page", ErrSpriteTooLarge, w, h, a.cfg.PageSize)
	}

	for i, p := range a.pages {
		if r, ok := p.packer.Allocate(w, h); ok {
			return a.blit(i, r, img), nil
		}
	}
	if len(a.pages) >= a.cfg.MaxPages {
		return Sprite{}, fmt.Errorf("%w: %d pages", ErrAtlasFull, len(a.pages))
	}

	p := &page{
		img:    image.NewRGBA(image.Rect(0, 0, a.cfg.PageSize, a.cfg.PageSize)),
		packer: NewPacker(a.cfg.PageSize, a.cfg.PageSize, a.cfg.Padding),
	}
	a.pages = append(a.pages, p)
	hephae.Logger().Info("atlas: page opened", "page", len(a.pages)-1, "size", a.cfg.PageSize)

	r, _ := p.packer.Allocate(w, h)
	return a.blit(len(a.pages)-1, r, img), nil
}

func (a *Atlas) blit(i int, r Region, img image.Image) Sprite {
	p := a.pages[i]
	xdraw.Copy(p.img, image.Pt(r.X, r.Y), img, img.Bounds(), xdraw.Src, nil)
	p.dirty = true

	size := float32(a.cfg.PageSize)
	return Sprite{
		Page:   i,
		Region: r,
		UV: [4]float32{
			float32(r.X) / size,
			float32(r.Y) / size,
			float32(r.X+r.Width) / size,
			float32(r.Y+r.Height) / size,
		},
	}
}

// Lookup returns the sprite added under name.
func (a *Atlas) Lookup(name string) (Sprite, bool) {
	a.mu.RLock()
	s, ok := a.sprites[name]
	a.mu.RUnlock()
	return s, ok
}

// Get is Lookup returning ErrSpriteNotFound for unknown names.
func (a *Atlas) Get(name string) (Sprite, error) {
	s, ok := a.Lookup(name)
	if !ok {
		return Sprite{}, fmt.Errorf("%w: %q", ErrSpriteNotFound, name)
	}
	return s, nil
}

// Len returns the number of named sprites.
func (a *Atlas) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.sprites)
}

// PageCount returns the number of open pages.
func (a *Atlas) PageCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.pages)
}

// Page returns the pixels of page i, or nil if it does not exist. The image
// must not be modified and must not be read while sprites are being added.
func (a *Atlas) Page(i int) *image.RGBA {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.pages) {
		return nil
	}
	return a.pages[i].img
}

// DirtyPages returns the indices of pages changed since TakeDirty, in
// ascending order.
func (a *Atlas) DirtyPages() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []int
	for i, p := range a.pages {
		if p.dirty {
			out = append(out, i)
		}
	}
	return out
}

// TakeDirty clears every dirty flag and returns the indices of those pages
// in ascending order, with a copy of each page's pixels. Flags and copies
// are taken under one lock, so an Insert racing with an upload marks its
// page dirty again instead of being lost.
func (a *Atlas) TakeDirty() ([]int, []*image.RGBA) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var (
		idx  []int
		imgs []*image.RGBA
	)
	for i, p := range a.pages {
		if !p.dirty {
			continue
		}
		p.dirty = false
		img := &image.RGBA{
			Pix:    slices.Clone(p.img.Pix),
			Stride: p.img.Stride,
			Rect:   p.img.Rect,
		}
		idx = append(idx, i)
		imgs = append(imgs, img)
	}
	return idx, imgs
}

// Utilization returns the allocated fraction of each page.
func (a *Atlas) Utilization() []float64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]float64, len(a.pages))
	for i, p := range a.pages {
		out[i] = p.packer.Utilization()
	}
	return out
}

// Names returns the sorted names of all named sprites.
func (a *Atlas) Names() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.sprites))
	for n := range a.sprites {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Reset removes every sprite and clears all pages. Pages stay allocated and
// are marked dirty.
func (a *Atlas) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.sprites)
	for _, p := range a.pages {
		clear(p.img.Pix)
		p.packer.Reset()
		p.dirty = true
	}
}
