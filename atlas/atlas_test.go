package atlas

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func smallConfig() Config {
	return Config{PageSize: 64, Padding: 0, MaxPages: 2}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"default", DefaultConfig(), ""},
		{"tiny page", Config{PageSize: 8, MaxPages: 1}, "PageSize"},
		{"negative padding", Config{PageSize: 64, Padding: -1, MaxPages: 1}, "Padding"},
		{"no pages", Config{PageSize: 64}, "MaxPages"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var cerr *ConfigError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}

	_, err := New(Config{})
	require.Error(t, err)
}

func TestAtlasAddAndLookup(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)

	red := color.RGBA{255, 0, 0, 255}
	s, err := a.Add("red", solid(16, 8, red))
	require.NoError(t, err)
	assert.Equal(t, 0, s.Page)
	assert.Equal(t, Region{0, 0, 16, 8}, s.Region)
	assert.Equal(t, [4]float32{0, 0, 0.25, 0.125}, s.UV)

	got, ok := a.Lookup("red")
	require.True(t, ok)
	assert.Equal(t, s, got)
	assert.Equal(t, red, a.Page(0).RGBAAt(15, 7))
	assert.Equal(t, color.RGBA{}, a.Page(0).RGBAAt(16, 0))

	_, err = a.Add("red", solid(1, 1, red))
	require.ErrorIs(t, err, ErrDuplicateSprite)

	_, err = a.Get("blue")
	require.ErrorIs(t, err, ErrSpriteNotFound)
	assert.Equal(t, []string{"red"}, a.Names())
}

func TestAtlasErrors(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)

	_, err = a.Add("big", solid(65, 1, color.RGBA{}))
	require.ErrorIs(t, err, ErrSpriteTooLarge)

	_, err = a.Add("none", image.NewRGBA(image.Rect(0, 0, 0, 5)))
	require.ErrorIs(t, err, ErrEmptySprite)

	assert.Zero(t, a.PageCount())
	assert.Zero(t, a.Len())
}

func TestAtlasOpensPagesUntilFull(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)

	full := solid(64, 64, color.RGBA{0, 0, 255, 255})
	s0, err := a.Insert(full)
	require.NoError(t, err)
	s1, err := a.Insert(full)
	require.NoError(t, err)
	assert.Equal(t, 0, s0.Page)
	assert.Equal(t, 1, s1.Page)
	assert.Equal(t, 2, a.PageCount())

	_, err = a.Insert(solid(1, 1, color.RGBA{}))
	require.ErrorIs(t, err, ErrAtlasFull)
	assert.Equal(t, []float64{1, 1}, a.Utilization())
}

func TestAtlasDirtyTracking(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)
	assert.Empty(t, a.DirtyPages())

	_, err = a.Add("a", solid(4, 4, color.RGBA{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, []int{0}, a.DirtyPages())

	idx, imgs := a.TakeDirty()
	assert.Equal(t, []int{0}, idx)
	require.Len(t, imgs, 1)
	assert.Equal(t, color.RGBA{1, 2, 3, 4}, imgs[0].RGBAAt(0, 0))
	assert.Empty(t, a.DirtyPages())
	idx, imgs = a.TakeDirty()
	assert.Empty(t, idx)
	assert.Empty(t, imgs)

	a.Reset()
	assert.Equal(t, []int{0}, a.DirtyPages())
	assert.Zero(t, a.Len())
	assert.Equal(t, color.RGBA{}, a.Page(0).RGBAAt(0, 0))
	assert.Nil(t, a.Page(3))
}

func TestAtlasConcurrentLookup(t *testing.T) {
	a, err := New(DefaultConfig())
	require.NoError(t, err)
	_, err = a.Add("base", solid(2, 2, color.RGBA{}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := a.Insert(solid(3+i, 3, color.RGBA{}))
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, ok := a.Lookup("base")
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestAtlasTakeDirtyCopiesPages(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)
	_, err = a.Add("a", solid(4, 4, color.RGBA{9, 9, 9, 255}))
	require.NoError(t, err)

	_, imgs := a.TakeDirty()
	require.Len(t, imgs, 1)
	snap := imgs[0]

	// Inserted after the snapshot: the page is dirty again and the copy
	// handed out earlier does not see the new pixels.
	s, err := a.Add("b", solid(4, 4, color.RGBA{200, 0, 0, 255}))
	require.NoError(t, err)
	require.Equal(t, 0, s.Page)
	assert.Equal(t, []int{0}, a.DirtyPages())
	assert.Equal(t, color.RGBA{}, snap.RGBAAt(s.Region.X, s.Region.Y))
	assert.Equal(t, color.RGBA{200, 0, 0, 255}, a.Page(0).RGBAAt(s.Region.X, s.Region.Y))
}

func TestAtlasTakeDirtyConcurrentInsert(t *testing.T) {
	a, err := New(Config{PageSize: 64, Padding: 0, MaxPages: 8})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 64 {
			_, err := a.Insert(solid(4, 4, color.RGBA{255, 255, 255, 255}))
			assert.NoError(t, err)
		}
	}()

	uploaded := map[int]*image.RGBA{}
	for range 32 {
		idx, imgs := a.TakeDirty()
		for i, p := range idx {
			uploaded[p] = imgs[i]
		}
	}
	wg.Wait()
	idx, imgs := a.TakeDirty()
	for i, p := range idx {
		uploaded[p] = imgs[i]
	}

	require.Len(t, uploaded, a.PageCount())
	for i := range a.PageCount() {
		assert.Equal(t, a.Page(i).Pix, uploaded[i].Pix, "page %d", i)
	}
}

func TestAtlasAddNineSlice(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)

	s, err := a.AddNineSlice("panel", solid(8, 6, color.RGBA{1, 1, 1, 255}), NineSliceCuts{Left: 2, Right: 6, Top: 1, Bottom: 5})
	require.NoError(t, err)
	require.NotNil(t, s.NineSlice)
	assert.Equal(t, NineSliceCuts{Left: 2, Right: 6, Top: 1, Bottom: 5}, *s.NineSlice)

	got, ok := a.Lookup("panel")
	require.True(t, ok)
	assert.Equal(t, s, got)

	plain, err := a.Add("plain", solid(2, 2, color.RGBA{}))
	require.NoError(t, err)
	assert.Nil(t, plain.NineSlice)

	_, err = a.AddNineSlice("bad", solid(8, 6, color.RGBA{}), NineSliceCuts{Left: 5, Right: 3, Bottom: 6})
	require.ErrorIs(t, err, ErrInvalidNineSlice)
	_, err = a.AddNineSlice("tall", solid(8, 6, color.RGBA{}), NineSliceCuts{Right: 8, Bottom: 7})
	require.ErrorIs(t, err, ErrInvalidNineSlice)
	_, err = a.AddNineSlice("panel", solid(8, 6, color.RGBA{}), NineSliceCuts{})
	require.ErrorIs(t, err, ErrDuplicateSprite)
	assert.Equal(t, 2, a.Len())
}

func TestAtlasAddNinePatch(t *testing.T) {
	a, err := New(smallConfig())
	require.NoError(t, err)

	// 1px marker border around a 6x4 sprite; center columns 2..4, rows 1..3.
	img := solid(7, 5, color.RGBA{})
	black := color.RGBA{0, 0, 0, 255}
	for x := 3; x < 5; x++ {
		img.SetRGBA(x, 0, black)
	}
	img.SetRGBA(0, 2, black)
	img.SetRGBA(0, 3, black)
	img.SetRGBA(6, 4, color.RGBA{7, 8, 9, 255})

	s, err := a.AddNinePatch("patch", img)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Region.Width)
	assert.Equal(t, 4, s.Region.Height)
	assert.Equal(t, NineSliceCuts{Left: 2, Right: 4, Top: 1, Bottom: 3}, *s.NineSlice)
	assert.Equal(t, color.RGBA{7, 8, 9, 255}, a.Page(s.Page).RGBAAt(s.Region.X+5, s.Region.Y+3))

	_, err = a.AddNinePatch("blank", solid(5, 5, color.RGBA{}))
	require.ErrorIs(t, err, ErrInvalidNineSlice)
	_, _, err = ParseNinePatch(solid(1, 4, color.RGBA{}))
	require.ErrorIs(t, err, ErrEmptySprite)
}
