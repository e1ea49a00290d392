package render

import (
	"fmt"
	"image"
	"maps"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// PageSource is a set of RGBA pages that tracks which ones changed.
// *atlas.Atlas implements it.
//
// TakeDirty returns the changed page indices with a snapshot of each page
// and clears their dirty flags in one step.
type PageSource interface {
	TakeDirty() ([]int, []*image.RGBA)
}

// AtlasTextures mirrors the pages of a PageSource into GPU textures.
type AtlasTextures struct {
	device hal.Device
	queue  hal.Queue
	label  string

	textures []hal.Texture
	views    []hal.TextureView

	// pending holds snapshots taken from the source that failed to upload.
	pending map[int]*image.RGBA
}

// NewAtlasTextures creates an empty texture set on device.
func NewAtlasTextures(device hal.Device, queue hal.Queue, label string) *AtlasTextures {
	return &AtlasTextures{device: device, queue: queue, label: label}
}

// Sync creates textures for new pages and uploads every page changed since
// the previous Sync. It returns the number of pages uploaded. Pages that
// fail to upload are retried on the next Sync.
//
// Sync may run while other goroutines insert into the source; an insert
// that lands after the snapshot is uploaded next time.
func (t *AtlasTextures) Sync(src PageSource) (int, error) {
	dirty, snaps := src.TakeDirty()
	if t.pending == nil {
		t.pending = make(map[int]*image.RGBA)
	}
	for i, idx := range dirty {
		t.pending[idx] = snaps[i]
	}

	order := slices.Sorted(maps.Keys(t.pending))
	uploaded := 0
	for _, idx := range order {
		if err := t.upload(idx, t.pending[idx]); err != nil {
			return uploaded, err
		}
		delete(t.pending, idx)
		uploaded++
	}
	return uploaded, nil
}

func (t *AtlasTextures) upload(idx int, page *image.RGBA) error {
	for len(t.textures) <= idx {
		t.textures = append(t.textures, nil)
		t.views = append(t.views, nil)
	}

	w := uint32(page.Rect.Dx()) //nolint:gosec // page size fits uint32
	h := uint32(page.Rect.Dy()) //nolint:gosec // page size fits uint32
	if t.textures[idx] == nil {
		tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
			Label:         fmt.Sprintf("%s_page_%d", t.label, idx),
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create page texture %d: %w", idx, err)
		}
		t.textures[idx] = tex

		view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         fmt.Sprintf("%s_page_%d_view", t.label, idx),
			Format:        gputypes.TextureFormatRGBA8Unorm,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			return fmt.Errorf("create page texture view %d: %w", idx, err)
		}
		t.views[idx] = view
	}

	t.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.textures[idx], MipLevel: 0},
		page.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(page.Stride), //nolint:gosec // stride fits uint32
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
	return nil
}

// View returns the texture view of page i, or nil if it was never synced.
func (t *AtlasTextures) View(i int) hal.TextureView {
	if i < 0 || i >= len(t.views) {
		return nil
	}
	return t.views[i]
}

// Len returns the number of texture slots.
func (t *AtlasTextures) Len() int { return len(t.textures) }

// Destroy releases all textures and views.
func (t *AtlasTextures) Destroy() {
	for _, v := range t.views {
		if v != nil {
			t.device.DestroyTextureView(v)
		}
	}
	for _, tex := range t.textures {
		if tex != nil {
			t.device.DestroyTexture(tex)
		}
	}
	t.views = nil
	t.textures = nil
	t.pending = nil
}
