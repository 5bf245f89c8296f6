package atlas

import (
	"fmt"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// surfaceTexture is the GPU mirror of one surface.
type surfaceTexture struct {
	texture hal.Texture
	view    hal.TextureView
	width   int
	height  int
}

// TextureSet mirrors surfaces into R8 GPU textures, keyed by surface ID.
type TextureSet struct {
	device   hal.Device
	queue    hal.Queue
	textures map[uint32]*surfaceTexture
}

// NewTextureSet creates an empty texture set on the given device.
func NewTextureSet(device hal.Device, queue hal.Queue) (*TextureSet, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &TextureSet{
		device:   device,
		queue:    queue,
		textures: make(map[uint32]*surfaceTexture),
	}, nil
}

// Sync uploads every dirty surface and destroys textures of surfaces that
// are no longer in the live set. Returns the number of uploads.
func (t *TextureSet) Sync(surfaces []*Surface) (int, error) {
	live := make(map[uint32]struct{}, len(surfaces))
	uploaded := 0
	for _, s := range surfaces {
		live[s.id] = struct{}{}
		if !s.dirty {
			continue
		}
		if err := t.upload(s); err != nil {
			return uploaded, err
		}
		s.MarkClean()
		uploaded++
	}
	for id := range t.textures {
		if _, ok := live[id]; !ok {
			t.Release(id)
		}
	}
	return uploaded, nil
}

func (t *TextureSet) upload(s *Surface) error {
	w, h := s.Width(), s.Height()
	st := t.textures[s.id]
	if st == nil || st.width != w || st.height != h {
		if st != nil {
			t.Release(s.id)
		}
		created, err := t.create(s)
		if err != nil {
			return err
		}
		st = created
		t.textures[s.id] = st
	}

	t.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  st.texture,
			MipLevel: 0,
		},
		s.pixels.Pix,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(s.pixels.Stride), //nolint:gosec // stride always fits uint32
			RowsPerImage: uint32(h),               //nolint:gosec // height always fits uint32
		},
		&hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // surface size fits uint32
	)
	return nil
}

func (t *TextureSet) create(s *Surface) (*surfaceTexture, error) {
	w, h := s.Width(), s.Height()
	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         fmt.Sprintf("glyph_atlas_%d", s.id),
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // surface size fits uint32
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatR8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("atlas: create texture for surface %d: %w", s.id, err)
	}

	view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("glyph_atlas_%d_view", s.id),
		Format:        gputypes.TextureFormatR8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		t.device.DestroyTexture(tex)
		return nil, fmt.Errorf("atlas: create texture view for surface %d: %w", s.id, err)
	}

	logging.Logger().Debug("atlas: texture created", "surface", s.id, "width", w, "height", h)
	return &surfaceTexture{texture: tex, view: view, width: w, height: h}, nil
}

// View returns the texture view mirroring the surface with the given ID.
func (t *TextureSet) View(surfaceID uint32) (hal.TextureView, bool) {
	st, ok := t.textures[surfaceID]
	if !ok {
		return nil, false
	}
	return st.view, true
}

// Len returns the number of live textures.
func (t *TextureSet) Len() int { return len(t.textures) }

// Release destroys the texture of one surface. No-op if absent.
func (t *TextureSet) Release(surfaceID uint32) {
	st, ok := t.textures[surfaceID]
	if !ok {
		return
	}
	if st.view != nil {
		t.device.DestroyTextureView(st.view)
	}
	if st.texture != nil {
		t.device.DestroyTexture(st.texture)
	}
	delete(t.textures, surfaceID)
}

// Destroy releases every texture.
func (t *TextureSet) Destroy() {
	for id := range t.textures {
		t.Release(id)
	}
}
