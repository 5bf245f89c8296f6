package atlas

import (
	"fmt"
	"image"
	"sync/atomic"
)

// nextSurfaceID hands out process-unique surface identities.
var nextSurfaceID atomic.Uint32

// Surface is one fixed-size 8-bit coverage bitmap plus its packing state.
type Surface struct {
	id     uint32
	index  int
	border int
	pixels *image.Alpha
	rects  maxRects
	dirty  bool
}

// NewSurface creates an empty surface. border pixels on every edge are kept
// out of the packable area. Panics if the dimensions are not positive.
func NewSurface(index, width, height, border int) *Surface {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("atlas: invalid surface size %dx%d", width, height))
	}
	border = max(border, 0)
	bounds := Rect{X: border, Y: border, Width: width - 2*border, Height: height - 2*border}
	return &Surface{
		id:     nextSurfaceID.Add(1),
		index:  index,
		border: border,
		pixels: image.NewAlpha(image.Rect(0, 0, width, height)),
		rects:  newMaxRects(bounds),
	}
}

// RestoreSurface rebuilds a surface from persisted state. The free and used
// lists are taken as-is, not recomputed. Returns ErrInvalidSurface when the
// pixel buffer does not match the dimensions or a rectangle is out of
// bounds or free and used regions overlap.
func RestoreSurface(index, width, height, border int, pix []byte, free, used []Rect) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidSurface, width, height)
	}
	if pix != nil && len(pix) != width*height {
		return nil, fmt.Errorf("%w: %d pixel bytes for %dx%d", ErrInvalidSurface, len(pix), width, height)
	}
	s := NewSurface(index, width, height, border)
	if pix != nil {
		copy(s.pixels.Pix, pix)
	}
	s.rects.free = append([]Rect(nil), free...)
	s.rects.used = append([]Rect(nil), used...)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.dirty = true
	return s, nil
}

// ID returns the process-unique identity of the surface.
func (s *Surface) ID() uint32 { return s.id }

// Index returns the position of the surface within its packer.
func (s *Surface) Index() int { return s.index }

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.pixels.Rect.Dx() }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.pixels.Rect.Dy() }

// Border returns the number of reserved pixels on each edge.
func (s *Surface) Border() int { return s.border }

// Pixels returns the backing bitmap. Callers that write into it must call
// MarkDirty.
func (s *Surface) Pixels() *image.Alpha { return s.pixels }

// PackableArea returns the rectangle available to the packer.
func (s *Surface) PackableArea() Rect { return s.rects.bounds }

// FreeRects returns a copy of the free rectangle list.
func (s *Surface) FreeRects() []Rect { return append([]Rect(nil), s.rects.free...) }

// UsedRects returns a copy of the used rectangle list.
func (s *Surface) UsedRects() []Rect { return append([]Rect(nil), s.rects.used...) }

// Utilization returns the fraction of the packable area in use (0.0 to 1.0).
func (s *Surface) Utilization() float64 { return s.rects.occupancy() }

// IsDirty reports whether the surface changed since the last MarkClean.
func (s *Surface) IsDirty() bool { return s.dirty }

// MarkDirty flags the surface for upload.
func (s *Surface) MarkDirty() { s.dirty = true }

// MarkClean clears the dirty flag after an upload.
func (s *Surface) MarkClean() { s.dirty = false }

// Fits reports whether a w×h rectangle with padding could be placed on an
// empty surface of this size.
func (s *Surface) Fits(w, h, padding int) bool {
	b := s.rects.bounds
	return w+2*padding <= b.Width && h+2*padding <= b.Height
}

// Insert finds room for a w×h glyph surrounded by padding pixels and marks
// the padded region used. The returned rectangle excludes the padding.
func (s *Surface) Insert(w, h, padding int, mode PackingMode) (Rect, bool) {
	pw, ph := w+2*padding, h+2*padding
	r, ok := s.rects.find(pw, ph, mode)
	if !ok {
		return Rect{}, false
	}
	s.rects.place(r)
	return Rect{X: r.X + padding, Y: r.Y + padding, Width: w, Height: h}, true
}

// Clear drops all packed regions and zeroes the bitmap.
func (s *Surface) Clear() {
	s.rects.reset()
	clear(s.pixels.Pix)
	s.dirty = true
}

// Validate checks that every rectangle lies inside the packable area and
// that no free rectangle overlaps a used one.
func (s *Surface) Validate() error {
	b := s.rects.bounds
	for _, r := range s.rects.free {
		if r.Empty() || !b.Contains(r) {
			return fmt.Errorf("%w: free rect %+v outside %+v", ErrInvalidSurface, r, b)
		}
	}
	for _, u := range s.rects.used {
		if !b.Contains(u) {
			return fmt.Errorf("%w: used rect %+v outside %+v", ErrInvalidSurface, u, b)
		}
		for _, f := range s.rects.free {
			if f.Intersects(u) {
				return fmt.Errorf("%w: free rect %+v overlaps used %+v", ErrInvalidSurface, f, u)
			}
		}
	}
	return nil
}
