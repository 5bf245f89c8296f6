package atlas

import "github.com/gogpu/fontatlas/internal/logging"

// Config holds packer configuration.
type Config struct {
	// Width and Height of every surface in pixels.
	// Default: 1024x1024
	Width, Height int

	// Padding is the number of empty pixels kept around each glyph.
	// Default: 2
	Padding int

	// Border is reserved on every surface edge. Bitmap render modes use 1.
	// Default: 0
	Border int

	// Mode is the free-rectangle heuristic.
	// Default: BestShortSideFit
	Mode PackingMode

	// MultiSurface allows growth to additional surfaces on exhaustion.
	// Default: true
	MultiSurface bool

	// MaxSurfaces caps growth when MultiSurface is set. Zero means unlimited.
	// Default: 0
	MaxSurfaces int
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Width:        1024,
		Height:       1024,
		Padding:      2,
		Mode:         BestShortSideFit,
		MultiSurface: true,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Width < 1 || c.Width > 16384 {
		return &ConfigError{Field: "Width", Reason: "must be in [1, 16384]"}
	}
	if c.Height < 1 || c.Height > 16384 {
		return &ConfigError{Field: "Height", Reason: "must be in [1, 16384]"}
	}
	if c.Padding < 0 {
		return &ConfigError{Field: "Padding", Reason: "must be non-negative"}
	}
	if c.Border < 0 || 2*c.Border >= min(c.Width, c.Height) {
		return &ConfigError{Field: "Border", Reason: "must be non-negative and leave a packable area"}
	}
	if c.Mode < BestShortSideFit || c.Mode > ContactPoint {
		return &ConfigError{Field: "Mode", Reason: "unknown packing mode"}
	}
	if c.MaxSurfaces < 0 {
		return &ConfigError{Field: "MaxSurfaces", Reason: "must be non-negative"}
	}
	return nil
}

// Request asks for room for one glyph bitmap.
type Request struct {
	ID            uint32
	Width, Height int
}

// Placement is a packed glyph: its bitmap rectangle and the surface index.
type Placement struct {
	ID      uint32
	Rect    Rect
	Surface int
}

// Packer distributes glyph rectangles over one or more surfaces.
//
// Only the last surface receives new glyphs; earlier surfaces are never
// revisited once a newer surface exists.
type Packer struct {
	cfg      Config
	surfaces []*Surface
}

// NewPacker creates a packer with one empty surface.
func NewPacker(cfg Config) (*Packer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Packer{cfg: cfg, surfaces: make([]*Surface, 0, 1)}
	p.grow()
	return p, nil
}

// RestorePacker creates a packer around previously persisted surfaces.
func RestorePacker(cfg Config, surfaces []*Surface) (*Packer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(surfaces) == 0 {
		return NewPacker(cfg)
	}
	for i, s := range surfaces {
		if s == nil || s.index != i {
			return nil, ErrInvalidSurface
		}
	}
	return &Packer{cfg: cfg, surfaces: surfaces}, nil
}

// Config returns the packer configuration.
func (p *Packer) Config() Config { return p.cfg }

// Surfaces returns the surfaces in index order.
func (p *Packer) Surfaces() []*Surface { return p.surfaces }

// SurfaceCount returns the number of surfaces.
func (p *Packer) SurfaceCount() int { return len(p.surfaces) }

// Surface returns the surface at index i, or nil.
func (p *Packer) Surface(i int) *Surface {
	if i < 0 || i >= len(p.surfaces) {
		return nil
	}
	return p.surfaces[i]
}

// Current returns the surface receiving new glyphs.
func (p *Packer) Current() *Surface { return p.surfaces[len(p.surfaces)-1] }

// Pack places as many requests as fit, in request order. Placed glyphs go
// to the current surface; when it is exhausted and growth is allowed, a new
// surface is appended and only the leftover requests are retried there.
// Requests larger than an empty surface are never placed.
//
// Zero-area requests are placed on the current surface with an empty rect.
func (p *Packer) Pack(reqs []Request) (placed []Placement, remaining []Request) {
	pending := make([]Request, 0, len(reqs))
	var oversized []Request
	cur := p.Current()
	for _, r := range reqs {
		if r.Width > 0 && r.Height > 0 && !cur.Fits(r.Width, r.Height, p.cfg.Padding) {
			oversized = append(oversized, r)
			continue
		}
		pending = append(pending, r)
	}

	for {
		pending = p.packInto(p.Current(), pending, &placed)
		if len(pending) == 0 || !p.canGrow() {
			break
		}
		p.grow()
	}

	remaining = append(pending, oversized...)
	if len(remaining) > 0 {
		logging.Logger().Debug("atlas: requests left unplaced",
			"placed", len(placed), "remaining", len(remaining), "surfaces", len(p.surfaces))
	}
	return placed, remaining
}

func (p *Packer) packInto(s *Surface, reqs []Request, placed *[]Placement) []Request {
	left := reqs[:0]
	for _, r := range reqs {
		if r.Width <= 0 || r.Height <= 0 {
			*placed = append(*placed, Placement{ID: r.ID, Surface: s.index})
			continue
		}
		rect, ok := s.Insert(r.Width, r.Height, p.cfg.Padding, p.cfg.Mode)
		if !ok {
			left = append(left, r)
			continue
		}
		*placed = append(*placed, Placement{ID: r.ID, Rect: rect, Surface: s.index})
	}
	return left
}

func (p *Packer) canGrow() bool {
	if !p.cfg.MultiSurface {
		return false
	}
	return p.cfg.MaxSurfaces == 0 || len(p.surfaces) < p.cfg.MaxSurfaces
}

// grow appends a fresh surface, doubling slice capacity when full.
func (p *Packer) grow() *Surface {
	if len(p.surfaces) == cap(p.surfaces) {
		grown := make([]*Surface, len(p.surfaces), max(1, 2*cap(p.surfaces)))
		copy(grown, p.surfaces)
		p.surfaces = grown
	}
	s := NewSurface(len(p.surfaces), p.cfg.Width, p.cfg.Height, p.cfg.Border)
	p.surfaces = append(p.surfaces, s)
	if s.index > 0 {
		logging.Logger().Debug("atlas: surface added", "index", s.index, "id", s.id)
	}
	return s
}

// Reset drops every surface and starts over with one empty surface.
func (p *Packer) Reset() {
	p.surfaces = make([]*Surface, 0, 1)
	p.grow()
}
