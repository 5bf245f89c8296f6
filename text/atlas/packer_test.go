package atlas

import (
	"errors"
	"testing"
)

// tenSlotConfig yields surfaces holding exactly ten 10x10 glyphs.
func tenSlotConfig(multi bool) Config {
	return Config{Width: 52, Height: 22, Border: 1, Mode: BestShortSideFit, MultiSurface: multi}
}

func squareRequests(n, size int) []Request {
	reqs := make([]Request, n)
	for i := range reqs {
		reqs[i] = Request{ID: uint32(i + 1), Width: size, Height: size}
	}
	return reqs
}

// --- Config Tests ---

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Config)
		field string
	}{
		{"zero width", func(c *Config) { c.Width = 0 }, "Width"},
		{"huge height", func(c *Config) { c.Height = 1 << 20 }, "Height"},
		{"negative padding", func(c *Config) { c.Padding = -1 }, "Padding"},
		{"border eats surface", func(c *Config) { c.Border = 512 }, "Border"},
		{"bad mode", func(c *Config) { c.Mode = PackingMode(9) }, "Mode"},
		{"negative max", func(c *Config) { c.MaxSurfaces = -2 }, "MaxSurfaces"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.edit(&cfg)
			err := cfg.Validate()
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("ConfigError.Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

// --- Packing Tests ---

func TestPackGrowsToSecondSurface(t *testing.T) {
	p, err := NewPacker(tenSlotConfig(true))
	if err != nil {
		t.Fatalf("NewPacker() error = %v", err)
	}

	placed, remaining := p.Pack(squareRequests(12, 10))
	if len(remaining) != 0 {
		t.Fatalf("Pack() remaining = %d, want 0", len(remaining))
	}
	if len(placed) != 12 {
		t.Fatalf("Pack() placed = %d, want 12", len(placed))
	}
	for i, pl := range placed {
		want := 0
		if i >= 10 {
			want = 1
		}
		if pl.Surface != want {
			t.Errorf("placed[%d].Surface = %d, want %d", i, pl.Surface, want)
		}
		if pl.ID != uint32(i+1) {
			t.Errorf("placed[%d].ID = %d, want request order", i, pl.ID)
		}
	}
	if got := p.SurfaceCount(); got != 2 {
		t.Errorf("SurfaceCount() = %d, want 2", got)
	}
	if p.Surface(1).Index() != 1 {
		t.Errorf("Surface(1).Index() = %d, want 1", p.Surface(1).Index())
	}
}

func TestPackSingleSurfaceReportsPartialFailure(t *testing.T) {
	p, _ := NewPacker(tenSlotConfig(false))

	placed, remaining := p.Pack(squareRequests(12, 10))
	if len(placed) != 10 || len(remaining) != 2 {
		t.Fatalf("Pack() placed=%d remaining=%d, want 10 and 2", len(placed), len(remaining))
	}
	if remaining[0].ID != 11 || remaining[1].ID != 12 {
		t.Errorf("remaining IDs = %d,%d, want 11,12", remaining[0].ID, remaining[1].ID)
	}
	if p.SurfaceCount() != 1 {
		t.Errorf("SurfaceCount() = %d, want 1", p.SurfaceCount())
	}
}

func TestPackMaxSurfaces(t *testing.T) {
	cfg := tenSlotConfig(true)
	cfg.MaxSurfaces = 2
	p, _ := NewPacker(cfg)

	_, remaining := p.Pack(squareRequests(25, 10))
	if len(remaining) != 5 {
		t.Errorf("Pack() remaining = %d, want 5", len(remaining))
	}
	if p.SurfaceCount() != 2 {
		t.Errorf("SurfaceCount() = %d, want 2", p.SurfaceCount())
	}
}

func TestPackOversizedNeverGrows(t *testing.T) {
	p, _ := NewPacker(tenSlotConfig(true))

	placed, remaining := p.Pack([]Request{{ID: 1, Width: 60, Height: 5}})
	if len(placed) != 0 || len(remaining) != 1 {
		t.Errorf("Pack() placed=%d remaining=%d, want 0 and 1", len(placed), len(remaining))
	}
	if p.SurfaceCount() != 1 {
		t.Errorf("SurfaceCount() = %d, want 1 (oversized request must not add surfaces)", p.SurfaceCount())
	}
}

func TestPackZeroAreaRequests(t *testing.T) {
	p, _ := NewPacker(tenSlotConfig(false))

	placed, remaining := p.Pack([]Request{{ID: 7}})
	if len(remaining) != 0 || len(placed) != 1 {
		t.Fatalf("Pack() placed=%d remaining=%d, want 1 and 0", len(placed), len(remaining))
	}
	if !placed[0].Rect.Empty() {
		t.Errorf("zero-area placement rect = %+v, want empty", placed[0].Rect)
	}
	if len(p.Current().UsedRects()) != 0 {
		t.Error("zero-area request consumed atlas space")
	}
}

func TestPackSurfaceIndicesMonotonic(t *testing.T) {
	p, _ := NewPacker(tenSlotConfig(true))
	for round := 0; round < 4; round++ {
		p.Pack(squareRequests(7, 10))
	}
	for i, s := range p.Surfaces() {
		if s.Index() != i {
			t.Errorf("Surfaces()[%d].Index() = %d", i, s.Index())
		}
	}
	// 28 glyphs at 10 per surface.
	if p.SurfaceCount() != 3 {
		t.Errorf("SurfaceCount() = %d, want 3", p.SurfaceCount())
	}
}

func TestPackerInvariantAcrossCalls(t *testing.T) {
	cfg := Config{Width: 128, Height: 128, Padding: 1, Border: 1, Mode: BestShortSideFit}
	p, _ := NewPacker(cfg)
	sizes := [][2]int{{9, 13}, {4, 4}, {20, 7}, {1, 30}, {11, 11}, {16, 3}}
	for i := 0; i < 30; i++ {
		sz := sizes[i%len(sizes)]
		p.Pack([]Request{{ID: uint32(i), Width: sz[0], Height: sz[1]}})

		s := p.Current()
		covered, overlapped := coverage(t, &s.rects)
		if overlapped {
			t.Fatalf("free and used overlap after call %d", i)
		}
		if covered != s.PackableArea().Area() {
			t.Fatalf("free ∪ used = %d px, want %d", covered, s.PackableArea().Area())
		}
	}
}

func TestPackerReset(t *testing.T) {
	p, _ := NewPacker(tenSlotConfig(true))
	p.Pack(squareRequests(15, 10))
	first := p.Surface(0).ID()

	p.Reset()
	if p.SurfaceCount() != 1 {
		t.Errorf("SurfaceCount() after Reset = %d, want 1", p.SurfaceCount())
	}
	if p.Surface(0).ID() == first {
		t.Error("Reset() should allocate a fresh surface")
	}
}

func TestRestorePackerRejectsBadIndices(t *testing.T) {
	cfg := tenSlotConfig(true)
	_, err := RestorePacker(cfg, []*Surface{NewSurface(1, 52, 22, 1)})
	if !errors.Is(err, ErrInvalidSurface) {
		t.Errorf("RestorePacker() error = %v, want ErrInvalidSurface", err)
	}
}
