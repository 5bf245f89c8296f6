package text

import "github.com/gogpu/fontatlas/text/atlas"

// AssetConfig holds FontAsset configuration.
type AssetConfig struct {
	// PointSize is the sampling size in points (one point per pixel).
	// Default: 36
	PointSize float32 `yaml:"pointSize"`

	// FaceIndex selects a face inside a font collection.
	// Default: 0
	FaceIndex int `yaml:"faceIndex"`

	// AtlasWidth and AtlasHeight give each atlas surface size.
	// Default: 1024x1024
	AtlasWidth  int `yaml:"atlasWidth"`
	AtlasHeight int `yaml:"atlasHeight"`

	// Padding between glyph bitmaps in pixels.
	// Default: 4
	Padding int `yaml:"padding"`

	// PackingMode is the atlas free-rectangle heuristic.
	// Default: atlas.BestShortSideFit
	PackingMode atlas.PackingMode `yaml:"packingMode"`

	// RenderMode selects coverage rendering or SDF padding.
	// Default: RenderSmooth
	RenderMode RenderMode `yaml:"renderMode"`

	// MultiAtlas allows additional atlas surfaces when one is full.
	// Default: true
	MultiAtlas bool `yaml:"multiAtlas"`

	// MaxSurfaces caps atlas growth. Zero means unlimited.
	// Default: 0
	MaxSurfaces int `yaml:"maxSurfaces"`

	// Population selects static or on-demand population.
	// Default: PopulationDynamic
	Population PopulationMode `yaml:"population"`

	// FamilyName and StyleName override the names reported by the rasterizer.
	FamilyName string `yaml:"familyName,omitempty"`
	StyleName  string `yaml:"styleName,omitempty"`

	// UnitsPerEm is used by static assets, which never load a face.
	// Default: 0 (taken from the face)
	UnitsPerEm int `yaml:"unitsPerEm,omitempty"`
}

// DefaultAssetConfig returns default configuration.
func DefaultAssetConfig() AssetConfig {
	return AssetConfig{
		PointSize:   36,
		AtlasWidth:  1024,
		AtlasHeight: 1024,
		Padding:     4,
		PackingMode: atlas.BestShortSideFit,
		RenderMode:  RenderSmooth,
		MultiAtlas:  true,
		Population:  PopulationDynamic,
	}
}

// Validate checks if the configuration is valid.
func (c *AssetConfig) Validate() error {
	if c.PointSize <= 0 {
		return &AssetConfigError{Field: "PointSize", Reason: "must be positive"}
	}
	if c.FaceIndex < 0 {
		return &AssetConfigError{Field: "FaceIndex", Reason: "must be non-negative"}
	}
	if c.Population < PopulationDynamic || c.Population > PopulationDynamicFromOS {
		return &AssetConfigError{Field: "Population", Reason: "unknown population mode"}
	}
	if c.RenderMode < RenderSmooth || c.RenderMode > RenderSDF {
		return &AssetConfigError{Field: "RenderMode", Reason: "unknown render mode"}
	}
	if c.UnitsPerEm < 0 {
		return &AssetConfigError{Field: "UnitsPerEm", Reason: "must be non-negative"}
	}
	pc := c.packerConfig()
	if err := pc.Validate(); err != nil {
		return err
	}
	return nil
}

func (c *AssetConfig) packerConfig() atlas.Config {
	return atlas.Config{
		Width:        c.AtlasWidth,
		Height:       c.AtlasHeight,
		Padding:      c.Padding,
		Border:       c.RenderMode.surfaceBorder(),
		Mode:         c.PackingMode,
		MultiSurface: c.MultiAtlas,
		MaxSurfaces:  c.MaxSurfaces,
	}
}

// AssetOption configures FontAsset creation.
type AssetOption func(*AssetConfig)

// WithPointSize sets the sampling point size.
func WithPointSize(size float32) AssetOption {
	return func(c *AssetConfig) { c.PointSize = size }
}

// WithFaceIndex selects a face inside a font collection.
func WithFaceIndex(i int) AssetOption {
	return func(c *AssetConfig) { c.FaceIndex = i }
}

// WithAtlasSize sets the size of every atlas surface.
func WithAtlasSize(width, height int) AssetOption {
	return func(c *AssetConfig) {
		c.AtlasWidth = width
		c.AtlasHeight = height
	}
}

// WithPadding sets the padding between glyph bitmaps.
func WithPadding(px int) AssetOption {
	return func(c *AssetConfig) { c.Padding = px }
}

// WithPackingMode sets the atlas packing heuristic.
func WithPackingMode(m atlas.PackingMode) AssetOption {
	return func(c *AssetConfig) { c.PackingMode = m }
}

// WithRenderMode sets the glyph render mode.
func WithRenderMode(m RenderMode) AssetOption {
	return func(c *AssetConfig) { c.RenderMode = m }
}

// WithMultiAtlas enables or disables growth to additional surfaces.
// maxSurfaces of zero means unlimited.
func WithMultiAtlas(enabled bool, maxSurfaces int) AssetOption {
	return func(c *AssetConfig) {
		c.MultiAtlas = enabled
		c.MaxSurfaces = maxSurfaces
	}
}

// WithPopulation sets the population mode.
func WithPopulation(p PopulationMode) AssetOption {
	return func(c *AssetConfig) { c.Population = p }
}

// WithNames overrides the family and style names.
func WithNames(family, style string) AssetOption {
	return func(c *AssetConfig) {
		c.FamilyName = family
		c.StyleName = style
	}
}

// WithUnitsPerEm sets the design grid size for static assets.
func WithUnitsPerEm(upem int) AssetOption {
	return func(c *AssetConfig) { c.UnitsPerEm = upem }
}
