package text

import (
	xfont "golang.org/x/image/font"

	"github.com/gogpu/fontatlas/text/atlas"
)

// unknownStr is the string returned for unknown enum values.
const unknownStr = "Unknown"

// AssetID identifies a FontAsset for the lifetime of the process.
// The zero value never names a live asset.
type AssetID uint32

// InvalidAssetID marks a character whose owner is gone.
const InvalidAssetID AssetID = 0

// GlyphID is a font-local glyph index. Zero is the missing glyph.
type GlyphID uint32

// PopulationMode controls whether an asset may rasterize on demand.
type PopulationMode int

const (
	// PopulationDynamic rasterizes missing glyphs on demand.
	PopulationDynamic PopulationMode = iota
	// PopulationStatic serves lookups from persisted tables only.
	PopulationStatic
	// PopulationDynamicFromOS is dynamic with font data located in OS font directories.
	PopulationDynamicFromOS
)

// String returns the string representation of the population mode.
func (p PopulationMode) String() string {
	switch p {
	case PopulationDynamic:
		return "Dynamic"
	case PopulationStatic:
		return "Static"
	case PopulationDynamicFromOS:
		return "DynamicFromOS"
	default:
		return unknownStr
	}
}

// AllowsOnDemandPopulation reports whether lookups may call the rasterizer
// and grow the atlas.
func (p PopulationMode) AllowsOnDemandPopulation() bool {
	return p == PopulationDynamic || p == PopulationDynamicFromOS
}

// UsesOSFontSource reports whether the source is resolved through system fonts.
func (p PopulationMode) UsesOSFontSource() bool {
	return p == PopulationDynamicFromOS
}

// RenderMode selects how glyph coverage is produced.
type RenderMode int

const (
	// RenderSmooth is antialiased coverage without hinting.
	RenderSmooth RenderMode = iota
	// RenderHinted is antialiased coverage with full hinting.
	RenderHinted
	// RenderSDF reserves padding for a distance field produced by an
	// external generator.
	RenderSDF
)

// String returns the string representation of the render mode.
func (m RenderMode) String() string {
	switch m {
	case RenderSmooth:
		return "Smooth"
	case RenderHinted:
		return "Hinted"
	case RenderSDF:
		return "SDF"
	default:
		return unknownStr
	}
}

// IsBitmap reports whether the mode produces plain coverage bitmaps.
func (m RenderMode) IsBitmap() bool {
	return m == RenderSmooth || m == RenderHinted
}

// surfaceBorder is the border kept free on each atlas surface edge.
func (m RenderMode) surfaceBorder() int {
	if m.IsBitmap() {
		return 1
	}
	return 0
}

// CharKey is a character lookup key: a code point, optionally packed with
// style, weight and alternate-typeface flags above bit 32.
type CharKey uint64

const (
	keyWeightShift = 32
	keyWeightMask  = 0xf
	keyItalic      = 1 << 36
	keyAlternate   = 1 << 37
)

// PlainKey returns the lookup key for an unqualified code point.
func PlainKey(r rune) CharKey { return CharKey(uint32(r)) }

// CompositeKey returns the lookup key for a style/weight qualified code point.
func CompositeKey(r rune, style xfont.Style, weight xfont.Weight, alternate bool) CharKey {
	k := uint64(uint32(r)) | uint64(weightBucket(weight)+1)<<keyWeightShift
	if style != xfont.StyleNormal {
		k |= keyItalic
	}
	if alternate {
		k |= keyAlternate
	}
	return CharKey(k)
}

// Rune returns the code point encoded in the key.
func (k CharKey) Rune() rune { return rune(uint32(k)) }

// IsComposite reports whether the key carries style or weight information.
func (k CharKey) IsComposite() bool { return k>>keyWeightShift != 0 }

// weightBucket maps a weight to 0..8 (Thin..Black).
func weightBucket(w xfont.Weight) int {
	return min(max(int(w)+3, 0), 8)
}

// isStyled reports whether style and weight ask for a non-default variant.
func isStyled(style xfont.Style, weight xfont.Weight) bool {
	return style != xfont.StyleNormal || weight != xfont.WeightNormal
}

// GlyphMetrics holds glyph measurements in pixels at the asset point size.
type GlyphMetrics struct {
	Width    float32 `yaml:"w"`
	Height   float32 `yaml:"h"`
	BearingX float32 `yaml:"bx"`
	BearingY float32 `yaml:"by"`
	Advance  float32 `yaml:"adv"`
}

// Glyph is a rendered glyph: its metrics and where it lives in the atlas.
// A glyph never changes after insertion.
type Glyph struct {
	ID         GlyphID
	Metrics    GlyphMetrics
	Rect       atlas.Rect
	Scale      float32
	AtlasIndex int
}

// Character binds a lookup key to a glyph. Owner is the asset whose atlas
// holds the glyph; it differs from the holding asset for entries cached
// from an alternate typeface.
type Character struct {
	Unicode     rune
	Key         CharKey
	GlyphIndex  GlyphID
	Glyph       *Glyph
	Owner       AssetID
	Synthesized bool
}

// isTombstone reports whether the entry must be purged on lookup.
func (c *Character) isTombstone() bool {
	return c.Owner == InvalidAssetID || c.Glyph == nil
}
