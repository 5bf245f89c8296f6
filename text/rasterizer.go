package text

import "image"

// SourceRef names the font data behind an asset. Exactly one of the fields
// is normally set; Data wins over Path, and Path over SystemName.
type SourceRef struct {
	// Data is an in-memory TTF/OTF/TTC file.
	Data []byte `yaml:"-"`

	// Path is a font file on disk.
	Path string `yaml:"path,omitempty"`

	// SystemName is a font file or family name looked up in the OS font
	// directories by DynamicFromOS assets.
	SystemName string `yaml:"systemName,omitempty"`
}

// IsZero reports whether the reference names no data.
func (s SourceRef) IsZero() bool {
	return len(s.Data) == 0 && s.Path == "" && s.SystemName == ""
}

// String describes the source for diagnostics.
func (s SourceRef) String() string {
	switch {
	case len(s.Data) > 0:
		return "<memory>"
	case s.Path != "":
		return s.Path
	case s.SystemName != "":
		return "system:" + s.SystemName
	default:
		return "<none>"
	}
}

// FaceInfo describes a loaded face.
type FaceInfo struct {
	FamilyName string
	StyleName  string
	UnitsPerEm int
	PointSize  float32
	Ascent     float32
	Descent    float32
	LineHeight float32
}

// FeatureSource reports OpenType feature records in font design units.
//
// Each query returns records that involve at least one glyph of added and
// whose other glyphs are all in added or known.
type FeatureSource interface {
	Ligatures(added, known []GlyphID) []LigatureRecord
	PairAdjustments(added, known []GlyphID) []PairAdjustmentRecord
	MarkToBase(added, known []GlyphID) []MarkAttachmentRecord
	MarkToMark(added, known []GlyphID) []MarkAttachmentRecord
}

// Rasterizer loads font data and produces glyph coverage.
//
// A Rasterizer holds one face at a time and is owned by a single asset.
// Packing is not its concern: RenderGlyph receives the rectangle origin the
// atlas packer chose.
type Rasterizer interface {
	// LoadFace parses the font and prepares it at pointSize.
	LoadFace(src SourceRef, pointSize float32, faceIndex int) error

	// FaceInfo describes the loaded face.
	FaceInfo() FaceInfo

	// GlyphIndex maps a code point to a glyph, or 0 if the face lacks it.
	GlyphIndex(r rune) GlyphID

	// GlyphMetrics returns pixel metrics of a glyph at the loaded size.
	GlyphMetrics(id GlyphID) (GlyphMetrics, bool)

	// RenderGlyph draws glyph coverage into dst with its top-left corner at.
	RenderGlyph(id GlyphID, dst *image.Alpha, at image.Point, mode RenderMode) error

	FeatureSource
}
