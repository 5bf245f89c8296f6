package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"

	gtfont "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/fontatlas/text"
)

// Face is a text.Rasterizer over golang.org/x/image/font/sfnt. Outlines are
// filled with golang.org/x/image/vector; GSUB ligatures and GPOS
// positioning come from go-text/typesetting.
//
// Face is not safe for concurrent use.
type Face struct {
	hinting xfont.Hinting

	font    *sfnt.Font
	buf     sfnt.Buffer
	ppem    fixed.Int26_6
	size    float32
	upem    int
	hasKern bool
	info    text.FaceInfo

	layout *gtfont.Font
	gpos   gposLookups

	rast vector.Rasterizer
}

// Option configures a Face.
type Option func(*Face)

// WithHinting sets the hinting used for metrics. Default: xfont.HintingNone.
func WithHinting(h xfont.Hinting) Option {
	return func(f *Face) { f.hinting = h }
}

// New creates a Face with no font loaded.
func New(opts ...Option) *Face {
	f := &Face{hinting: xfont.HintingNone}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

var _ text.Rasterizer = (*Face)(nil)

// LoadFace parses the font named by src and prepares it at pointSize
// (72 DPI, one point per pixel). faceIndex selects a face of a collection.
func (f *Face) LoadFace(src text.SourceRef, pointSize float32, faceIndex int) error {
	if pointSize <= 0 {
		return fmt.Errorf("raster: point size %v must be positive", pointSize)
	}
	data, err := readSource(src)
	if err != nil {
		return err
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return fmt.Errorf("raster: parse font: %w", err)
	}
	if faceIndex < 0 || faceIndex >= coll.NumFonts() {
		return fmt.Errorf("raster: face index %d out of range [0, %d)", faceIndex, coll.NumFonts())
	}
	sf, err := coll.Font(faceIndex)
	if err != nil {
		return fmt.Errorf("raster: face %d: %w", faceIndex, err)
	}

	f.font = sf
	f.size = pointSize
	f.ppem = fixed.Int26_6(pointSize * 64)
	f.upem = int(sf.UnitsPerEm())
	_, kernErr := sf.Kern(&f.buf, 0, 0, f.designPPEM(), xfont.HintingNone)
	f.hasKern = !errors.Is(kernErr, sfnt.ErrNotFound)
	f.info = f.faceInfo()
	f.loadLayout(data, faceIndex)

	logging.Logger().Debug("raster: face loaded",
		"family", f.info.FamilyName, "style", f.info.StyleName, "upem", f.upem, "size", pointSize)
	return nil
}

func readSource(src text.SourceRef) ([]byte, error) {
	switch {
	case len(src.Data) > 0:
		return src.Data, nil
	case src.Path != "":
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("raster: read font: %w", err)
		}
		return data, nil
	case src.SystemName != "":
		path, err := text.LocateSystemFont(src.SystemName)
		if err != nil {
			return nil, err
		}
		return readSource(text.SourceRef{Path: path})
	default:
		return nil, text.ErrEmptySource
	}
}

// loadLayout parses the OpenType layout tables. Failures only disable
// feature queries.
func (f *Face) loadLayout(data []byte, faceIndex int) {
	f.layout, f.gpos = nil, gposLookups{}
	lds, err := ot.NewLoaders(bytes.NewReader(data))
	if err != nil || faceIndex >= len(lds) {
		logging.Logger().Debug("raster: layout tables unavailable", "err", err)
		return
	}
	ft, err := gtfont.NewFont(lds[faceIndex])
	if err != nil {
		logging.Logger().Debug("raster: layout tables unavailable", "err", err)
		return
	}
	f.layout = ft
	f.gpos = newGPOSLookups(ft.GPOS)
}

func (f *Face) faceInfo() text.FaceInfo {
	info := text.FaceInfo{UnitsPerEm: f.upem, PointSize: f.size}
	if name, err := f.font.Name(&f.buf, sfnt.NameIDFamily); err == nil {
		info.FamilyName = name
	}
	if name, err := f.font.Name(&f.buf, sfnt.NameIDSubfamily); err == nil {
		info.StyleName = name
	}
	if m, err := f.font.Metrics(&f.buf, f.ppem, f.hinting); err == nil {
		info.Ascent = fixedToFloat(m.Ascent)
		info.Descent = fixedToFloat(m.Descent)
		info.LineHeight = fixedToFloat(m.Height)
	}
	return info
}

// designPPEM makes sfnt report values in font design units.
func (f *Face) designPPEM() fixed.Int26_6 {
	return fixed.Int26_6(f.upem) << 6
}

// FaceInfo describes the loaded face.
func (f *Face) FaceInfo() text.FaceInfo { return f.info }

// GlyphIndex maps r to a glyph, or 0 when the face lacks it.
func (f *Face) GlyphIndex(r rune) text.GlyphID {
	if f.font == nil {
		return 0
	}
	gi, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return text.GlyphID(gi)
}

// box returns the pixel bounding box of a glyph relative to its origin,
// with y growing downward.
func (f *Face) box(id text.GlyphID) (image.Rectangle, fixed.Int26_6, bool) {
	if f.font == nil || int(id) >= f.font.NumGlyphs() {
		return image.Rectangle{}, 0, false
	}
	b, adv, err := f.font.GlyphBounds(&f.buf, sfnt.GlyphIndex(id), f.ppem, f.hinting)
	if err != nil {
		return image.Rectangle{}, 0, false
	}
	r := image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil())
	return r, adv, true
}

// GlyphMetrics returns the pixel metrics of a glyph.
func (f *Face) GlyphMetrics(id text.GlyphID) (text.GlyphMetrics, bool) {
	r, adv, ok := f.box(id)
	if !ok {
		return text.GlyphMetrics{}, false
	}
	return text.GlyphMetrics{
		Width:    float32(r.Dx()),
		Height:   float32(r.Dy()),
		BearingX: float32(r.Min.X),
		BearingY: float32(-r.Min.Y),
		Advance:  fixedToFloat(adv),
	}, true
}

// RenderGlyph fills the glyph outline into dst with the top-left corner of
// its bounding box at at. SDF mode renders coverage as well; the distance
// transform runs outside this package.
func (f *Face) RenderGlyph(id text.GlyphID, dst *image.Alpha, at image.Point, _ text.RenderMode) error {
	if f.font == nil {
		return text.ErrFaceNotLoaded
	}
	r, _, ok := f.box(id)
	if !ok {
		return fmt.Errorf("raster: glyph %d out of range", id)
	}
	w, h := r.Dx(), r.Dy()
	if w == 0 || h == 0 {
		return nil
	}
	segs, err := f.font.LoadGlyph(&f.buf, sfnt.GlyphIndex(id), f.ppem, nil)
	if err != nil {
		return fmt.Errorf("raster: load glyph %d: %w", id, err)
	}

	ox, oy := float32(-r.Min.X), float32(-r.Min.Y)
	pt := func(p fixed.Point26_6) (float32, float32) {
		return fixedToFloat(p.X) + ox, fixedToFloat(p.Y) + oy
	}

	f.rast.Reset(w, h)
	f.rast.DrawOp = draw.Src
	open := false
	for _, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				f.rast.ClosePath()
			}
			f.rast.MoveTo(pt(s.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			f.rast.LineTo(pt(s.Args[0]))
		case sfnt.SegmentOpQuadTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			f.rast.QuadTo(x1, y1, x2, y2)
		case sfnt.SegmentOpCubeTo:
			x1, y1 := pt(s.Args[0])
			x2, y2 := pt(s.Args[1])
			x3, y3 := pt(s.Args[2])
			f.rast.CubeTo(x1, y1, x2, y2, x3, y3)
		}
	}
	if open {
		f.rast.ClosePath()
	}
	f.rast.Draw(dst, image.Rect(at.X, at.Y, at.X+w, at.Y+h), image.Opaque, image.Point{})
	return nil
}

func fixedToFloat(v fixed.Int26_6) float32 {
	return float32(v) / 64
}
