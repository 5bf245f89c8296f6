package text

import (
	"image"
	"slices"
)

// mockRasterizer is a scripted Rasterizer that counts every call.
type mockRasterizer struct {
	glyphs  map[rune]GlyphID
	metrics map[GlyphID]GlyphMetrics
	upem    int
	family  string
	style   string
	loadErr error

	ligatures  []LigatureRecord
	pairs      []PairAdjustmentRecord
	markToBase []MarkAttachmentRecord
	markToMark []MarkAttachmentRecord

	calls      map[string]int
	indexCalls map[rune]int
	rendered   []GlyphID
}

func newMockRasterizer(glyphs map[rune]GlyphID) *mockRasterizer {
	return &mockRasterizer{
		glyphs:     glyphs,
		metrics:    make(map[GlyphID]GlyphMetrics),
		upem:       1000,
		family:     "Mock",
		style:      "Regular",
		calls:      make(map[string]int),
		indexCalls: make(map[rune]int),
	}
}

func (m *mockRasterizer) total() int {
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockRasterizer) reset() {
	clear(m.calls)
	clear(m.indexCalls)
	m.rendered = nil
}

func (m *mockRasterizer) LoadFace(SourceRef, float32, int) error {
	m.calls["LoadFace"]++
	return m.loadErr
}

func (m *mockRasterizer) FaceInfo() FaceInfo {
	m.calls["FaceInfo"]++
	return FaceInfo{FamilyName: m.family, StyleName: m.style, UnitsPerEm: m.upem}
}

func (m *mockRasterizer) GlyphIndex(r rune) GlyphID {
	m.calls["GlyphIndex"]++
	m.indexCalls[r]++
	return m.glyphs[r]
}

func (m *mockRasterizer) GlyphMetrics(id GlyphID) (GlyphMetrics, bool) {
	m.calls["GlyphMetrics"]++
	if id == 0 {
		return GlyphMetrics{}, false
	}
	if gm, ok := m.metrics[id]; ok {
		return gm, true
	}
	return GlyphMetrics{Width: 10, Height: 10, BearingY: 10, Advance: 11}, true
}

func (m *mockRasterizer) RenderGlyph(id GlyphID, dst *image.Alpha, at image.Point, _ RenderMode) error {
	m.calls["RenderGlyph"]++
	m.rendered = append(m.rendered, id)
	gm, _ := m.GlyphMetrics(id)
	for y := at.Y; y < at.Y+int(gm.Height); y++ {
		for x := at.X; x < at.X+int(gm.Width); x++ {
			dst.Pix[y*dst.Stride+x] = 0xff
		}
	}
	return nil
}

// involves reports whether ids touch added and stay within added ∪ known.
func involves(ids, added, known []GlyphID) bool {
	hit := false
	for _, id := range ids {
		if slices.Contains(added, id) {
			hit = true
		} else if !slices.Contains(known, id) {
			return false
		}
	}
	return hit
}

func (m *mockRasterizer) Ligatures(added, known []GlyphID) (out []LigatureRecord) {
	m.calls["Ligatures"]++
	for _, r := range m.ligatures {
		if involves(r.Components, added, known) {
			out = append(out, r)
		}
	}
	return out
}

func (m *mockRasterizer) PairAdjustments(added, known []GlyphID) (out []PairAdjustmentRecord) {
	m.calls["PairAdjustments"]++
	for _, r := range m.pairs {
		if involves([]GlyphID{r.First, r.Second}, added, known) {
			out = append(out, r)
		}
	}
	return out
}

func (m *mockRasterizer) MarkToBase(added, known []GlyphID) (out []MarkAttachmentRecord) {
	m.calls["MarkToBase"]++
	for _, r := range m.markToBase {
		if involves([]GlyphID{r.Base, r.Mark}, added, known) {
			out = append(out, r)
		}
	}
	return out
}

func (m *mockRasterizer) MarkToMark(added, known []GlyphID) (out []MarkAttachmentRecord) {
	m.calls["MarkToMark"]++
	for _, r := range m.markToMark {
		if involves([]GlyphID{r.Base, r.Mark}, added, known) {
			out = append(out, r)
		}
	}
	return out
}

// newDynamicAsset builds a dynamic asset over a mock rasterizer.
func newDynamicAsset(t interface{ Fatalf(string, ...any) }, name string, glyphs map[rune]GlyphID, opts ...AssetOption) (*FontAsset, *mockRasterizer) {
	m := newMockRasterizer(glyphs)
	a, err := NewFontAsset(name, m, SourceRef{Data: []byte{0}}, opts...)
	if err != nil {
		t.Fatalf("NewFontAsset(%q) error = %v", name, err)
	}
	return a, m
}
