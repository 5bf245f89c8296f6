package text

import (
	"errors"
	"testing"

	xfont "golang.org/x/image/font"
)

func latinGlyphs() map[rune]GlyphID {
	return map[rune]GlyphID{'A': 5, 'B': 6, 'C': 7, ' ': 1, '-': 2}
}

// --- Resolve Tests ---

func TestResolveAddsOnDemand(t *testing.T) {
	a, m := newDynamicAsset(t, "Mock", latinGlyphs())

	ch, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal)
	if !ok {
		t.Fatal("Resolve('A') = not found, want found")
	}
	if ch.GlyphIndex != 5 {
		t.Errorf("GlyphIndex = %d, want 5", ch.GlyphIndex)
	}
	if ch.Glyph == nil || ch.Glyph.AtlasIndex != 0 {
		t.Errorf("Glyph = %+v, want AtlasIndex 0", ch.Glyph)
	}
	if ch.Owner != a.ID() {
		t.Errorf("Owner = %d, want %d", ch.Owner, a.ID())
	}
	if ch.Glyph.Rect.Empty() {
		t.Error("Glyph.Rect is empty, want packed region")
	}
	if len(m.rendered) != 1 || m.rendered[0] != 5 {
		t.Errorf("rendered = %v, want [5]", m.rendered)
	}
	if !a.Surface(0).IsDirty() {
		t.Error("surface not dirty after insertion")
	}

	m.reset()
	again, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal)
	if !ok || again != ch {
		t.Errorf("second Resolve('A') = %p, want cached %p", again, ch)
	}
	if n := m.total(); n != 0 {
		t.Errorf("rasterizer calls on cached lookup = %d, want 0 (%v)", n, m.calls)
	}
}

func TestResolveMissingCodePoint(t *testing.T) {
	a, _ := newDynamicAsset(t, "Mock", latinGlyphs())
	if ch, ok := a.Resolve('Z', xfont.StyleNormal, xfont.WeightNormal); ok {
		t.Errorf("Resolve('Z') = %+v, want not found", ch)
	}
	if _, ok := a.Lookup(PlainKey('Z')); ok {
		t.Error("miss left an entry in the character table")
	}
}

func TestResolveSharedGlyph(t *testing.T) {
	a, m := newDynamicAsset(t, "Mock", map[rune]GlyphID{'x': 9, 'X': 9})
	x1, _ := a.Resolve('x', xfont.StyleNormal, xfont.WeightNormal)
	x2, _ := a.Resolve('X', xfont.StyleNormal, xfont.WeightNormal)
	if x1.Glyph != x2.Glyph {
		t.Error("characters mapping to one glyph index got distinct glyphs")
	}
	if m.calls["RenderGlyph"] != 1 {
		t.Errorf("RenderGlyph calls = %d, want 1", m.calls["RenderGlyph"])
	}
	if a.GlyphCount() != 1 {
		t.Errorf("GlyphCount() = %d, want 1", a.GlyphCount())
	}
}

func TestResolveSubstitutes(t *testing.T) {
	a, _ := newDynamicAsset(t, "Mock", latinGlyphs())

	tests := []struct {
		r    rune
		want GlyphID
	}{
		{0x00A0, 1},
		{0x00AD, 2},
		{0x2011, 2},
	}
	for _, tt := range tests {
		ch, ok := a.Resolve(tt.r, xfont.StyleNormal, xfont.WeightNormal)
		if !ok {
			t.Errorf("Resolve(%U) = not found, want glyph %d", tt.r, tt.want)
			continue
		}
		if ch.GlyphIndex != tt.want || ch.Unicode != tt.r {
			t.Errorf("Resolve(%U) = {%U, %d}, want {%U, %d}", tt.r, ch.Unicode, ch.GlyphIndex, tt.r, tt.want)
		}
	}
}

// --- Control Character Tests ---

func TestControlCharactersSynthesized(t *testing.T) {
	glyphs := latinGlyphs()
	glyphs['\t'] = 40
	glyphs[0x2028] = 41
	a, _ := newDynamicAsset(t, "Mock", glyphs)

	for _, r := range []rune{0x03, 0x0A, 0x0D, 0x061C, 0x200D} {
		ch, ok := a.Lookup(PlainKey(r))
		if !ok {
			t.Errorf("Lookup(%U) = not found, want synthesized", r)
			continue
		}
		if !ch.Synthesized || ch.Glyph.Metrics != (GlyphMetrics{}) {
			t.Errorf("Lookup(%U) = %+v, want synthesized empty glyph", r, ch)
		}
	}
	tab, ok := a.Lookup(PlainKey('\t'))
	if !ok || !tab.Synthesized {
		t.Fatalf("Lookup(U+0009) = %+v, %v; want synthesized", tab, ok)
	}
	if tab.GlyphIndex != 40 {
		t.Errorf("tab glyph index = %d, want face index 40", tab.GlyphIndex)
	}
	want := GlyphMetrics{Width: 10, Height: 10, BearingY: 10, Advance: 11}
	if tab.Glyph.Metrics != want {
		t.Errorf("tab metrics = %+v, want face metrics %+v", tab.Glyph.Metrics, want)
	}
	if !tab.Glyph.Rect.Empty() {
		t.Errorf("tab rect = %+v, want no atlas rect", tab.Glyph.Rect)
	}
	// the face draws a visible glyph for U+2028, so it is not synthesized
	if _, ok := a.Lookup(PlainKey(0x2028)); ok {
		t.Error("U+2028 synthesized despite a visible face glyph")
	}
	if a.GlyphCount() != 0 {
		t.Errorf("GlyphCount() = %d, want 0 (synthesized glyphs stay out of the atlas)", a.GlyphCount())
	}
}

// --- Static Asset Tests ---

func TestStaticAssetNeverRasterizes(t *testing.T) {
	m := newMockRasterizer(latinGlyphs())
	a, err := NewFontAsset("Static", m, SourceRef{}, WithPopulation(PopulationStatic))
	if err != nil {
		t.Fatalf("NewFontAsset() error = %v", err)
	}
	if ch, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal); ok {
		t.Errorf("Resolve('A') on empty static asset = %+v, want not found", ch)
	}
	if _, ok := a.TryAddCharacters([]rune("ABC")); ok {
		t.Error("TryAddCharacters() on static asset reported success")
	}
	if n := m.total(); n != 0 {
		t.Errorf("rasterizer calls = %d, want 0 (%v)", n, m.calls)
	}
	if _, ok := a.Lookup(PlainKey('\n')); !ok {
		t.Error("static asset lacks synthesized line feed")
	}
	if err := a.ClearDynamicData(); !errors.Is(err, ErrStaticAsset) {
		t.Errorf("ClearDynamicData() error = %v, want ErrStaticAsset", err)
	}
}

func TestStaticAssetNilRasterizer(t *testing.T) {
	a, err := NewFontAsset("Static", nil, SourceRef{}, WithPopulation(PopulationStatic))
	if err != nil {
		t.Fatalf("NewFontAsset() error = %v", err)
	}
	if _, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal); ok {
		t.Error("Resolve('A') = found, want not found")
	}
}

func TestNewFontAssetErrors(t *testing.T) {
	m := newMockRasterizer(nil)
	tests := []struct {
		name string
		rast Rasterizer
		src  SourceRef
		opts []AssetOption
		want error
	}{
		{"no rasterizer", nil, SourceRef{Path: "x.ttf"}, nil, ErrNoRasterizer},
		{"empty source", m, SourceRef{}, nil, ErrEmptySource},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFontAsset("x", tt.rast, tt.src, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("NewFontAsset() error = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := NewFontAsset("x", m, SourceRef{Path: "x.ttf"}, WithPointSize(0))
	var cfgErr *AssetConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "PointSize" {
		t.Errorf("NewFontAsset(point size 0) error = %v, want AssetConfigError on PointSize", err)
	}
}

// --- Load Failure Tests ---

func TestFaceLoadFailure(t *testing.T) {
	m := newMockRasterizer(latinGlyphs())
	m.loadErr = errors.New("bad font data")
	a, err := NewFontAsset("Broken", m, SourceRef{Data: []byte{1}})
	if err != nil {
		t.Fatalf("NewFontAsset() error = %v, want construction to succeed", err)
	}
	var loadErr *LoadError
	if !errors.As(a.FaceError(), &loadErr) {
		t.Fatalf("FaceError() = %v, want *LoadError", a.FaceError())
	}
	if !errors.Is(a.FaceError(), m.loadErr) {
		t.Error("LoadError does not unwrap to the rasterizer error")
	}
	if _, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal); ok {
		t.Error("Resolve('A') succeeded without a face")
	}
	if _, ok := a.Lookup(PlainKey('\n')); !ok {
		t.Error("control characters not synthesized without a face")
	}

	loads := m.calls["LoadFace"]
	a.Resolve('B', xfont.StyleNormal, xfont.WeightNormal)
	if m.calls["LoadFace"] != loads {
		t.Error("failed face load retried without ReloadFace")
	}

	m.loadErr = nil
	if err := a.ReloadFace(); err != nil {
		t.Fatalf("ReloadFace() error = %v", err)
	}
	if _, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal); !ok {
		t.Error("Resolve('A') after ReloadFace = not found")
	}
}

func TestSystemFontNotFound(t *testing.T) {
	m := newMockRasterizer(latinGlyphs())
	a, err := NewFontAsset("Sys", m, SourceRef{SystemName: "no-such-font-family-xyz.ttf"},
		WithPopulation(PopulationDynamicFromOS))
	if err != nil {
		t.Fatalf("NewFontAsset() error = %v", err)
	}
	var loadErr *LoadError
	if !errors.As(a.FaceError(), &loadErr) {
		t.Fatalf("FaceError() = %v, want *LoadError", a.FaceError())
	}
	if m.calls["LoadFace"] != 0 {
		t.Errorf("LoadFace calls = %d, want 0", m.calls["LoadFace"])
	}
}

func TestAddGlyphsBeforeFaceLoadPanics(t *testing.T) {
	m := newMockRasterizer(latinGlyphs())
	m.loadErr = errors.New("not yet")
	a, err := NewFontAsset("Early", m, SourceRef{Data: []byte{1}})
	if err != nil {
		t.Fatalf("NewFontAsset() error = %v", err)
	}
	defer func() {
		if recover() == nil {
			t.Error("addGlyphs() without a face did not panic")
		}
	}()
	a.addGlyphs([]GlyphID{5})
}

// --- Bulk Insertion Tests ---

func TestTryAddCharactersMultiAtlas(t *testing.T) {
	glyphs := make(map[rune]GlyphID)
	runes := []rune("abcdefghijkl")
	for i, r := range runes {
		glyphs[r] = GlyphID(i + 1)
	}
	a, _ := newDynamicAsset(t, "Multi", glyphs, WithAtlasSize(52, 22), WithPadding(0))

	missing, ok := a.TryAddCharacters(runes)
	if !ok || len(missing) != 0 {
		t.Fatalf("TryAddCharacters() = %v, %v; want all added", missing, ok)
	}
	if got := a.AtlasTextureCount(); got != 2 {
		t.Fatalf("AtlasTextureCount() = %d, want 2", got)
	}
	for i, r := range runes {
		ch, _ := a.Lookup(PlainKey(r))
		want := 0
		if i >= 10 {
			want = 1
		}
		if ch.Glyph.AtlasIndex != want {
			t.Errorf("%q AtlasIndex = %d, want %d", r, ch.Glyph.AtlasIndex, want)
		}
	}
}

func TestTryAddCharactersSingleAtlasFull(t *testing.T) {
	glyphs := make(map[rune]GlyphID)
	runes := []rune("abcdefghijkl")
	for i, r := range runes {
		glyphs[r] = GlyphID(i + 1)
	}
	a, _ := newDynamicAsset(t, "Single", glyphs, WithAtlasSize(52, 22), WithPadding(0), WithMultiAtlas(false, 0))

	missing, ok := a.TryAddCharacters(runes)
	if ok {
		t.Fatal("TryAddCharacters() = ok, want partial failure")
	}
	if len(missing) != 2 {
		t.Errorf("missing = %q, want 2 code points", missing)
	}
	if a.AtlasTextureCount() != 1 {
		t.Errorf("AtlasTextureCount() = %d, want 1", a.AtlasTextureCount())
	}
	if a.GlyphCount() != 10 {
		t.Errorf("GlyphCount() = %d, want 10", a.GlyphCount())
	}
}

func TestTryAddCharactersReportsUnmapped(t *testing.T) {
	a, _ := newDynamicAsset(t, "Mock", latinGlyphs())
	missing, ok := a.TryAddCharacters([]rune("AQB"))
	if ok || len(missing) != 1 || missing[0] != 'Q' {
		t.Errorf("TryAddCharacters(\"AQB\") = %q, %v; want [Q], false", missing, ok)
	}
}

func TestTryAddGlyphs(t *testing.T) {
	a, m := newDynamicAsset(t, "Mock", latinGlyphs())
	m.metrics[8] = GlyphMetrics{} // blank glyph
	missing, ok := a.TryAddGlyphs([]GlyphID{5, 8, 5})
	if !ok {
		t.Fatalf("TryAddGlyphs() missing = %v", missing)
	}
	if a.GlyphCount() != 2 {
		t.Errorf("GlyphCount() = %d, want 2", a.GlyphCount())
	}
	if g, _ := a.Glyph(8); !g.Rect.Empty() {
		t.Errorf("blank glyph rect = %+v, want empty", g.Rect)
	}
	if m.calls["RenderGlyph"] != 1 {
		t.Errorf("RenderGlyph calls = %d, want 1", m.calls["RenderGlyph"])
	}
	if _, ok := a.Lookup(PlainKey('A')); ok {
		t.Error("TryAddGlyphs bound a character")
	}
}

// --- Feature Update Tests ---

func TestFeatureUpdateOnInsertion(t *testing.T) {
	glyphs := map[rune]GlyphID{'f': 10, 'i': 11, 'A': 20, 'V': 21}
	m := newMockRasterizer(glyphs)
	m.upem = 2000
	m.ligatures = []LigatureRecord{{Components: []GlyphID{10, 11}, Ligature: 99}}
	m.pairs = []PairAdjustmentRecord{{First: 20, Second: 21, FirstAdjustment: GlyphAdjustment{XAdvance: -200}}}
	a, err := NewFontAsset("Feat", m, SourceRef{Data: []byte{1}}, WithPointSize(20))
	if err != nil {
		t.Fatal(err)
	}

	a.TryAddCharacters([]rune("fi"))
	if _, ok := a.Glyph(99); !ok {
		t.Error("ligature glyph 99 not added to the atlas")
	}
	if lig, ok := a.Features().MatchLigature([]GlyphID{10, 11, 20}); !ok || lig.Ligature != 99 {
		t.Errorf("MatchLigature() = %+v, %v; want ligature 99", lig, ok)
	}

	a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal)
	if _, ok := a.Features().PairAdjustment(20, 21); ok {
		t.Error("pair recorded before both glyphs are present")
	}
	a.Resolve('V', xfont.StyleNormal, xfont.WeightNormal)
	pa, ok := a.Features().PairAdjustment(20, 21)
	if !ok {
		t.Fatal("PairAdjustment(A, V) not recorded")
	}
	if pa.FirstAdjustment.XAdvance != -2 {
		t.Errorf("XAdvance = %v, want -2 (-200 * 20/2000)", pa.FirstAdjustment.XAdvance)
	}
}

// --- ClearDynamicData Tests ---

func TestClearDynamicData(t *testing.T) {
	a, m := newDynamicAsset(t, "Mock", latinGlyphs())
	m.pairs = []PairAdjustmentRecord{{First: 5, Second: 6}}
	a.TryAddCharacters([]rune("AB"))

	if err := a.ClearDynamicData(); err != nil {
		t.Fatalf("ClearDynamicData() error = %v", err)
	}
	if a.GlyphCount() != 0 {
		t.Errorf("GlyphCount() = %d, want 0", a.GlyphCount())
	}
	if _, ok := a.Lookup(PlainKey('A')); ok {
		t.Error("character 'A' survived ClearDynamicData")
	}
	if _, ok := a.Lookup(PlainKey('\n')); !ok {
		t.Error("line feed not synthesized again")
	}
	if _, pairs, _, _ := a.Features().Counts(); pairs != 0 {
		t.Errorf("pair records = %d, want 0", pairs)
	}
	if a.AtlasTextureCount() != 1 || len(a.Surface(0).UsedRects()) != 0 {
		t.Error("atlas not reset to one empty surface")
	}
	if _, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal); !ok {
		t.Error("Resolve('A') after clear = not found")
	}
}

func TestDestroyedAsset(t *testing.T) {
	a, _ := newDynamicAsset(t, "Mock", latinGlyphs())
	a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal)
	a.Destroy()
	a.Destroy()

	if !a.IsDestroyed() {
		t.Error("IsDestroyed() = false after Destroy")
	}
	if _, ok := a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal); ok {
		t.Error("destroyed asset resolved a character")
	}
	if err := a.ClearDynamicData(); !errors.Is(err, ErrAssetDestroyed) {
		t.Errorf("ClearDynamicData() error = %v, want ErrAssetDestroyed", err)
	}
	if a.AtlasTextureCount() != 0 {
		t.Errorf("AtlasTextureCount() = %d, want 0", a.AtlasTextureCount())
	}
}

func TestInitializeCharacterStoreDropsTombstones(t *testing.T) {
	a, _ := newDynamicAsset(t, "Mock", latinGlyphs())
	a.Resolve('A', xfont.StyleNormal, xfont.WeightNormal)

	a.chars[PlainKey('Q')] = &Character{Unicode: 'Q', Key: PlainKey('Q'), GlyphIndex: 77, Owner: a.ID()}
	a.chars[PlainKey('R')] = &Character{Unicode: 'R', Key: PlainKey('R')}

	if _, ok := a.Lookup(PlainKey('R')); ok {
		t.Error("Lookup returned a tombstone")
	}
	a.InitializeCharacterStore()
	if _, ok := a.chars[PlainKey('Q')]; ok {
		t.Error("entry with missing glyph survived InitializeCharacterStore")
	}
	if _, ok := a.Lookup(PlainKey('A')); !ok {
		t.Error("valid entry dropped by InitializeCharacterStore")
	}
}
