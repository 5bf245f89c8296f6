package text

import (
	"testing"

	xfont "golang.org/x/image/font"
)

func TestPopulationModeString(t *testing.T) {
	tests := []struct {
		mode PopulationMode
		want string
	}{
		{PopulationDynamic, "Dynamic"},
		{PopulationStatic, "Static"},
		{PopulationDynamicFromOS, "DynamicFromOS"},
		{PopulationMode(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("PopulationMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestPopulationModePredicates(t *testing.T) {
	tests := []struct {
		mode     PopulationMode
		onDemand bool
		os       bool
	}{
		{PopulationDynamic, true, false},
		{PopulationStatic, false, false},
		{PopulationDynamicFromOS, true, true},
	}
	for _, tt := range tests {
		if got := tt.mode.AllowsOnDemandPopulation(); got != tt.onDemand {
			t.Errorf("%v.AllowsOnDemandPopulation() = %v, want %v", tt.mode, got, tt.onDemand)
		}
		if got := tt.mode.UsesOSFontSource(); got != tt.os {
			t.Errorf("%v.UsesOSFontSource() = %v, want %v", tt.mode, got, tt.os)
		}
	}
}

func TestRenderMode(t *testing.T) {
	tests := []struct {
		mode   RenderMode
		name   string
		bitmap bool
		border int
	}{
		{RenderSmooth, "Smooth", true, 1},
		{RenderHinted, "Hinted", true, 1},
		{RenderSDF, "SDF", false, 0},
		{RenderMode(-1), "Unknown", false, 0},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.name {
			t.Errorf("RenderMode(%d).String() = %q, want %q", tt.mode, got, tt.name)
		}
		if got := tt.mode.IsBitmap(); got != tt.bitmap {
			t.Errorf("%v.IsBitmap() = %v, want %v", tt.mode, got, tt.bitmap)
		}
		if got := tt.mode.surfaceBorder(); got != tt.border {
			t.Errorf("%v.surfaceBorder() = %d, want %d", tt.mode, got, tt.border)
		}
	}
}

// --- CharKey Tests ---

func TestCharKey(t *testing.T) {
	plain := PlainKey('A')
	if plain.IsComposite() || plain.Rune() != 'A' {
		t.Errorf("PlainKey('A') = %#x, want plain key for 'A'", uint64(plain))
	}

	bold := CompositeKey('A', xfont.StyleNormal, xfont.WeightBold, true)
	if !bold.IsComposite() || bold.Rune() != 'A' {
		t.Errorf("CompositeKey('A', bold) = %#x, want composite key for 'A'", uint64(bold))
	}

	// the normal-weight composite key must not collide with the plain key
	normal := CompositeKey('A', xfont.StyleNormal, xfont.WeightNormal, false)
	if normal == plain {
		t.Error("CompositeKey(normal) == PlainKey")
	}

	seen := map[CharKey]string{}
	for _, style := range []xfont.Style{xfont.StyleNormal, xfont.StyleItalic} {
		for w := xfont.WeightThin; w <= xfont.WeightBlack; w++ {
			for _, alt := range []bool{false, true} {
				k := CompositeKey('A', style, w, alt)
				if prev, dup := seen[k]; dup {
					t.Errorf("CompositeKey collision for style %v weight %v alt %v with %s", style, w, alt, prev)
				}
				seen[k] = "earlier"
			}
		}
	}
	if CompositeKey(0x10FFFF, xfont.StyleItalic, xfont.WeightBlack, true).Rune() != 0x10FFFF {
		t.Error("composite key lost the code point")
	}
}

func TestWeightBucket(t *testing.T) {
	tests := []struct {
		w    xfont.Weight
		want int
	}{
		{xfont.WeightThin, 0},
		{xfont.WeightNormal, 3},
		{xfont.WeightBold, 6},
		{xfont.WeightBlack, 8},
		{xfont.Weight(-10), 0},
		{xfont.Weight(10), 8},
	}
	for _, tt := range tests {
		if got := weightBucket(tt.w); got != tt.want {
			t.Errorf("weightBucket(%d) = %d, want %d", tt.w, got, tt.want)
		}
	}
}

func TestIsStyled(t *testing.T) {
	if isStyled(xfont.StyleNormal, xfont.WeightNormal) {
		t.Error("isStyled(normal, normal) = true")
	}
	if !isStyled(xfont.StyleItalic, xfont.WeightNormal) || !isStyled(xfont.StyleNormal, xfont.WeightBold) {
		t.Error("isStyled() = false for a styled request")
	}
}

func TestCharacterTombstone(t *testing.T) {
	tests := []struct {
		name string
		ch   Character
		want bool
	}{
		{"live", Character{Owner: 1, Glyph: &Glyph{}}, false},
		{"no owner", Character{Glyph: &Glyph{}}, true},
		{"no glyph", Character{Owner: 1}, true},
	}
	for _, tt := range tests {
		if got := tt.ch.isTombstone(); got != tt.want {
			t.Errorf("%s: isTombstone() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
