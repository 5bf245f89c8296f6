package text

import (
	"cmp"
	"slices"
)

// GlyphAdjustment is a placement and advance delta for one glyph.
type GlyphAdjustment struct {
	XPlacement float32 `yaml:"xp,omitempty"`
	YPlacement float32 `yaml:"yp,omitempty"`
	XAdvance   float32 `yaml:"xa,omitempty"`
	YAdvance   float32 `yaml:"ya,omitempty"`
}

func (a GlyphAdjustment) scaled(s float32) GlyphAdjustment {
	return GlyphAdjustment{
		XPlacement: a.XPlacement * s,
		YPlacement: a.YPlacement * s,
		XAdvance:   a.XAdvance * s,
		YAdvance:   a.YAdvance * s,
	}
}

// PairAdjustmentRecord adjusts an ordered glyph pair (kerning).
type PairAdjustmentRecord struct {
	First            GlyphID         `yaml:"first"`
	Second           GlyphID         `yaml:"second"`
	FirstAdjustment  GlyphAdjustment `yaml:"firstAdj"`
	SecondAdjustment GlyphAdjustment `yaml:"secondAdj"`
}

// LigatureRecord replaces Components with a single Ligature glyph.
// Components includes the first glyph.
type LigatureRecord struct {
	Components []GlyphID `yaml:"components,flow"`
	Ligature   GlyphID   `yaml:"ligature"`
}

// Anchor is an attachment point.
type Anchor struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
}

// MarkAttachmentRecord positions Mark so that MarkAnchor meets BaseAnchor on
// Base. For mark-to-mark records Base is itself a mark.
type MarkAttachmentRecord struct {
	Base       GlyphID `yaml:"base"`
	BaseAnchor Anchor  `yaml:"baseAnchor"`
	Mark       GlyphID `yaml:"mark"`
	MarkAnchor Anchor  `yaml:"markAnchor"`
}

// Offset returns the mark displacement relative to the base origin.
func (r MarkAttachmentRecord) Offset() (dx, dy float32) {
	return r.BaseAnchor.X - r.MarkAnchor.X, r.BaseAnchor.Y - r.MarkAnchor.Y
}

// PairKey packs an ordered glyph pair.
func PairKey(first, second GlyphID) uint64 {
	return uint64(first)<<32 | uint64(second)
}

// FeatureRecords is a flat, sorted view of a FeatureTable.
type FeatureRecords struct {
	Ligatures  []LigatureRecord       `yaml:"ligatures,omitempty"`
	Pairs      []PairAdjustmentRecord `yaml:"pairs,omitempty"`
	MarkToBase []MarkAttachmentRecord `yaml:"markToBase,omitempty"`
	MarkToMark []MarkAttachmentRecord `yaml:"markToMark,omitempty"`
}

// FeatureTable holds the ligature, pair adjustment and mark attachment
// lookups of one asset. Entries are only appended; Clear resets everything.
//
// Adjustment values are stored in pixels. Merge scales design units once,
// when a record is first inserted.
type FeatureTable struct {
	ligatures  map[GlyphID][]LigatureRecord
	pairs      map[uint64]PairAdjustmentRecord
	markToBase map[uint64]MarkAttachmentRecord
	markToMark map[uint64]MarkAttachmentRecord
}

// NewFeatureTable creates an empty table.
func NewFeatureTable() *FeatureTable {
	return &FeatureTable{
		ligatures:  make(map[GlyphID][]LigatureRecord),
		pairs:      make(map[uint64]PairAdjustmentRecord),
		markToBase: make(map[uint64]MarkAttachmentRecord),
		markToMark: make(map[uint64]MarkAttachmentRecord),
	}
}

// Merge queries src for records touching added and inserts the ones whose
// key is new. scale converts design units to pixels. Returns the ligature
// records inserted by this call.
func (t *FeatureTable) Merge(src FeatureSource, added, known []GlyphID, scale float32) []LigatureRecord {
	if src == nil || len(added) == 0 {
		return nil
	}
	ligs := t.mergeLigatures(src.Ligatures(added, known))
	t.mergePairs(src.PairAdjustments(added, known), scale)
	mergeMarks(t.markToBase, src.MarkToBase(added, known), scale)
	mergeMarks(t.markToMark, src.MarkToMark(added, known), scale)
	return ligs
}

func (t *FeatureTable) mergeLigatures(recs []LigatureRecord) []LigatureRecord {
	var inserted []LigatureRecord
	for _, r := range recs {
		if len(r.Components) == 0 {
			continue
		}
		first := r.Components[0]
		if slices.ContainsFunc(t.ligatures[first], func(have LigatureRecord) bool {
			return slices.Equal(have.Components, r.Components)
		}) {
			continue
		}
		r.Components = slices.Clone(r.Components)
		t.ligatures[first] = append(t.ligatures[first], r)
		inserted = append(inserted, r)
	}
	return inserted
}

func (t *FeatureTable) mergePairs(recs []PairAdjustmentRecord, scale float32) {
	for _, r := range recs {
		key := PairKey(r.First, r.Second)
		if _, ok := t.pairs[key]; ok {
			continue
		}
		r.FirstAdjustment = r.FirstAdjustment.scaled(scale)
		r.SecondAdjustment = r.SecondAdjustment.scaled(scale)
		t.pairs[key] = r
	}
}

func mergeMarks(dst map[uint64]MarkAttachmentRecord, recs []MarkAttachmentRecord, scale float32) {
	for _, r := range recs {
		key := PairKey(r.Base, r.Mark)
		if _, ok := dst[key]; ok {
			continue
		}
		r.BaseAnchor = Anchor{X: r.BaseAnchor.X * scale, Y: r.BaseAnchor.Y * scale}
		r.MarkAnchor = Anchor{X: r.MarkAnchor.X * scale, Y: r.MarkAnchor.Y * scale}
		dst[key] = r
	}
}

// Ligatures returns the candidate ligatures starting with first. Callers
// pick the one whose components match the upcoming glyphs.
func (t *FeatureTable) Ligatures(first GlyphID) []LigatureRecord {
	return t.ligatures[first]
}

// MatchLigature returns the longest ligature whose components prefix glyphs.
func (t *FeatureTable) MatchLigature(glyphs []GlyphID) (LigatureRecord, bool) {
	if len(glyphs) == 0 {
		return LigatureRecord{}, false
	}
	var best LigatureRecord
	found := false
	for _, r := range t.ligatures[glyphs[0]] {
		n := len(r.Components)
		if n > len(glyphs) || !slices.Equal(r.Components, glyphs[:n]) {
			continue
		}
		if !found || n > len(best.Components) {
			best, found = r, true
		}
	}
	return best, found
}

// PairAdjustment returns the adjustment for the ordered pair.
func (t *FeatureTable) PairAdjustment(first, second GlyphID) (PairAdjustmentRecord, bool) {
	r, ok := t.pairs[PairKey(first, second)]
	return r, ok
}

// MarkToBase returns the attachment of mark onto base.
func (t *FeatureTable) MarkToBase(base, mark GlyphID) (MarkAttachmentRecord, bool) {
	r, ok := t.markToBase[PairKey(base, mark)]
	return r, ok
}

// MarkToMark returns the attachment of mark onto another mark.
func (t *FeatureTable) MarkToMark(base, mark GlyphID) (MarkAttachmentRecord, bool) {
	r, ok := t.markToMark[PairKey(base, mark)]
	return r, ok
}

// Counts returns the number of records per lookup.
func (t *FeatureTable) Counts() (ligatures, pairs, markToBase, markToMark int) {
	for _, l := range t.ligatures {
		ligatures += len(l)
	}
	return ligatures, len(t.pairs), len(t.markToBase), len(t.markToMark)
}

// Clear drops every record.
func (t *FeatureTable) Clear() {
	clear(t.ligatures)
	clear(t.pairs)
	clear(t.markToBase)
	clear(t.markToMark)
}

// Records returns every record in a deterministic order.
func (t *FeatureTable) Records() FeatureRecords {
	var out FeatureRecords
	for _, l := range t.ligatures {
		out.Ligatures = append(out.Ligatures, l...)
	}
	slices.SortStableFunc(out.Ligatures, func(a, b LigatureRecord) int {
		return slices.Compare(a.Components, b.Components)
	})
	for _, r := range t.pairs {
		out.Pairs = append(out.Pairs, r)
	}
	slices.SortFunc(out.Pairs, func(a, b PairAdjustmentRecord) int {
		return cmp.Compare(PairKey(a.First, a.Second), PairKey(b.First, b.Second))
	})
	out.MarkToBase = sortedMarks(t.markToBase)
	out.MarkToMark = sortedMarks(t.markToMark)
	return out
}

// restore inserts already-scaled records.
func (t *FeatureTable) restore(recs FeatureRecords) {
	t.mergeLigatures(recs.Ligatures)
	t.mergePairs(recs.Pairs, 1)
	mergeMarks(t.markToBase, recs.MarkToBase, 1)
	mergeMarks(t.markToMark, recs.MarkToMark, 1)
}

func sortedMarks(m map[uint64]MarkAttachmentRecord) []MarkAttachmentRecord {
	out := make([]MarkAttachmentRecord, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b MarkAttachmentRecord) int {
		return cmp.Compare(PairKey(a.Base, a.Mark), PairKey(b.Base, b.Mark))
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
