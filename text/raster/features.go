package raster

import (
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/font/opentype/tables"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"

	"github.com/gogpu/fontatlas/text"
)

// glyphSets merges added and known into an ordered candidate list and
// reports membership.
func glyphSets(added, known []text.GlyphID) (candidates []text.GlyphID, isAdded, have map[text.GlyphID]bool) {
	isAdded = make(map[text.GlyphID]bool, len(added))
	have = make(map[text.GlyphID]bool, len(added)+len(known))
	for _, g := range added {
		isAdded[g] = true
	}
	for _, list := range [2][]text.GlyphID{added, known} {
		for _, g := range list {
			if !have[g] {
				have[g] = true
				candidates = append(candidates, g)
			}
		}
	}
	return candidates, isAdded, have
}

// Ligatures returns GSUB ligature substitutions whose components are all
// available and include a glyph of added.
func (f *Face) Ligatures(added, known []text.GlyphID) []text.LigatureRecord {
	if f.layout == nil || len(added) == 0 {
		return nil
	}
	candidates, isAdded, have := glyphSets(added, known)

	var out []text.LigatureRecord
	for _, lk := range f.layout.GSUB.Lookups {
		for _, st := range lk.Subtables {
			lig, ok := st.(tables.LigatureSubs)
			if !ok {
				continue
			}
			for _, first := range candidates {
				if first > 0xFFFF {
					continue
				}
				idx, ok := lig.Coverage.Index(tables.GlyphID(first))
				if !ok || idx >= len(lig.LigatureSets) {
					continue
				}
				for _, l := range lig.LigatureSets[idx].Ligatures {
					comps := make([]text.GlyphID, 0, len(l.ComponentGlyphIDs)+1)
					comps = append(comps, first)
					hit := isAdded[first]
					usable := true
					for _, c := range l.ComponentGlyphIDs {
						g := text.GlyphID(c)
						if !have[g] {
							usable = false
							break
						}
						hit = hit || isAdded[g]
						comps = append(comps, g)
					}
					if usable && hit {
						out = append(out, text.LigatureRecord{Components: comps, Ligature: text.GlyphID(l.LigatureGlyph)})
					}
				}
			}
		}
	}
	return out
}

// pairFunc returns the value records of an ordered pair in one PairPos
// subtable. ok is false when the subtable does not apply to the pair.
type pairFunc func(first, second tables.GlyphID) (v1, v2 tables.ValueRecord, ok bool)

// attachFunc returns the anchors joining mark to base in one mark
// attachment subtable.
type attachFunc func(mark, base tables.GlyphID) (markAnchor, baseAnchor text.Anchor, ok bool)

// gposLookups holds the positioning subtables the feature queries use, in
// lookup order.
type gposLookups struct {
	pairs  []pairFunc
	toBase []attachFunc
	toMark []attachFunc
}

func newGPOSLookups(gpos gtfont.GPOS) gposLookups {
	var out gposLookups
	for _, lk := range gpos.Lookups {
		for _, st := range lk.Subtables {
			switch st := st.(type) {
			case tables.PairPos:
				if fn := pairLookup(st); fn != nil {
					out.pairs = append(out.pairs, fn)
				}
			case tables.MarkBasePos:
				out.toBase = append(out.toBase, markBaseLookup(st))
			case tables.MarkMarkPos:
				out.toMark = append(out.toMark, markMarkLookup(st))
			}
		}
	}
	return out
}

func pairLookup(pp tables.PairPos) pairFunc {
	cov := pp.Cov()
	if cov == nil {
		return nil
	}
	switch d := pp.Data.(type) {
	case tables.PairPosData1:
		return func(first, second tables.GlyphID) (tables.ValueRecord, tables.ValueRecord, bool) {
			idx, ok := cov.Index(first)
			if !ok || idx >= len(d.PairSets) {
				return tables.ValueRecord{}, tables.ValueRecord{}, false
			}
			rec, ok := d.PairSets[idx].FindGlyph(second)
			return rec.ValueRecord1, rec.ValueRecord2, ok
		}
	case tables.PairPosData2:
		if d.ClassDef1 == nil || d.ClassDef2 == nil {
			return nil
		}
		return func(first, second tables.GlyphID) (tables.ValueRecord, tables.ValueRecord, bool) {
			if _, ok := cov.Index(first); !ok {
				return tables.ValueRecord{}, tables.ValueRecord{}, false
			}
			// glyphs missing from a class definition are class 0
			c1, _ := d.ClassDef1.Class(first)
			c2, _ := d.ClassDef2.Class(second)
			rec := d.Record(c1, c2)
			return rec.ValueRecord1, rec.ValueRecord2, true
		}
	}
	return nil
}

func markBaseLookup(lk tables.MarkBasePos) attachFunc {
	marks := lk.Cov()
	anchors := lk.BaseArray.Anchors()
	return func(mark, base tables.GlyphID) (text.Anchor, text.Anchor, bool) {
		if marks == nil || lk.BaseCoverage == nil {
			return text.Anchor{}, text.Anchor{}, false
		}
		mi, ok := marks.Index(mark)
		if !ok {
			return text.Anchor{}, text.Anchor{}, false
		}
		bi, ok := lk.BaseCoverage.Index(base)
		if !ok {
			return text.Anchor{}, text.Anchor{}, false
		}
		return attach(lk.MarkArray, mi, anchors, bi)
	}
}

func markMarkLookup(lk tables.MarkMarkPos) attachFunc {
	anchors := lk.Mark2Array.Anchors()
	return func(mark, base tables.GlyphID) (text.Anchor, text.Anchor, bool) {
		if lk.Mark1Coverage == nil || lk.Mark2Coverage == nil {
			return text.Anchor{}, text.Anchor{}, false
		}
		mi, ok := lk.Mark1Coverage.Index(mark)
		if !ok || mi >= len(lk.Mark1Array.MarkRecords) {
			return text.Anchor{}, text.Anchor{}, false
		}
		if lk.Mark1Array.MarkRecords[mi].MarkClass >= lk.MarkClassCount {
			return text.Anchor{}, text.Anchor{}, false
		}
		bi, ok := lk.Mark2Coverage.Index(base)
		if !ok {
			return text.Anchor{}, text.Anchor{}, false
		}
		return attach(lk.Mark1Array, mi, anchors, bi)
	}
}

// attach resolves the anchor pair of mark record mi against base record bi.
func attach(marks tables.MarkArray, mi int, bases tables.AnchorMatrix, bi int) (text.Anchor, text.Anchor, bool) {
	if mi >= len(marks.MarkRecords) || mi >= len(marks.MarkAnchors) || bi >= bases.Len() {
		return text.Anchor{}, text.Anchor{}, false
	}
	ma, ok := anchorOf(marks.MarkAnchors[mi])
	if !ok {
		return text.Anchor{}, text.Anchor{}, false
	}
	ba, ok := anchorOf(anchorAt(bases, bi, int(marks.MarkRecords[mi].MarkClass)))
	return ma, ba, ok
}

// anchorAt guards AnchorMatrix.Anchor, which does not bound class against
// the length of the record.
func anchorAt(m tables.AnchorMatrix, index, class int) (a tables.Anchor) {
	defer func() {
		if recover() != nil {
			a = nil
		}
	}()
	return m.Anchor(index, class)
}

func anchorOf(a tables.Anchor) (text.Anchor, bool) {
	switch a := a.(type) {
	case tables.AnchorFormat1:
		return text.Anchor{X: float32(a.XCoordinate), Y: float32(a.YCoordinate)}, true
	case tables.AnchorFormat2:
		return text.Anchor{X: float32(a.XCoordinate), Y: float32(a.YCoordinate)}, true
	case tables.AnchorFormat3:
		return text.Anchor{X: float32(a.XCoordinate), Y: float32(a.YCoordinate)}, true
	}
	return text.Anchor{}, false
}

func adjustmentOf(v tables.ValueRecord) text.GlyphAdjustment {
	return text.GlyphAdjustment{
		XPlacement: float32(v.XPlacement),
		YPlacement: float32(v.YPlacement),
		XAdvance:   float32(v.XAdvance),
		YAdvance:   float32(v.YAdvance),
	}
}

// PairAdjustments returns GPOS pair positioning in design units. Faces
// without PairPos subtables fall back to the kern table.
func (f *Face) PairAdjustments(added, known []text.GlyphID) []text.PairAdjustmentRecord {
	if len(added) == 0 {
		return nil
	}
	if len(f.gpos.pairs) > 0 {
		return pairRecords(f.gpos.pairs, added, known)
	}
	return f.kernRecords(added, known)
}

// pairRecords applies the first subtable matching each candidate pair
// that involves a glyph of added. Pairs whose records are all zero are
// dropped.
func pairRecords(lookups []pairFunc, added, known []text.GlyphID) []text.PairAdjustmentRecord {
	candidates, isAdded, _ := glyphSets(added, known)

	var out []text.PairAdjustmentRecord
	for _, a := range candidates {
		if a > 0xFFFF {
			continue
		}
		for _, b := range candidates {
			if b > 0xFFFF || (!isAdded[a] && !isAdded[b]) {
				continue
			}
			for _, fn := range lookups {
				v1, v2, ok := fn(tables.GlyphID(a), tables.GlyphID(b))
				if !ok {
					continue
				}
				first, second := adjustmentOf(v1), adjustmentOf(v2)
				if first != (text.GlyphAdjustment{}) || second != (text.GlyphAdjustment{}) {
					out = append(out, text.PairAdjustmentRecord{
						First:            a,
						Second:           b,
						FirstAdjustment:  first,
						SecondAdjustment: second,
					})
				}
				break
			}
		}
	}
	return out
}

// kernRecords returns kern table pairs in design units.
func (f *Face) kernRecords(added, known []text.GlyphID) []text.PairAdjustmentRecord {
	if f.font == nil || !f.hasKern {
		return nil
	}
	candidates, isAdded, _ := glyphSets(added, known)
	ppem := f.designPPEM()

	var out []text.PairAdjustmentRecord
	for _, a := range candidates {
		for _, b := range candidates {
			if !isAdded[a] && !isAdded[b] {
				continue
			}
			k, err := f.font.Kern(&f.buf, sfnt.GlyphIndex(a), sfnt.GlyphIndex(b), ppem, xfont.HintingNone)
			if err != nil || k == 0 {
				continue
			}
			out = append(out, text.PairAdjustmentRecord{
				First:           a,
				Second:          b,
				FirstAdjustment: text.GlyphAdjustment{XAdvance: fixedToFloat(k)},
			})
		}
	}
	return out
}

// MarkToBase returns GPOS mark-to-base attachments in design units.
func (f *Face) MarkToBase(added, known []text.GlyphID) []text.MarkAttachmentRecord {
	if len(f.gpos.toBase) == 0 || len(added) == 0 {
		return nil
	}
	return attachRecords(f.gpos.toBase, added, known)
}

// MarkToMark returns GPOS mark-to-mark attachments in design units.
func (f *Face) MarkToMark(added, known []text.GlyphID) []text.MarkAttachmentRecord {
	if len(f.gpos.toMark) == 0 || len(added) == 0 {
		return nil
	}
	return attachRecords(f.gpos.toMark, added, known)
}

// attachRecords pairs every candidate mark with every candidate base where
// one of the two is in added. The first subtable attaching a pair wins.
func attachRecords(lookups []attachFunc, added, known []text.GlyphID) []text.MarkAttachmentRecord {
	candidates, isAdded, _ := glyphSets(added, known)

	var out []text.MarkAttachmentRecord
	for _, m := range candidates {
		if m > 0xFFFF {
			continue
		}
		for _, b := range candidates {
			if b == m || b > 0xFFFF || (!isAdded[m] && !isAdded[b]) {
				continue
			}
			for _, fn := range lookups {
				ma, ba, ok := fn(tables.GlyphID(m), tables.GlyphID(b))
				if !ok {
					continue
				}
				out = append(out, text.MarkAttachmentRecord{Base: b, BaseAnchor: ba, Mark: m, MarkAnchor: ma})
				break
			}
		}
	}
	return out
}
