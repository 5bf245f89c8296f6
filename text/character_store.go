package text

import (
	"cmp"
	"image"
	"math"
	"slices"

	xfont "golang.org/x/image/font"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/fontatlas/text/atlas"
)

// Control and formatting characters synthesized with empty glyphs when the
// face has no visible glyph for them.
var synthesizedControls = [...]rune{
	0x000A, // line feed
	0x000D, // carriage return
	0x061C, // arabic letter mark
	0x200D, // zero width joiner
	0x2028, // line separator
}

// Characters that always get an empty glyph, even when the face has one.
var glyphBackedControls = [...]rune{
	0x0003, // end of text
	0x0009, // horizontal tab
}

// substitutes are tried when the face has no glyph for a code point.
var substitutes = map[rune]rune{
	0x00A0: 0x0020, // no-break space
	0x00AD: 0x002D, // soft hyphen
	0x2011: 0x002D, // non-breaking hyphen
}

// Resolve returns the character for r, preferring a style/weight qualified
// entry over the plain one. Dynamic assets insert missing characters on
// demand; static assets only read their tables.
func (a *FontAsset) Resolve(r rune, style xfont.Style, weight xfont.Weight) (*Character, bool) {
	if a.destroyed {
		return nil, false
	}
	if isStyled(style, weight) {
		if ch, ok := a.Lookup(CompositeKey(r, style, weight, true)); ok {
			return ch, true
		}
	}
	if ch, ok := a.Lookup(PlainKey(r)); ok {
		return ch, true
	}
	if !a.AllowsOnDemandPopulation() {
		return nil, false
	}
	return a.tryAddCharacter(r)
}

// Lookup reads one key from the character table without inserting.
// Tombstones are purged.
func (a *FontAsset) Lookup(key CharKey) (*Character, bool) {
	ch, ok := a.chars[key]
	if !ok {
		return nil, false
	}
	if ch.isTombstone() {
		delete(a.chars, key)
		return nil, false
	}
	return ch, true
}

// Glyph returns the glyph with the given index.
func (a *FontAsset) Glyph(id GlyphID) (*Glyph, bool) {
	g, ok := a.glyphs[id]
	return g, ok
}

// GlyphCount returns the number of glyphs in the glyph table.
func (a *FontAsset) GlyphCount() int { return len(a.glyphs) }

// CharacterCount returns the number of keys in the character table.
func (a *FontAsset) CharacterCount() int { return len(a.chars) }

// GlyphIDs returns glyph indices in insertion order.
func (a *FontAsset) GlyphIDs() []GlyphID { return append([]GlyphID(nil), a.glyphOrder...) }

// storeAlternate caches a character owned by another asset under key.
func (a *FontAsset) storeAlternate(key CharKey, src *Character, owner AssetID) *Character {
	ch := &Character{
		Unicode:    src.Unicode,
		Key:        key,
		GlyphIndex: src.GlyphIndex,
		Glyph:      src.Glyph,
		Owner:      owner,
	}
	a.chars[key] = ch
	return ch
}

// purge removes a key. No-op if absent.
func (a *FontAsset) purge(key CharKey) { delete(a.chars, key) }

// purgeForeign drops entries owned by other assets that alive rejects.
func (a *FontAsset) purgeForeign(alive func(AssetID) bool) {
	for key, ch := range a.chars {
		if ch.Owner != a.id && !alive(ch.Owner) {
			delete(a.chars, key)
		}
	}
}

// sortCharacters orders characters by key.
func sortCharacters(chars []*Character) {
	slices.SortFunc(chars, func(x, y *Character) int { return cmp.Compare(x.Key, y.Key) })
}

// Characters returns the live entries of the character table ordered by key.
func (a *FontAsset) Characters() []*Character {
	out := make([]*Character, 0, len(a.chars))
	for _, ch := range a.chars {
		if !ch.isTombstone() {
			out = append(out, ch)
		}
	}
	sortCharacters(out)
	return out
}

// glyphIndexFor maps r through the face, trying substitutes on a miss.
func (a *FontAsset) glyphIndexFor(r rune) GlyphID {
	if id := a.rast.GlyphIndex(r); id != 0 {
		return id
	}
	if sub, ok := substitutes[r]; ok {
		return a.rast.GlyphIndex(sub)
	}
	return 0
}

func (a *FontAsset) tryAddCharacter(r rune) (*Character, bool) {
	if !a.loadFace() {
		return nil, false
	}
	id := a.glyphIndexFor(r)
	if id == 0 {
		logging.Logger().Debug("text: no glyph for code point", "asset", a.name, "rune", r)
		return nil, false
	}
	if _, ok := a.glyphs[id]; !ok {
		if missing := a.addGlyphs([]GlyphID{id}); len(missing) > 0 {
			return nil, false
		}
	}
	return a.bind(r, id), true
}

// bind creates the plain character entry for r on an existing glyph.
func (a *FontAsset) bind(r rune, id GlyphID) *Character {
	key := PlainKey(r)
	ch := &Character{Unicode: r, Key: key, GlyphIndex: id, Glyph: a.glyphs[id], Owner: a.id}
	a.chars[key] = ch
	return ch
}

// TryAddCharacters inserts every listed code point that is not present yet.
// Returns the code points that could not be added.
func (a *FontAsset) TryAddCharacters(runes []rune) (missing []rune, ok bool) {
	if a.destroyed || !a.AllowsOnDemandPopulation() || !a.loadFace() {
		return append(missing, runes...), len(runes) == 0
	}

	type pending struct {
		r  rune
		id GlyphID
	}
	var waiting []pending
	var need []GlyphID
	queued := make(map[GlyphID]bool)

	for _, r := range runes {
		if _, have := a.Lookup(PlainKey(r)); have {
			continue
		}
		id := a.glyphIndexFor(r)
		if id == 0 {
			missing = append(missing, r)
			continue
		}
		if _, have := a.glyphs[id]; !have && !queued[id] {
			queued[id] = true
			need = append(need, id)
		}
		waiting = append(waiting, pending{r, id})
	}

	a.addGlyphs(need)
	for _, p := range waiting {
		if _, have := a.glyphs[p.id]; !have {
			missing = append(missing, p.r)
			continue
		}
		a.bind(p.r, p.id)
	}
	return missing, len(missing) == 0
}

// TryAddGlyphs inserts glyphs without binding characters. Returns the
// glyph indices that could not be added.
func (a *FontAsset) TryAddGlyphs(ids []GlyphID) (missing []GlyphID, ok bool) {
	if a.destroyed || !a.AllowsOnDemandPopulation() || !a.loadFace() {
		return append(missing, ids...), len(ids) == 0
	}
	missing = a.addGlyphs(ids)
	return missing, len(missing) == 0
}

// addGlyphs packs, renders and records glyphs not yet in the table, then
// extends the feature table. Returns the ones that could not be placed.
// Panics if the face is not loaded.
func (a *FontAsset) addGlyphs(ids []GlyphID) (missing []GlyphID) {
	if !a.faceLoaded {
		panic("text: glyphs packed before the font face is loaded")
	}

	metrics := make(map[GlyphID]GlyphMetrics, len(ids))
	reqs := make([]atlas.Request, 0, len(ids))
	for _, id := range ids {
		if _, have := a.glyphs[id]; have {
			continue
		}
		if _, dup := metrics[id]; dup {
			continue
		}
		m, ok := a.rast.GlyphMetrics(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		metrics[id] = m
		reqs = append(reqs, atlas.Request{
			ID:     uint32(id),
			Width:  int(math.Ceil(float64(m.Width))),
			Height: int(math.Ceil(float64(m.Height))),
		})
	}
	if len(reqs) == 0 {
		return missing
	}

	placed, remaining := a.packer.Pack(reqs)
	added := make([]GlyphID, 0, len(placed))
	for _, p := range placed {
		id := GlyphID(p.ID)
		g := &Glyph{ID: id, Metrics: metrics[id], Rect: p.Rect, Scale: 1, AtlasIndex: p.Surface}
		if !p.Rect.Empty() {
			s := a.packer.Surface(p.Surface)
			if err := a.rast.RenderGlyph(id, s.Pixels(), image.Pt(p.Rect.X, p.Rect.Y), a.cfg.RenderMode); err != nil {
				logging.Logger().Warn("text: glyph render failed", "asset", a.name, "glyph", id, "err", err)
			}
			s.MarkDirty()
		}
		a.glyphs[id] = g
		a.glyphOrder = append(a.glyphOrder, id)
		added = append(added, id)
	}
	for _, r := range remaining {
		missing = append(missing, GlyphID(r.ID))
	}
	if len(remaining) > 0 {
		logging.Logger().Debug("text: atlas full", "asset", a.name, "unplaced", len(remaining))
	}

	a.UpdateFeatures(added)
	return missing
}

// UpdateFeatures merges feature records involving newIDs. Applying the
// same set twice leaves the table unchanged. Ligature glyphs referenced by
// new records are added to the atlas.
func (a *FontAsset) UpdateFeatures(newIDs []GlyphID) {
	if len(newIDs) == 0 || a.rast == nil || !a.faceLoaded {
		return
	}
	ligs := a.features.Merge(a.rast, newIDs, a.glyphOrder, a.featureScale())

	var ligGlyphs []GlyphID
	for _, l := range ligs {
		if _, have := a.glyphs[l.Ligature]; !have && !containsGlyph(ligGlyphs, l.Ligature) {
			ligGlyphs = append(ligGlyphs, l.Ligature)
		}
	}
	if len(ligGlyphs) > 0 {
		a.addGlyphs(ligGlyphs)
	}
}

func containsGlyph(ids []GlyphID, id GlyphID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// InitializeCharacterStore rebuilds the character table from the glyph
// table, dropping tombstones and dangling entries, and synthesizes the
// control characters.
func (a *FontAsset) InitializeCharacterStore() {
	if a.destroyed {
		return
	}
	for key, ch := range a.chars {
		if ch.Owner != a.id {
			// alternate-typeface entries are revalidated by the resolver
			continue
		}
		if ch.Synthesized {
			delete(a.chars, key)
			continue
		}
		g, ok := a.glyphs[ch.GlyphIndex]
		if !ok {
			delete(a.chars, key)
			continue
		}
		ch.Glyph = g
	}
	a.synthesizeControlCharacters()
}

func (a *FontAsset) synthesizeControlCharacters() {
	faceReady := a.AllowsOnDemandPopulation() && a.loadFace()
	for _, r := range glyphBackedControls {
		a.synthesize(r, faceReady, true)
	}
	for _, r := range synthesizedControls {
		a.synthesize(r, faceReady, false)
	}
}

// synthesize adds a glyph without an atlas rect for r unless the face
// draws something visible for it. force skips the visibility check. The
// glyph carries the face's metrics when the face maps r.
func (a *FontAsset) synthesize(r rune, faceReady, force bool) {
	key := PlainKey(r)
	if _, ok := a.chars[key]; ok {
		return
	}
	var id GlyphID
	if faceReady {
		id = a.rast.GlyphIndex(r)
	}
	var metrics GlyphMetrics
	if id != 0 {
		m, ok := a.rast.GlyphMetrics(id)
		if !force && ok && m.Width > 0 && m.Height > 0 {
			return
		}
		if ok {
			metrics = m
		}
	}
	a.chars[key] = &Character{
		Unicode:     r,
		Key:         key,
		GlyphIndex:  id,
		Glyph:       &Glyph{ID: id, Metrics: metrics, Scale: 1},
		Owner:       a.id,
		Synthesized: true,
	}
}

// ClearDynamicData drops every glyph, character, feature record and atlas
// surface of a dynamic asset, then synthesizes the control characters
// again. Static assets are left untouched.
func (a *FontAsset) ClearDynamicData() error {
	if a.destroyed {
		return ErrAssetDestroyed
	}
	if !a.AllowsOnDemandPopulation() {
		return ErrStaticAsset
	}
	clear(a.glyphs)
	clear(a.chars)
	a.glyphOrder = a.glyphOrder[:0]
	a.features.Clear()
	a.packer.Reset()
	a.synthesizeControlCharacters()
	logging.Logger().Debug("text: dynamic data cleared", "asset", a.name)
	return nil
}
