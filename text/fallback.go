package text

import (
	xfont "golang.org/x/image/font"

	"github.com/gogpu/fontatlas/internal/logging"
)

// visitedSet records the assets entered by one top-level lookup.
type visitedSet map[AssetID]struct{}

func (v visitedSet) add(id AssetID)      { v[id] = struct{}{} }
func (v visitedSet) has(id AssetID) bool { _, ok := v[id]; return ok }

// Resolver finds characters across fallback chains.
//
// Search order for one code point: the style/weight variant path of the
// primary asset, the primary asset itself, its declared fallbacks
// depth-first, then (top level only) the global fallback list and finally
// the default asset. Every asset is entered at most once per lookup.
type Resolver struct {
	registry     *Registry
	global       []*FontAsset
	defaultAsset *FontAsset

	// lastVisited is the visit count of the most recent lookup.
	lastVisited int
}

// NewResolver creates a resolver. reg is used to check that the owners of
// cached alternate-typeface entries still exist; it may be nil.
func NewResolver(reg *Registry) *Resolver {
	return &Resolver{registry: reg}
}

// SetGlobalFallbacks replaces the process-wide fallback list.
func (r *Resolver) SetGlobalFallbacks(list ...*FontAsset) {
	r.global = append(r.global[:0:0], list...)
}

// GlobalFallbacks returns the process-wide fallback list.
func (r *Resolver) GlobalFallbacks() []*FontAsset { return r.global }

// SetDefault sets the asset consulted after every fallback list.
func (r *Resolver) SetDefault(a *FontAsset) { r.defaultAsset = a }

// Default returns the default asset.
func (r *Resolver) Default() *FontAsset { return r.defaultAsset }

// LastVisitCount returns how many assets the most recent FindCharacter
// entered.
func (r *Resolver) LastVisitCount() int { return r.lastVisited }

// FindCharacter resolves cp starting at primary. isAlternateTypeface is
// true when the character came from a style/weight variant rather than a
// plain lookup. A nil character means no asset in the graph supplies cp.
func (r *Resolver) FindCharacter(cp rune, primary *FontAsset, style xfont.Style, weight xfont.Weight, includeFallbacks bool) (ch *Character, isAlternateTypeface bool) {
	visited := make(visitedSet, 4)
	ch, isAlternateTypeface = r.find(cp, primary, style, weight, includeFallbacks, visited, true)
	r.lastVisited = len(visited)
	if ch == nil {
		logging.Logger().Debug("text: character not found", "rune", cp, "visited", len(visited))
	}
	return ch, isAlternateTypeface
}

func (r *Resolver) find(cp rune, asset *FontAsset, style xfont.Style, weight xfont.Weight, includeFallbacks bool, visited visitedSet, topLevel bool) (*Character, bool) {
	if asset == nil || asset.destroyed {
		return nil, false
	}
	visited.add(asset.id)

	if isStyled(style, weight) {
		if ch, ok := r.findVariant(cp, asset, style, weight); ok {
			return ch, true
		}
	}

	if ch, ok := asset.Resolve(cp, xfont.StyleNormal, xfont.WeightNormal); ok {
		return ch, false
	}

	if !includeFallbacks {
		return nil, false
	}

	for _, fb := range asset.fallbacks {
		if ch, alt, ok := r.visit(cp, fb, style, weight, visited); ok {
			return ch, alt
		}
	}

	if !topLevel {
		return nil, false
	}
	for _, fb := range r.global {
		if ch, alt, ok := r.visit(cp, fb, style, weight, visited); ok {
			return ch, alt
		}
	}
	if ch, alt, ok := r.visit(cp, r.defaultAsset, style, weight, visited); ok {
		return ch, alt
	}
	return nil, false
}

// visit recurses into a fallback unless it was already entered.
func (r *Resolver) visit(cp rune, fb *FontAsset, style xfont.Style, weight xfont.Weight, visited visitedSet) (*Character, bool, bool) {
	if fb == nil || visited.has(fb.id) {
		return nil, false, false
	}
	ch, alt := r.find(cp, fb, style, weight, true, visited, false)
	return ch, alt, ch != nil
}

// findVariant resolves the style/weight path of one asset: a cached
// composite entry, then the linked alternate typeface. The alternate is a
// single hop without further fallback, so it does not use the visited set.
func (r *Resolver) findVariant(cp rune, asset *FontAsset, style xfont.Style, weight xfont.Weight) (*Character, bool) {
	key := CompositeKey(cp, style, weight, true)
	if ch, ok := asset.Lookup(key); ok {
		if r.current(asset, ch) {
			return ch, true
		}
		asset.purge(key)
	}

	alt := asset.WeightVariant(style, weight)
	if alt == nil || alt == asset || alt.destroyed {
		return nil, false
	}
	ch, ok := alt.Lookup(PlainKey(cp))
	if !ok && alt.AllowsOnDemandPopulation() {
		ch, ok = alt.tryAddCharacter(cp)
	}
	if !ok {
		return nil, false
	}
	return asset.storeAlternate(key, ch, alt.id), true
}

// current reports whether a cached composite entry still matches what its
// owner holds for the code point. Entries of destroyed owners, and entries
// whose glyph the owner dropped in ClearDynamicData, are stale.
func (r *Resolver) current(holder *FontAsset, ch *Character) bool {
	owner := r.owner(holder, ch.Owner)
	if owner == nil || owner.destroyed {
		return false
	}
	own, ok := owner.chars[PlainKey(ch.Key.Rune())]
	return ok && own.Glyph == ch.Glyph
}

func (r *Resolver) owner(holder *FontAsset, id AssetID) *FontAsset {
	if id == holder.id {
		return holder
	}
	for _, w := range holder.weights {
		for _, v := range [2]*FontAsset{w.Regular, w.Italic} {
			if v != nil && v.id == id {
				return v
			}
		}
	}
	if r.registry != nil {
		return r.registry.Lookup(id)
	}
	return nil
}
