package text

import (
	"cmp"
	"hash/fnv"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/gogpu/fontatlas/internal/logging"
)

// HashName returns the lookup hash of a font, family or style name.
// Hashing is insensitive to case and surrounding space.
func HashName(name string) uint32 {
	folded := cases.Fold().String(strings.TrimSpace(name))
	h := fnv.New32a()
	_, _ = h.Write([]byte(folded))
	return h.Sum32()
}

func familyStyleKey(familyHash, styleHash uint32) uint64 {
	return uint64(familyHash)<<32 | uint64(styleHash)
}

// indexKeys are the hashes an asset was indexed under.
type indexKeys struct {
	name, family, style uint32
}

// Registry indexes assets by name and by family/style.
//
// Registry is not safe for concurrent use.
type Registry struct {
	assets        map[AssetID]*FontAsset
	byName        map[uint32]AssetID
	byFamilyStyle map[uint64]AssetID
	keys          map[AssetID]indexKeys
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		assets:        make(map[AssetID]*FontAsset),
		byName:        make(map[uint32]AssetID),
		byFamilyStyle: make(map[uint64]AssetID),
		keys:          make(map[AssetID]indexKeys),
	}
}

// Register adds a or refreshes its index entries. Hashes are recomputed
// from the current names; stale entries from an earlier registration are
// removed first. The most recent registration wins a name collision.
func (r *Registry) Register(a *FontAsset) {
	if a == nil || a.destroyed {
		return
	}
	if old, ok := r.keys[a.id]; ok {
		r.unindex(a.id, old)
	}

	a.nameHash = HashName(a.name)
	a.familyHash = HashName(a.FamilyName())
	a.styleHash = HashName(a.StyleName())
	k := indexKeys{name: a.nameHash, family: a.familyHash, style: a.styleHash}

	r.assets[a.id] = a
	r.byName[k.name] = a.id
	r.byFamilyStyle[familyStyleKey(k.family, k.style)] = a.id
	r.keys[a.id] = k

	logging.Logger().Info("text: asset registered", "name", a.name, "id", a.id,
		"family", a.FamilyName(), "style", a.StyleName())
}

// Unregister removes a. No-op if absent.
func (r *Registry) Unregister(a *FontAsset) {
	if a == nil {
		return
	}
	r.remove(a.id)
}

func (r *Registry) remove(id AssetID) {
	k, ok := r.keys[id]
	if !ok {
		return
	}
	r.unindex(id, k)
	delete(r.keys, id)
	delete(r.assets, id)
}

// unindex drops map entries only when they still point at id.
func (r *Registry) unindex(id AssetID, k indexKeys) {
	if r.byName[k.name] == id {
		delete(r.byName, k.name)
	}
	fs := familyStyleKey(k.family, k.style)
	if r.byFamilyStyle[fs] == id {
		delete(r.byFamilyStyle, fs)
	}
}

// Lookup returns the registered asset with the given ID, or nil.
func (r *Registry) Lookup(id AssetID) *FontAsset {
	return r.assets[id]
}

// FindByName returns the asset registered under a name hash.
func (r *Registry) FindByName(hash uint32) (*FontAsset, bool) {
	a, ok := r.assets[r.byName[hash]]
	return a, ok
}

// FindByFamilyStyle returns the asset registered under a family and style hash.
func (r *Registry) FindByFamilyStyle(familyHash, styleHash uint32) (*FontAsset, bool) {
	a, ok := r.assets[r.byFamilyStyle[familyStyleKey(familyHash, styleHash)]]
	return a, ok
}

// Assets returns the registered assets ordered by ID.
func (r *Registry) Assets() []*FontAsset {
	out := make([]*FontAsset, 0, len(r.assets))
	for _, a := range r.assets {
		out = append(out, a)
	}
	slices.SortFunc(out, func(x, y *FontAsset) int { return cmp.Compare(x.id, y.id) })
	return out
}

// Len returns the number of registered assets.
func (r *Registry) Len() int { return len(r.assets) }

// RebuildAll reinitializes the character store of every registered asset
// and drops assets that were destroyed, along with cached characters owned
// by assets that are gone. Returns the number rebuilt.
func (r *Registry) RebuildAll() int {
	for _, a := range r.Assets() {
		if a.destroyed {
			r.remove(a.id)
		}
	}
	n := 0
	for _, a := range r.Assets() {
		a.InitializeCharacterStore()
		a.purgeForeign(func(id AssetID) bool {
			return r.assets[id] != nil || a.hasLiveVariant(id)
		})
		r.Register(a)
		n++
	}
	logging.Logger().Info("text: registry rebuilt", "assets", n)
	return n
}
