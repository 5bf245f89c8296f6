package text

import (
	"sync/atomic"

	xfont "golang.org/x/image/font"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/fontatlas/text/atlas"
)

// nextAssetID hands out process-unique asset identities.
var nextAssetID atomic.Uint32

// WeightVariant links the regular and italic typefaces of one weight.
type WeightVariant struct {
	Regular *FontAsset
	Italic  *FontAsset
}

// FontAsset is one typeface at one point size with its atlas.
//
// FontAsset is not safe for concurrent use.
type FontAsset struct {
	id   AssetID
	name string
	cfg  AssetConfig

	// hashes as of the last registration
	nameHash, familyHash, styleHash uint32

	source     SourceRef
	rast       Rasterizer
	faceLoaded bool
	faceErr    error
	unitsPerEm int

	glyphs     map[GlyphID]*Glyph
	glyphOrder []GlyphID
	chars      map[CharKey]*Character

	packer   *atlas.Packer
	features *FeatureTable

	fallbacks   []*FontAsset
	weights     [9]WeightVariant
	pendingRefs *pendingRefs

	destroyed bool
}

// NewFontAsset creates an asset named name backed by rast.
//
// Dynamic assets try to load their face immediately. A load failure does not
// fail construction: the asset stays usable for table reads and every
// on-demand insertion fails until ReloadFace succeeds. Static assets never
// touch the rasterizer, which may be nil.
func NewFontAsset(name string, rast Rasterizer, src SourceRef, opts ...AssetOption) (*FontAsset, error) {
	cfg := DefaultAssetConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Population.AllowsOnDemandPopulation() {
		if rast == nil {
			return nil, ErrNoRasterizer
		}
		if src.IsZero() {
			return nil, ErrEmptySource
		}
	}

	packer, err := atlas.NewPacker(cfg.packerConfig())
	if err != nil {
		return nil, err
	}

	a := newAsset(name, cfg, rast, src)
	a.packer = packer
	a.loadFace()
	a.InitializeCharacterStore()

	logging.Logger().Debug("text: asset created",
		"name", name, "id", a.id, "population", cfg.Population, "pointSize", cfg.PointSize)
	return a, nil
}

func newAsset(name string, cfg AssetConfig, rast Rasterizer, src SourceRef) *FontAsset {
	return &FontAsset{
		id:         AssetID(nextAssetID.Add(1)),
		name:       name,
		cfg:        cfg,
		source:     src,
		rast:       rast,
		unitsPerEm: cfg.UnitsPerEm,
		glyphs:     make(map[GlyphID]*Glyph),
		chars:      make(map[CharKey]*Character),
		features:   NewFeatureTable(),
	}
}

// ID returns the asset identity.
func (a *FontAsset) ID() AssetID { return a.id }

// Name returns the asset name.
func (a *FontAsset) Name() string { return a.name }

// FamilyName returns the family name from options or the loaded face.
func (a *FontAsset) FamilyName() string { return a.cfg.FamilyName }

// StyleName returns the style name from options or the loaded face.
func (a *FontAsset) StyleName() string { return a.cfg.StyleName }

// Config returns the asset configuration.
func (a *FontAsset) Config() AssetConfig { return a.cfg }

// Source returns the font source reference.
func (a *FontAsset) Source() SourceRef { return a.source }

// PopulationMode returns how the asset is populated.
func (a *FontAsset) PopulationMode() PopulationMode { return a.cfg.Population }

// AllowsOnDemandPopulation reports whether lookups may rasterize.
func (a *FontAsset) AllowsOnDemandPopulation() bool {
	return a.cfg.Population.AllowsOnDemandPopulation()
}

// UsesOSFontSource reports whether the source is a system font.
func (a *FontAsset) UsesOSFontSource() bool { return a.cfg.Population.UsesOSFontSource() }

// PointSize returns the sampling point size.
func (a *FontAsset) PointSize() float32 { return a.cfg.PointSize }

// UnitsPerEm returns the font design grid size, or 0 if unknown.
func (a *FontAsset) UnitsPerEm() int { return a.unitsPerEm }

// FaceLoaded reports whether the rasterizer face is ready.
func (a *FontAsset) FaceLoaded() bool { return a.faceLoaded }

// FaceError returns the last face load failure, if any.
func (a *FontAsset) FaceError() error { return a.faceErr }

// Features returns the feature table.
func (a *FontAsset) Features() *FeatureTable { return a.features }

// Surfaces returns the atlas surfaces in index order.
func (a *FontAsset) Surfaces() []*atlas.Surface {
	if a.packer == nil {
		return nil
	}
	return a.packer.Surfaces()
}

// AtlasTextureCount returns the number of atlas surfaces.
func (a *FontAsset) AtlasTextureCount() int { return len(a.Surfaces()) }

// Surface returns the atlas surface at index i, or nil.
func (a *FontAsset) Surface(i int) *atlas.Surface {
	if a.packer == nil {
		return nil
	}
	return a.packer.Surface(i)
}

// IsDestroyed reports whether Destroy was called.
func (a *FontAsset) IsDestroyed() bool { return a.destroyed }

// Fallbacks returns the declared fallback list.
func (a *FontAsset) Fallbacks() []*FontAsset { return a.fallbacks }

// SetFallbacks replaces the fallback list. Order is significant: earlier
// entries win.
func (a *FontAsset) SetFallbacks(list ...*FontAsset) {
	a.fallbacks = append(a.fallbacks[:0:0], list...)
}

// AddFallback appends one fallback.
func (a *FontAsset) AddFallback(f *FontAsset) {
	a.fallbacks = append(a.fallbacks, f)
}

// SetWeightVariant links an alternate typeface for a style and weight.
func (a *FontAsset) SetWeightVariant(style xfont.Style, weight xfont.Weight, v *FontAsset) {
	slot := &a.weights[weightBucket(weight)]
	if style == xfont.StyleNormal {
		slot.Regular = v
	} else {
		slot.Italic = v
	}
}

// WeightVariant returns the alternate typeface for a style and weight.
func (a *FontAsset) WeightVariant(style xfont.Style, weight xfont.Weight) *FontAsset {
	slot := a.weights[weightBucket(weight)]
	if style == xfont.StyleNormal {
		return slot.Regular
	}
	return slot.Italic
}

// WeightTable returns the regular/italic matrix indexed Thin..Black.
func (a *FontAsset) WeightTable() [9]WeightVariant { return a.weights }

// hasLiveVariant reports whether id names a live weight-table entry.
func (a *FontAsset) hasLiveVariant(id AssetID) bool {
	for _, w := range a.weights {
		for _, v := range [2]*FontAsset{w.Regular, w.Italic} {
			if v != nil && v.id == id && !v.destroyed {
				return true
			}
		}
	}
	return false
}

// loadFace loads the rasterizer face for dynamic assets. Failures are kept
// in faceErr and not retried until ReloadFace or SetSource.
func (a *FontAsset) loadFace() bool {
	if a.faceLoaded {
		return true
	}
	if !a.AllowsOnDemandPopulation() || a.rast == nil || a.faceErr != nil || a.destroyed {
		return false
	}

	src := a.source
	if a.UsesOSFontSource() && len(src.Data) == 0 && src.Path == "" {
		path, err := LocateSystemFont(src.SystemName)
		if err != nil {
			a.faceErr = &LoadError{Asset: a.name, Source: src.String(), Err: err}
			logging.Logger().Warn("text: system font lookup failed", "asset", a.name, "err", err)
			return false
		}
		src.Path = path
	}

	if err := a.rast.LoadFace(src, a.cfg.PointSize, a.cfg.FaceIndex); err != nil {
		a.faceErr = &LoadError{Asset: a.name, Source: src.String(), Err: err}
		logging.Logger().Warn("text: face load failed", "asset", a.name, "source", src.String(), "err", err)
		return false
	}

	info := a.rast.FaceInfo()
	a.unitsPerEm = info.UnitsPerEm
	if a.cfg.FamilyName == "" {
		a.cfg.FamilyName = info.FamilyName
	}
	if a.cfg.StyleName == "" {
		a.cfg.StyleName = info.StyleName
	}
	a.faceLoaded = true
	return true
}

// ReloadFace clears a previous load failure and tries again.
func (a *FontAsset) ReloadFace() error {
	if !a.AllowsOnDemandPopulation() {
		return ErrStaticAsset
	}
	if a.destroyed {
		return ErrAssetDestroyed
	}
	a.faceLoaded = false
	a.faceErr = nil
	if !a.loadFace() {
		return a.faceErr
	}
	return nil
}

// SetSource points the asset at new font data. The face is reloaded on the
// next dynamic operation.
func (a *FontAsset) SetSource(src SourceRef) {
	a.source = src
	a.faceLoaded = false
	a.faceErr = nil
}

// featureScale converts design units to pixels.
func (a *FontAsset) featureScale() float32 {
	if a.unitsPerEm <= 0 {
		return 1
	}
	return a.cfg.PointSize / float32(a.unitsPerEm)
}

// Destroy releases the atlas surfaces and empties every table. Other assets
// still holding characters owned by this asset purge them on lookup.
func (a *FontAsset) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	a.packer = nil
	clear(a.glyphs)
	clear(a.chars)
	a.glyphOrder = nil
	a.features.Clear()
	a.fallbacks = nil
	a.weights = [9]WeightVariant{}
	logging.Logger().Debug("text: asset destroyed", "name", a.name, "id", a.id)
}
