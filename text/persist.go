package text

import (
	"encoding/base64"
	"fmt"
	"io"

	xfont "golang.org/x/image/font"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/fontatlas/text/atlas"
)

// assetFormatVersion is bumped on incompatible layout changes.
const assetFormatVersion = 1

type assetFile struct {
	Version    int            `yaml:"version"`
	Name       string         `yaml:"name"`
	Config     AssetConfig    `yaml:"config"`
	Source     sourceRecord   `yaml:"source"`
	UnitsPerEm int            `yaml:"unitsPerEm"`
	Glyphs     []glyphRecord  `yaml:"glyphs,omitempty"`
	Characters []charRecord   `yaml:"characters,omitempty"`
	Surfaces   []surfaceRec   `yaml:"surfaces,omitempty"`
	Features   FeatureRecords `yaml:"features"`
	Fallbacks  []string       `yaml:"fallbacks,omitempty"`
	Weights    []weightRecord `yaml:"weights,omitempty"`
}

type sourceRecord struct {
	Path       string `yaml:"path,omitempty"`
	SystemName string `yaml:"systemName,omitempty"`
	Data       string `yaml:"data,omitempty"`
}

type glyphRecord struct {
	ID      GlyphID      `yaml:"id"`
	Metrics GlyphMetrics `yaml:"metrics,flow"`
	Rect    atlas.Rect   `yaml:"rect,flow"`
	Scale   float32      `yaml:"scale"`
	Atlas   int          `yaml:"atlas"`
}

type charRecord struct {
	Unicode rune    `yaml:"u"`
	Key     CharKey `yaml:"key"`
	Glyph   GlyphID `yaml:"glyph"`
}

type surfaceRec struct {
	Width  int          `yaml:"width"`
	Height int          `yaml:"height"`
	Border int          `yaml:"border"`
	Pixels string       `yaml:"pixels"`
	Free   []atlas.Rect `yaml:"free,flow"`
	Used   []atlas.Rect `yaml:"used,flow"`
}

type weightRecord struct {
	Weight int    `yaml:"weight"`
	Italic bool   `yaml:"italic,omitempty"`
	Name   string `yaml:"name"`
}

// Save writes the complete asset state as YAML: configuration, glyph and
// character tables, atlas pixels with their free and used rectangle lists,
// feature records, and fallback/weight references by asset name.
//
// Characters cached from alternate typefaces and synthesized control
// characters are not written; they are recreated on demand.
func (a *FontAsset) Save(w io.Writer) error {
	if a.destroyed {
		return ErrAssetDestroyed
	}
	f := assetFile{
		Version:    assetFormatVersion,
		Name:       a.name,
		Config:     a.cfg,
		UnitsPerEm: a.unitsPerEm,
		Source: sourceRecord{
			Path:       a.source.Path,
			SystemName: a.source.SystemName,
		},
		Features: a.features.Records(),
	}
	if len(a.source.Data) > 0 {
		f.Source.Data = base64.StdEncoding.EncodeToString(a.source.Data)
	}

	for _, id := range a.glyphOrder {
		g := a.glyphs[id]
		f.Glyphs = append(f.Glyphs, glyphRecord{ID: g.ID, Metrics: g.Metrics, Rect: g.Rect, Scale: g.Scale, Atlas: g.AtlasIndex})
	}
	for _, ch := range a.sortedOwnCharacters() {
		f.Characters = append(f.Characters, charRecord{Unicode: ch.Unicode, Key: ch.Key, Glyph: ch.GlyphIndex})
	}
	for _, s := range a.Surfaces() {
		f.Surfaces = append(f.Surfaces, surfaceRec{
			Width:  s.Width(),
			Height: s.Height(),
			Border: s.Border(),
			Pixels: base64.StdEncoding.EncodeToString(s.Pixels().Pix),
			Free:   s.FreeRects(),
			Used:   s.UsedRects(),
		})
	}
	for _, fb := range a.fallbacks {
		if fb != nil {
			f.Fallbacks = append(f.Fallbacks, fb.name)
		}
	}
	for i, wv := range a.weights {
		if wv.Regular != nil {
			f.Weights = append(f.Weights, weightRecord{Weight: i - 3, Name: wv.Regular.name})
		}
		if wv.Italic != nil {
			f.Weights = append(f.Weights, weightRecord{Weight: i - 3, Italic: true, Name: wv.Italic.name})
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&f); err != nil {
		return fmt.Errorf("text: save asset %s: %w", a.name, err)
	}
	return enc.Close()
}

func (a *FontAsset) sortedOwnCharacters() []*Character {
	out := make([]*Character, 0, len(a.chars))
	for _, ch := range a.chars {
		if ch.Owner == a.id && !ch.Synthesized && !ch.isTombstone() {
			out = append(out, ch)
		}
	}
	sortCharacters(out)
	return out
}

// LoadFontAsset reads an asset written by Save. rast may be nil for
// static assets.
//
// Fallback and weight-table references are kept by name until
// ResolveReferences links them. When the packing state or glyph
// references fail validation, the tables are rebuilt from scratch: atlas
// cleared, control characters synthesized and the persisted code points
// added again through the rasterizer.
func LoadFontAsset(r io.Reader, rast Rasterizer) (*FontAsset, error) {
	var f assetFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("text: load asset: %w", err)
	}
	if f.Version > assetFormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	if err := f.Config.Validate(); err != nil {
		return nil, err
	}

	src := SourceRef{Path: f.Source.Path, SystemName: f.Source.SystemName}
	if f.Source.Data != "" {
		data, err := base64.StdEncoding.DecodeString(f.Source.Data)
		if err != nil {
			return nil, fmt.Errorf("text: load asset %s: source data: %w", f.Name, err)
		}
		src.Data = data
	}
	if f.Config.Population.AllowsOnDemandPopulation() && rast == nil {
		return nil, ErrNoRasterizer
	}

	a := newAsset(f.Name, f.Config, rast, src)
	if f.UnitsPerEm > 0 {
		a.unitsPerEm = f.UnitsPerEm
	}
	a.pendingRefs = &pendingRefs{fallbacks: f.Fallbacks, weights: f.Weights}

	if err := a.restore(&f); err != nil {
		logging.Logger().Warn("text: rebuilding asset from invalid state", "asset", f.Name, "err", err)
		if err := a.rebuild(&f); err != nil {
			return nil, err
		}
	}
	a.loadFace()
	a.InitializeCharacterStore()
	return a, nil
}

// restore installs persisted tables exactly, or reports ErrInvalidState.
func (a *FontAsset) restore(f *assetFile) error {
	border := a.cfg.RenderMode.surfaceBorder()
	surfaces := make([]*atlas.Surface, 0, len(f.Surfaces))
	for i, rec := range f.Surfaces {
		if rec.Border != border {
			return fmt.Errorf("%w: surface %d border %d, want %d", ErrInvalidState, i, rec.Border, border)
		}
		pix, err := base64.StdEncoding.DecodeString(rec.Pixels)
		if err != nil {
			return fmt.Errorf("%w: surface %d pixels: %v", ErrInvalidState, i, err)
		}
		s, err := atlas.RestoreSurface(i, rec.Width, rec.Height, rec.Border, pix, rec.Free, rec.Used)
		if err != nil {
			return fmt.Errorf("%w: surface %d: %v", ErrInvalidState, i, err)
		}
		surfaces = append(surfaces, s)
	}
	packer, err := atlas.RestorePacker(a.cfg.packerConfig(), surfaces)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	glyphs := make(map[GlyphID]*Glyph, len(f.Glyphs))
	order := make([]GlyphID, 0, len(f.Glyphs))
	for _, g := range f.Glyphs {
		if _, dup := glyphs[g.ID]; dup {
			return fmt.Errorf("%w: duplicate glyph %d", ErrInvalidState, g.ID)
		}
		s := packer.Surface(g.Atlas)
		if s == nil {
			return fmt.Errorf("%w: glyph %d on missing surface %d", ErrInvalidState, g.ID, g.Atlas)
		}
		if g.Rect.Empty() {
			if g.Rect.Width < 0 || g.Rect.Height < 0 || (g.Metrics.Width > 0 && g.Metrics.Height > 0) {
				return fmt.Errorf("%w: glyph %d has no atlas rect", ErrInvalidState, g.ID)
			}
		} else if !s.PackableArea().Contains(g.Rect) {
			return fmt.Errorf("%w: glyph %d rect outside surface", ErrInvalidState, g.ID)
		}
		glyphs[g.ID] = &Glyph{ID: g.ID, Metrics: g.Metrics, Rect: g.Rect, Scale: g.Scale, AtlasIndex: g.Atlas}
		order = append(order, g.ID)
	}

	chars := make(map[CharKey]*Character, len(f.Characters))
	for _, c := range f.Characters {
		g, ok := glyphs[c.Glyph]
		if !ok {
			return fmt.Errorf("%w: character %U references missing glyph %d", ErrInvalidState, c.Unicode, c.Glyph)
		}
		chars[c.Key] = &Character{Unicode: c.Unicode, Key: c.Key, GlyphIndex: c.Glyph, Glyph: g, Owner: a.id}
	}

	a.packer = packer
	a.glyphs = glyphs
	a.glyphOrder = order
	a.chars = chars
	a.features.restore(f.Features)
	return nil
}

// rebuild starts from empty tables and re-adds the persisted code points.
func (a *FontAsset) rebuild(f *assetFile) error {
	packer, err := atlas.NewPacker(a.cfg.packerConfig())
	if err != nil {
		return err
	}
	a.packer = packer
	clear(a.glyphs)
	clear(a.chars)
	a.glyphOrder = nil
	a.features.Clear()
	a.InitializeCharacterStore()

	if !a.AllowsOnDemandPopulation() {
		logging.Logger().Warn("text: static asset rebuilt without glyphs", "asset", a.name)
		return nil
	}
	runes := make([]rune, 0, len(f.Characters))
	for _, c := range f.Characters {
		if !c.Key.IsComposite() {
			runes = append(runes, c.Unicode)
		}
	}
	if missing, ok := a.TryAddCharacters(runes); !ok {
		logging.Logger().Warn("text: rebuild left characters missing", "asset", a.name, "missing", len(missing))
	}
	return nil
}

// pendingRefs holds names of fallback and weight assets until they can be
// resolved through a registry.
type pendingRefs struct {
	fallbacks []string
	weights   []weightRecord
}

// ResolveReferences links fallback and weight-table entries recorded by
// name at load time. Names the registry does not know are skipped and
// reported.
func (a *FontAsset) ResolveReferences(reg *Registry) (unresolved []string) {
	if a.pendingRefs == nil || reg == nil {
		return nil
	}
	for _, name := range a.pendingRefs.fallbacks {
		if fb, ok := reg.FindByName(HashName(name)); ok {
			a.fallbacks = append(a.fallbacks, fb)
		} else {
			unresolved = append(unresolved, name)
		}
	}
	for _, w := range a.pendingRefs.weights {
		v, ok := reg.FindByName(HashName(w.Name))
		if !ok {
			unresolved = append(unresolved, w.Name)
			continue
		}
		style := xfont.StyleNormal
		if w.Italic {
			style = xfont.StyleItalic
		}
		a.SetWeightVariant(style, xfont.Weight(w.Weight), v)
	}
	a.pendingRefs = nil
	return unresolved
}
