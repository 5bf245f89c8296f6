package fontatlas

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
	xfont "golang.org/x/image/font"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/fontatlas/text"
	"github.com/gogpu/fontatlas/text/atlas"
	"github.com/gogpu/fontatlas/text/material"
)

// Handle is a resolved glyph together with the material variant that
// samples its atlas surface. A Handle holds one reference on Material until
// passed to Engine.Release.
type Handle struct {
	Character *text.Character
	Asset     *text.FontAsset
	Glyph     *text.Glyph
	SurfaceID uint32
	Material  *material.Material

	// Alternate reports that the glyph came from a style or weight variant
	// typeface.
	Alternate bool
}

// Engine ties the registry, fallback resolver, material variant cache and
// optional GPU texture mirror together. All process-wide state of a
// fontatlas host lives in one Engine.
//
// Engine is not safe for concurrent use.
type Engine struct {
	registry  *text.Registry
	resolver  *text.Resolver
	materials *material.Cache
	textures  *atlas.TextureSet

	template *material.Material
	sources  map[text.AssetID]*material.Material
	closed   bool
}

// New creates an engine.
func New(opts ...Option) (*Engine, error) {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}

	e := &Engine{
		registry: text.NewRegistry(),
		template: o.material,
		sources:  make(map[text.AssetID]*material.Material),
	}
	if e.template == nil {
		e.template = material.New("atlas text", "")
		e.template.SetColor(material.PropFaceColor, material.Color{1, 1, 1, 1})
	}
	e.resolver = text.NewResolver(e.registry)

	var cacheOpts []material.CacheOption
	if o.device != nil {
		ts, err := atlas.NewTextureSet(o.device, o.queue)
		if err != nil {
			return nil, fmt.Errorf("fontatlas: %w", err)
		}
		e.textures = ts
		cacheOpts = append(cacheOpts, material.WithDevice(o.device))
	}
	e.materials = material.NewCache(cacheOpts...)

	for _, a := range o.global {
		if err := e.Register(a); err != nil {
			return nil, err
		}
	}
	e.resolver.SetGlobalFallbacks(o.global...)
	if o.def != nil {
		if err := e.Register(o.def); err != nil {
			return nil, err
		}
		e.resolver.SetDefault(o.def)
	}
	return e, nil
}

// Registry returns the asset registry.
func (e *Engine) Registry() *text.Registry { return e.registry }

// Resolver returns the fallback resolver.
func (e *Engine) Resolver() *text.Resolver { return e.resolver }

// Materials returns the material variant cache.
func (e *Engine) Materials() *material.Cache { return e.materials }

// Register adds an asset and derives its source material. Registering an
// asset again re-indexes its names.
func (e *Engine) Register(a *text.FontAsset) error {
	if e.closed {
		return ErrClosed
	}
	if a == nil {
		return ErrNilAsset
	}
	e.registry.Register(a)
	src, ok := e.sources[a.ID()]
	if !ok {
		src = material.New(a.Name(), e.template.Shader())
		src.CopyPropertiesFrom(e.template)
		e.sources[a.ID()] = src
	}
	src.SetFloat(material.PropGradientScale, float32(a.Config().Padding+1))
	logging.Logger().Info("fontatlas: asset registered", "name", a.Name(), "id", a.ID())
	return nil
}

// Unregister removes an asset from the registry. Its material variants stay
// alive until released.
func (e *Engine) Unregister(a *text.FontAsset) {
	if a == nil {
		return
	}
	e.registry.Unregister(a)
	delete(e.sources, a.ID())
}

// SourceMaterial returns the material the variants of a registered asset
// are derived from. Changes to it reach every variant on its next lookup.
func (e *Engine) SourceMaterial(a *text.FontAsset) (*material.Material, bool) {
	if a == nil {
		return nil, false
	}
	m, ok := e.sources[a.ID()]
	return m, ok
}

// FindCharacter resolves r through primary, its fallbacks, the global
// fallbacks and the default asset.
func (e *Engine) FindCharacter(r rune, primary *text.FontAsset, style xfont.Style, weight xfont.Weight) (*text.Character, bool) {
	ch, _ := e.resolver.FindCharacter(r, primary, style, weight, true)
	return ch, ch != nil
}

// ResolveGlyph resolves r and acquires a reference on the material variant
// for the surface holding its glyph. ok is false when no asset can provide
// r. The owning asset must be registered.
func (e *Engine) ResolveGlyph(r rune, primary *text.FontAsset, style xfont.Style, weight xfont.Weight) (h Handle, ok bool, err error) {
	if e.closed {
		return Handle{}, false, ErrClosed
	}
	ch, alt := e.resolver.FindCharacter(r, primary, style, weight, true)
	if ch == nil {
		return Handle{}, false, nil
	}
	owner := e.registry.Lookup(ch.Owner)
	if owner == nil {
		return Handle{}, false, fmt.Errorf("%w: owner %d of %q", ErrUnknownAsset, ch.Owner, r)
	}
	src, ok := e.sources[owner.ID()]
	if !ok {
		return Handle{}, false, fmt.Errorf("%w: %q", ErrUnknownAsset, owner.Name())
	}
	s := owner.Surface(ch.Glyph.AtlasIndex)
	if s == nil {
		return Handle{}, false, fmt.Errorf("fontatlas: %q has no surface %d", owner.Name(), ch.Glyph.AtlasIndex)
	}
	v, err := e.materials.GetVariant(src, s)
	if err != nil {
		return Handle{}, false, err
	}
	if err := e.materials.AddReference(v); err != nil {
		return Handle{}, false, err
	}
	return Handle{
		Character: ch,
		Asset:     owner,
		Glyph:     ch.Glyph,
		SurfaceID: s.ID(),
		Material:  v,
		Alternate: alt,
	}, true, nil
}

// Release drops the material reference held by h. The variant is destroyed
// on the next PreRender if nothing references it by then.
func (e *Engine) Release(h Handle) error {
	if h.Material == nil {
		return nil
	}
	return e.materials.RemoveReference(h.Material)
}

// PreRender runs once per frame before drawing: it destroys unreferenced
// material variants and uploads dirty atlas surfaces of every registered
// asset. Returns the number of surfaces uploaded.
func (e *Engine) PreRender() (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	e.materials.FlushPendingCleanup()
	if e.textures == nil {
		return 0, nil
	}
	var surfaces []*atlas.Surface
	for _, a := range e.registry.Assets() {
		surfaces = append(surfaces, a.Surfaces()...)
	}
	n, err := e.textures.Sync(surfaces)
	if err != nil {
		return n, fmt.Errorf("fontatlas: sync atlas textures: %w", err)
	}
	return n, nil
}

// TextureView returns the GPU texture mirroring the surface of h. It is
// available after the PreRender following the glyph's insertion.
func (e *Engine) TextureView(h Handle) (hal.TextureView, bool) {
	if e.textures == nil {
		return nil, false
	}
	return e.textures.View(h.SurfaceID)
}

// RebuildAll reinitializes the character store of every registered asset.
func (e *Engine) RebuildAll() int {
	return e.registry.RebuildAll()
}

// DestroyAsset unregisters a, destroys its material variants and textures
// and then the asset itself.
func (e *Engine) DestroyAsset(a *text.FontAsset) {
	if a == nil {
		return
	}
	for _, s := range a.Surfaces() {
		e.materials.ReleaseSurface(s.ID())
		if e.textures != nil {
			e.textures.Release(s.ID())
		}
	}
	e.Unregister(a)
	a.Destroy()
}

// Close releases every GPU resource. Registered assets are left intact.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.materials.Destroy()
	if e.textures != nil {
		e.textures.Destroy()
	}
}
