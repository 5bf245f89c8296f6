// Package fontatlas provides dynamic glyph atlases with font fallback.
//
// # Overview
//
// A FontAsset (package text) owns a character table, a glyph table, a
// font-feature table and one or more fixed-size atlas surfaces. Dynamic
// assets rasterize missing glyphs on demand and pack them into the atlas
// with a MaxRects allocator, growing into additional surfaces when one is
// full. Static assets serve lookups from persisted tables only.
//
// The Engine holds the process-wide state: the asset registry, the
// fallback resolver and the per-surface material variant cache.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/fontatlas"
//	    "github.com/gogpu/fontatlas/text"
//	    "github.com/gogpu/fontatlas/text/raster"
//	)
//
//	e, _ := fontatlas.New()
//	defer e.Close()
//
//	a, _ := text.NewFontAsset("Go", raster.New(), text.SourceRef{Data: goregular.TTF})
//	_ = e.Register(a)
//
//	h, ok, err := e.ResolveGlyph('A', a, font.StyleNormal, font.WeightNormal)
//	// ... draw h.Glyph.Rect from h.Asset.Surface(h.Glyph.AtlasIndex) with h.Material
//	_ = e.Release(h)
//
//	// once per frame
//	_, _ = e.PreRender()
//
// # Fallback
//
// A code point missing from the primary asset is looked up in the asset's
// own fallback list in order, then in the global fallback list, then in the
// default asset. Every asset is visited at most once per lookup, so
// fallback cycles terminate.
//
// # GPU
//
// With WithDevice or WithDeviceProvider the engine mirrors every surface
// into an R8 texture and gives each material variant a sampler.
// PreRender uploads dirty surfaces.
//
// # Concurrency
//
// Nothing in fontatlas locks. An Engine and its assets must be used from
// one goroutine or guarded by the caller. SetLogger is the exception.
package fontatlas
