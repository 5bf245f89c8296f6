// Package text resolves Unicode code points to atlas-backed glyphs.
//
// The pipeline separates concerns the same way throughout:
//
//   - FontAsset: one typeface at one point size. Owns the character and
//     glyph tables, the atlas surfaces, the feature table and the fallback
//     list.
//   - Rasterizer: external collaborator that loads font data, maps code
//     points to glyph indices, renders glyph coverage and reports OpenType
//     feature records. See package text/raster for the default backend.
//   - Resolver: walks fallback chains to find the first asset that can
//     supply a character.
//   - Registry: indexes assets by name hash and by family/style hash.
//
// # Example usage
//
//	rast := raster.New()
//	asset, err := text.NewFontAsset("Go Regular", rast,
//	    text.SourceRef{Data: goregular.TTF},
//	    text.WithPointSize(32))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	reg := text.NewRegistry()
//	reg.Register(asset)
//
//	res := text.NewResolver(reg)
//	ch, _ := res.FindCharacter('A', asset, xfont.StyleNormal, xfont.WeightNormal, true)
//	if ch != nil {
//	    fmt.Println(ch.Glyph.AtlasIndex, ch.Glyph.Rect)
//	}
//
// # Population modes
//
// A Static asset is a pure table: lookups never call the rasterizer and the
// atlas never grows. Dynamic assets rasterize missing glyphs on demand.
// DynamicFromOS assets additionally resolve their font data through the
// operating system font directories.
//
// # Concurrency
//
// Nothing in this package is safe for concurrent use. Callers drive all
// operations from the thread doing shaping and layout.
package text
