// Package raster provides a text.Rasterizer backed by golang.org/x/image.
//
// Face parses TrueType and OpenType fonts (including collections) with
// golang.org/x/image/font/sfnt and fills glyph outlines into atlas surfaces
// with golang.org/x/image/vector. Feature records are reported in font
// design units:
//
//   - ligatures from GSUB, read through go-text/typesetting
//   - pair adjustments from GPOS PairPos, or the kern table when the face
//     has no PairPos subtables
//   - mark-to-base and mark-to-mark attachments from GPOS
//
// Usage:
//
//	asset, err := text.NewFontAsset("Go", raster.New(), text.SourceRef{Data: goregular.TTF})
package raster
