// Package atlas packs glyph bitmaps into fixed-size texture surfaces.
//
// A [Packer] owns one or more [Surface] values of identical dimensions.
// Each surface tracks two rectangle lists: free regions available to the
// MaxRects bin packer and used regions occupied by glyphs. The two lists
// never overlap and together cover the packable area of the surface.
//
// When the current surface is exhausted and the packer allows multiple
// surfaces, a new surface is appended and packing continues there. Surface
// indices grow monotonically; surfaces are only removed by [Packer.Reset].
//
// Surfaces are plain 8-bit coverage bitmaps. [TextureSet] mirrors dirty
// surfaces into GPU textures through the wgpu HAL.
//
// Nothing in this package is safe for concurrent use.
package atlas
