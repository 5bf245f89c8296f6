// Package material derives per-surface materials for glyph atlases.
//
// Each atlas surface needs its own copy of a text material with the surface
// texture bound. Cache hands out one variant per (source material, surface)
// pair, tracks how many holders reference it, and destroys unreferenced
// variants in batches on FlushPendingCleanup.
//
// When a hal.Device is configured, every variant owns a sampler and the
// variant shader is compiled to SPIR-V once per distinct WGSL source.
package material
