package material

import (
	"fmt"

	"github.com/emirpasic/gods/sets/linkedhashset"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/fontatlas/internal/logging"
	"github.com/gogpu/fontatlas/text/atlas"
)

// Variant properties that belong to the bound surface and survive a
// property refresh from the source material.
var surfaceBindings = []string{PropMainTex, PropTextureWidth, PropTextureHeight}

// entry is one cached variant.
type entry struct {
	key       uint64
	surfaceID uint32
	mat       *Material
	checksum  uint64
	refs      int
	sampler   hal.Sampler
}

// Cache hands out one Material per (source material, atlas surface) pair.
//
// Variants are reference counted. A variant whose count drops to zero is
// scheduled, not destroyed; FlushPendingCleanup destroys every scheduled
// variant still unreferenced at that point.
//
// Cache is not safe for concurrent use.
type Cache struct {
	entries   map[uint64]*entry
	byVariant map[uint32]*entry
	pending   *linkedhashset.Set

	device  hal.Device
	shaders map[uint64][]uint32
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithDevice makes the cache create a sampler per variant and compile
// variant shaders on device.
func WithDevice(device hal.Device) CacheOption {
	return func(c *Cache) { c.device = device }
}

// NewCache creates an empty cache.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		entries:   make(map[uint64]*entry),
		byVariant: make(map[uint32]*entry),
		pending:   linkedhashset.New(),
		shaders:   make(map[uint64][]uint32),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// variantKey packs the two identities into one 64-bit key.
func variantKey(sourceID, surfaceID uint32) uint64 {
	return uint64(sourceID)<<32 | uint64(surfaceID)
}

// GetVariant returns the variant of src bound to surface, creating it with
// a reference count of zero on first request. When src changed since the
// variant was last synchronized, its properties are copied over while the
// surface bindings are kept.
func (c *Cache) GetVariant(src *Material, surface *atlas.Surface) (*Material, error) {
	if src == nil {
		return nil, ErrNilMaterial
	}
	if surface == nil {
		return nil, ErrNilSurface
	}
	key := variantKey(src.ID(), surface.ID())
	sum := src.Checksum()

	if e, ok := c.entries[key]; ok {
		if e.checksum != sum {
			filter, address := e.mat.Sampling()
			e.mat.CopyPropertiesFrom(src, surfaceBindings...)
			e.checksum = sum
			if c.device != nil {
				if f, a := e.mat.Sampling(); f != filter || a != address || e.sampler == nil {
					s, err := c.createSampler(e.mat)
					if err != nil {
						return nil, err
					}
					if e.sampler != nil {
						c.device.DestroySampler(e.sampler)
					}
					e.sampler = s
				}
			}
			c.compile(e.mat.Shader())
			logging.Logger().Debug("material: variant refreshed", "source", src.Name(), "surface", surface.ID())
		}
		return e.mat, nil
	}

	v := src.clone(fmt.Sprintf("%s (surface %d)", src.Name(), surface.Index()))
	v.SetTexture(PropMainTex, surface.ID())
	v.SetFloat(PropTextureWidth, float32(surface.Width()))
	v.SetFloat(PropTextureHeight, float32(surface.Height()))

	e := &entry{key: key, surfaceID: surface.ID(), mat: v, checksum: sum}
	if c.device != nil {
		s, err := c.createSampler(v)
		if err != nil {
			return nil, err
		}
		e.sampler = s
		c.compile(v.Shader())
	}
	c.entries[key] = e
	c.byVariant[v.ID()] = e
	logging.Logger().Debug("material: variant created", "source", src.Name(), "surface", surface.ID())
	return v, nil
}

func (c *Cache) createSampler(m *Material) (hal.Sampler, error) {
	filter, address := m.Sampling()
	s, err := c.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        m.Name(),
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("material: create sampler: %w", err)
	}
	return s, nil
}

// compile caches SPIR-V per distinct shader source. Compilation failures
// are logged and leave the variant usable without a compiled module.
func (c *Cache) compile(wgsl string) {
	if c.device == nil {
		return
	}
	h := shaderKey(wgsl)
	if _, ok := c.shaders[h]; ok {
		return
	}
	words, err := compileSPIRV(wgsl)
	if err != nil {
		logging.Logger().Warn("material: shader not compiled", "err", err)
		c.shaders[h] = nil
		return
	}
	c.shaders[h] = words
}

// SPIRV returns the compiled module for the shader of m, if any.
func (c *Cache) SPIRV(m *Material) ([]uint32, bool) {
	words := c.shaders[shaderKey(m.Shader())]
	return words, len(words) > 0
}

// AddReference increments the count of a variant.
func (c *Cache) AddReference(v *Material) error {
	e, err := c.lookup(v)
	if err != nil {
		return err
	}
	e.refs++
	return nil
}

// RemoveReference decrements the count of a variant and schedules it for
// cleanup once the count is zero or below.
func (c *Cache) RemoveReference(v *Material) error {
	e, err := c.lookup(v)
	if err != nil {
		return err
	}
	e.refs--
	if e.refs <= 0 {
		c.pending.Add(e.key)
	}
	return nil
}

func (c *Cache) lookup(v *Material) (*entry, error) {
	if v == nil {
		return nil, ErrNilMaterial
	}
	e, ok := c.byVariant[v.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, v.Name())
	}
	return e, nil
}

// RefCount returns the count of a variant, or false if it is not cached.
func (c *Cache) RefCount(v *Material) (int, bool) {
	e, err := c.lookup(v)
	if err != nil {
		return 0, false
	}
	return e.refs, true
}

// Sampler returns the sampler owned by a variant. It is nil when the cache
// has no device.
func (c *Cache) Sampler(v *Material) (hal.Sampler, bool) {
	e, err := c.lookup(v)
	if err != nil {
		return nil, false
	}
	return e.sampler, e.sampler != nil
}

// FlushPendingCleanup destroys every scheduled variant whose count is still
// zero or below, in scheduling order, and returns how many were destroyed.
// Variants referenced again since scheduling survive.
func (c *Cache) FlushPendingCleanup() int {
	n := 0
	for _, k := range c.pending.Values() {
		e, ok := c.entries[k.(uint64)]
		if !ok || e.refs > 0 {
			continue
		}
		c.destroy(e)
		n++
	}
	c.pending.Clear()
	if n > 0 {
		logging.Logger().Debug("material: variants destroyed", "count", n, "live", len(c.entries))
	}
	return n
}

func (c *Cache) destroy(e *entry) {
	if e.sampler != nil && c.device != nil {
		c.device.DestroySampler(e.sampler)
	}
	delete(c.entries, e.key)
	delete(c.byVariant, e.mat.ID())
}

// ReleaseSurface destroys every variant bound to the surface regardless of
// its count. Used when the owning asset is torn down.
func (c *Cache) ReleaseSurface(surfaceID uint32) int {
	n := 0
	for _, e := range c.entries {
		if e.surfaceID != surfaceID {
			continue
		}
		c.pending.Remove(e.key)
		c.destroy(e)
		n++
	}
	return n
}

// Len returns the number of live variants.
func (c *Cache) Len() int { return len(c.entries) }

// Pending returns the number of variants scheduled for cleanup.
func (c *Cache) Pending() int { return c.pending.Size() }

// Destroy releases every variant and compiled shader.
func (c *Cache) Destroy() {
	for _, e := range c.entries {
		c.destroy(e)
	}
	c.pending.Clear()
	clear(c.shaders)
}
