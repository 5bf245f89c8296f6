package material

import (
	"encoding/binary"
	"hash/fnv"
	"maps"
	"math"
	"slices"
	"sync/atomic"

	"github.com/gogpu/gputypes"
)

// Property names bound per atlas surface on every variant.
const (
	PropMainTex       = "_MainTex"
	PropTextureWidth  = "_TextureWidth"
	PropTextureHeight = "_TextureHeight"
	PropGradientScale = "_GradientScale"
	PropFaceColor     = "_FaceColor"
)

var nextMaterialID atomic.Uint32

// Color is a linear RGBA color.
type Color [4]float32

// Material is a named bundle of rendering parameters: a WGSL shader, scalar,
// color and texture properties, and sampler state.
//
// Material is not safe for concurrent use.
type Material struct {
	id     uint32
	name   string
	shader string

	floats   map[string]float32
	colors   map[string]Color
	textures map[string]uint32

	filter  gputypes.FilterMode
	address gputypes.AddressMode
}

// New creates a material with a process-unique ID. An empty shader selects
// the built-in atlas text shader.
func New(name, shaderWGSL string) *Material {
	if shaderWGSL == "" {
		shaderWGSL = AtlasTextShader
	}
	return &Material{
		id:       nextMaterialID.Add(1),
		name:     name,
		shader:   shaderWGSL,
		floats:   make(map[string]float32),
		colors:   make(map[string]Color),
		textures: make(map[string]uint32),
		filter:   gputypes.FilterModeLinear,
		address:  gputypes.AddressModeClampToEdge,
	}
}

// ID returns the material identity.
func (m *Material) ID() uint32 { return m.id }

// Name returns the material name.
func (m *Material) Name() string { return m.name }

// Shader returns the WGSL source.
func (m *Material) Shader() string { return m.shader }

// SetShader replaces the WGSL source.
func (m *Material) SetShader(wgsl string) { m.shader = wgsl }

// SetFloat sets a scalar property.
func (m *Material) SetFloat(name string, v float32) { m.floats[name] = v }

// Float returns a scalar property.
func (m *Material) Float(name string) (float32, bool) {
	v, ok := m.floats[name]
	return v, ok
}

// SetColor sets a color property.
func (m *Material) SetColor(name string, c Color) { m.colors[name] = c }

// Color returns a color property.
func (m *Material) Color(name string) (Color, bool) {
	c, ok := m.colors[name]
	return c, ok
}

// SetTexture binds a texture by surface or texture ID.
func (m *Material) SetTexture(name string, id uint32) { m.textures[name] = id }

// Texture returns a texture binding.
func (m *Material) Texture(name string) (uint32, bool) {
	id, ok := m.textures[name]
	return id, ok
}

// SetSampling sets the sampler filter and address mode.
func (m *Material) SetSampling(filter gputypes.FilterMode, address gputypes.AddressMode) {
	m.filter = filter
	m.address = address
}

// Sampling returns the sampler filter and address mode.
func (m *Material) Sampling() (gputypes.FilterMode, gputypes.AddressMode) {
	return m.filter, m.address
}

// Checksum hashes the shader, sampler state and every property. Map order
// does not affect the result.
func (m *Material) Checksum() uint64 {
	h := fnv.New64a()
	var buf [8]byte
	writeU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:4], v)
		_, _ = h.Write(buf[:4])
	}
	writeStr := func(s string) {
		writeU32(uint32(len(s)))
		_, _ = h.Write([]byte(s))
	}

	writeStr(m.shader)
	writeU32(uint32(m.filter))
	writeU32(uint32(m.address))
	for _, k := range slices.Sorted(maps.Keys(m.floats)) {
		writeStr(k)
		writeU32(math.Float32bits(m.floats[k]))
	}
	for _, k := range slices.Sorted(maps.Keys(m.colors)) {
		writeStr(k)
		for _, c := range m.colors[k] {
			writeU32(math.Float32bits(c))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(m.textures)) {
		writeStr(k)
		writeU32(m.textures[k])
	}
	return h.Sum64()
}

// CopyPropertiesFrom replaces shader, sampler state and properties with
// those of src. Properties named in keep retain their current values.
func (m *Material) CopyPropertiesFrom(src *Material, keep ...string) {
	savedF := make(map[string]float32)
	savedT := make(map[string]uint32)
	for _, k := range keep {
		if v, ok := m.floats[k]; ok {
			savedF[k] = v
		}
		if v, ok := m.textures[k]; ok {
			savedT[k] = v
		}
	}

	m.shader = src.shader
	m.filter, m.address = src.filter, src.address
	m.floats = maps.Clone(src.floats)
	m.colors = maps.Clone(src.colors)
	m.textures = maps.Clone(src.textures)
	maps.Copy(m.floats, savedF)
	maps.Copy(m.textures, savedT)
}

// clone returns a copy with a fresh ID.
func (m *Material) clone(name string) *Material {
	c := New(name, m.shader)
	c.CopyPropertiesFrom(m)
	return c
}
