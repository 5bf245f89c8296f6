package material

import (
	_ "embed"
	"fmt"
	"hash/fnv"

	"github.com/gogpu/naga"
)

// AtlasTextShader samples single-channel glyph coverage from one atlas
// surface.
//
//go:embed shaders/atlas_text.wgsl
var AtlasTextShader string

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	b, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("material: compile shader: %w", err)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = uint32(b[i*4]) |
			uint32(b[i*4+1])<<8 |
			uint32(b[i*4+2])<<16 |
			uint32(b[i*4+3])<<24
	}
	return words, nil
}

func shaderKey(wgsl string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(wgsl))
	return h.Sum64()
}
