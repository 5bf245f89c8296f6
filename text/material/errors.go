package material

import "errors"

var (
	// ErrNilMaterial is returned when a nil source material is passed.
	ErrNilMaterial = errors.New("material: nil material")

	// ErrNilSurface is returned when a variant is requested for a nil surface.
	ErrNilSurface = errors.New("material: nil surface")

	// ErrUnknownVariant is returned for reference operations on a material
	// that did not come from the cache or was already destroyed.
	ErrUnknownVariant = errors.New("material: unknown variant")
)
