package atlas

import "errors"

// Sentinel errors for the atlas package.
var (
	// ErrNilDevice is returned when a TextureSet is created without a device or queue.
	ErrNilDevice = errors.New("atlas: nil device or queue")

	// ErrInvalidSurface is returned when restored surface state is inconsistent.
	ErrInvalidSurface = errors.New("atlas: invalid surface state")
)

// ConfigError represents a packer configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "atlas: invalid config." + e.Field + ": " + e.Reason
}
