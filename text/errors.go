package text

import "errors"

// Sentinel errors for text package.
var (
	// ErrNoRasterizer is returned when a dynamic asset is created without a rasterizer.
	ErrNoRasterizer = errors.New("text: dynamic asset requires a rasterizer")

	// ErrEmptySource is returned when a source reference names no font data.
	ErrEmptySource = errors.New("text: empty font source")

	// ErrFaceNotLoaded is returned when the rasterizer face could not be loaded.
	ErrFaceNotLoaded = errors.New("text: font face not loaded")

	// ErrStaticAsset is returned by operations that mutate a static asset.
	ErrStaticAsset = errors.New("text: asset is static")

	// ErrAssetDestroyed is returned by operations on a destroyed asset.
	ErrAssetDestroyed = errors.New("text: asset destroyed")

	// ErrInvalidState is reported when persisted asset state fails validation.
	ErrInvalidState = errors.New("text: invalid persisted state")

	// ErrUnsupportedVersion is returned when loading a newer persisted format.
	ErrUnsupportedVersion = errors.New("text: unsupported asset format version")
)

// AssetConfigError represents an asset configuration validation error.
type AssetConfigError struct {
	Field  string
	Reason string
}

func (e *AssetConfigError) Error() string {
	return "text: invalid asset config." + e.Field + ": " + e.Reason
}

// LoadError wraps a rasterizer face load failure.
type LoadError struct {
	Asset  string
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return "text: load face for " + e.Asset + " from " + e.Source + ": " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }
