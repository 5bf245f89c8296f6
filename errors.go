package fontatlas

import "errors"

var (
	// ErrUnknownAsset is returned when an asset is not registered with the
	// engine.
	ErrUnknownAsset = errors.New("fontatlas: asset not registered")

	// ErrNilAsset is returned when a nil asset is passed.
	ErrNilAsset = errors.New("fontatlas: nil asset")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("fontatlas: engine closed")
)
