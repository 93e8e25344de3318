package scene

import "errors"

var (
	// ErrSceneNotFound is returned when the named scene does not exist.
	ErrSceneNotFound = errors.New("scene not found")

	// ErrItemNotFound is returned when a source is not placed as an
	// item of the searched scene.
	ErrItemNotFound = errors.New("scene item not found")

	// ErrSourceNotFound is returned when a source does not exist at
	// all, not even for direct-mode access.
	ErrSourceNotFound = errors.New("source not found")

	// ErrUnsupported is returned for operations the backend cannot
	// perform; callers degrade per their fallback chain.
	ErrUnsupported = errors.New("operation not supported by backend")

	// ErrDisconnected is returned when the compositor connection is
	// down. Tick-rate callers retry naturally on the next tick.
	ErrDisconnected = errors.New("compositor connection lost")

	// ErrReleased is returned when using an item handle after Release.
	ErrReleased = errors.New("item handle already released")
)
