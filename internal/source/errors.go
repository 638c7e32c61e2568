package source

import "errors"

var (
	// ErrNotFound is returned for operations against an unknown source ID.
	ErrNotFound = errors.New("source: not found")

	// ErrComponentNotFound is returned when a VideoSource's configured
	// plugin/component pair no longer resolves to a loaded, correctly-kinded
	// descriptor in the registry.
	ErrComponentNotFound = errors.New("source: component not found or wrong kind")
)
