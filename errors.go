package gg3d

import "errors"

// Sentinel errors returned (wrapped) by Renderer operations.
// Match them with errors.Is.
var (
	// ErrNilDevice is returned by NewRenderer when no Device is supplied.
	ErrNilDevice = errors.New("gg3d: device must not be nil")

	// ErrResourceCreation is returned when the program or vertex array
	// cannot be created. The renderer is never returned half-built.
	ErrResourceCreation = errors.New("gg3d: GPU resource creation failed")

	// ErrInvalidViewport is returned for viewports with a negative size.
	ErrInvalidViewport = errors.New("gg3d: invalid viewport")

	// ErrInvalidCamera is returned for non-finite camera fields or a
	// field of view outside (0, π).
	ErrInvalidCamera = errors.New("gg3d: invalid camera")

	// ErrInvalidSurface is returned for surfaces with NaN or infinite
	// vertex or color components.
	ErrInvalidSurface = errors.New("gg3d: invalid surface")

	// ErrInvalidObject is returned for objects with a non-positive height
	// or radius, or a non-finite position.
	ErrInvalidObject = errors.New("gg3d: invalid object")

	// ErrClosed is returned by operations on a closed Renderer.
	ErrClosed = errors.New("gg3d: renderer is closed")
)
