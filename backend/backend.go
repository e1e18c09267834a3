package backend

import (
	"errors"
	"image"

	"github.com/gogpu/gg3d"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or every registered backend failed to open.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrInvalidSize is returned when a target is opened with a
	// non-positive width or height.
	ErrInvalidSize = errors.New("backend: invalid target size")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU rasterizer backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the Pure Go GPU backend (gogpu/wgpu).
	BackendWGPU = "wgpu"
)

// Target is a gg3d.Device that renders into an offscreen image.
//
// Targets are created by a registered Factory and owned by the caller,
// which must Close them after every Renderer using them is closed.
type Target interface {
	gg3d.Device

	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Size returns the target dimensions in pixels.
	Size() image.Point

	// Image returns a copy of the rendered pixels. Row 0 is the top of
	// the image, so the viewport origin maps to the bottom-left corner.
	Image() (*image.RGBA, error)

	// Close releases all target resources.
	Close() error
}

// ValidateSize returns ErrInvalidSize unless both dimensions are positive.
// Factories call it before allocating anything.
func ValidateSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}
	return nil
}
