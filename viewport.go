package gg3d

import (
	"fmt"
	"image"
)

// Viewport is the pixel rectangle a frame is drawn into.
//
// Pos is the lower-left corner in target pixels (OpenGL window
// convention); Size is the extent. A zero-area viewport is legal and
// renders nothing visible.
type Viewport struct {
	Pos  image.Point
	Size image.Point
}

// Aspect returns Size.X / Size.Y, or 1 when the viewport has zero area so
// that projections stay finite.
func (v Viewport) Aspect() float32 {
	if v.Size.X <= 0 || v.Size.Y <= 0 {
		return 1
	}
	return float32(v.Size.X) / float32(v.Size.Y)
}

// Empty reports whether the viewport covers no pixels.
func (v Viewport) Empty() bool {
	return v.Size.X <= 0 || v.Size.Y <= 0
}

// Validate returns ErrInvalidViewport if either size component is negative.
// Negative sizes are rejected rather than clamped.
func (v Viewport) Validate() error {
	if v.Size.X < 0 || v.Size.Y < 0 {
		return fmt.Errorf("%w: negative size %v", ErrInvalidViewport, v.Size)
	}
	return nil
}
