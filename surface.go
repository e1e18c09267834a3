package gg3d

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Surface is a single flat-shaded triangle.
//
// Vertex order determines the front face: counter-clockwise as seen by the
// viewer is front-facing. Color components are intensities in [0, 1];
// finite values outside that range are clamped when the surface is added.
type Surface struct {
	Vertices [3]mgl32.Vec3
	Color    mgl32.Vec3
}

// Validate returns ErrInvalidSurface if any vertex or color component is
// NaN or infinite.
func (s Surface) Validate() error {
	for i, v := range s.Vertices {
		if !finiteVec3(v) {
			return fmt.Errorf("%w: vertex %d is %v", ErrInvalidSurface, i, v)
		}
	}
	if !finiteVec3(s.Color) {
		return fmt.Errorf("%w: color is %v", ErrInvalidSurface, s.Color)
	}
	return nil
}

// Normal returns the unit normal of the triangle following its winding,
// or the zero vector for a degenerate triangle.
func (s Surface) Normal() mgl32.Vec3 {
	return triangleNormal(s.Vertices)
}

// SurfaceKind classifies a triangle by the direction it faces.
type SurfaceKind int

const (
	SurfaceFloor SurfaceKind = iota
	SurfaceCeiling
	// SurfaceWallX is a wall whose normal is mostly along X.
	SurfaceWallX
	// SurfaceWallZ is a wall whose normal is mostly along Z.
	SurfaceWallZ
)

// Classification thresholds on the unit normal.
const (
	floorNormalY = 0.01
	wallXNormalX = 0.707
)

// String returns the kind name.
func (k SurfaceKind) String() string {
	switch k {
	case SurfaceFloor:
		return "floor"
	case SurfaceCeiling:
		return "ceiling"
	case SurfaceWallX:
		return "wall-x"
	case SurfaceWallZ:
		return "wall-z"
	default:
		return fmt.Sprintf("SurfaceKind(%d)", int(k))
	}
}

// IsWall reports whether the kind is SurfaceWallX or SurfaceWallZ.
func (k SurfaceKind) IsWall() bool {
	return k == SurfaceWallX || k == SurfaceWallZ
}

// Color returns the palette color for the kind.
func (k SurfaceKind) Color() mgl32.Vec3 {
	switch k {
	case SurfaceFloor:
		return mgl32.Vec3{0.5, 0.5, 1}
	case SurfaceCeiling:
		return mgl32.Vec3{1, 0.5, 0.5}
	case SurfaceWallX:
		return mgl32.Vec3{0.3, 0.8, 0.3}
	case SurfaceWallZ:
		return mgl32.Vec3{0.15, 0.4, 0.15}
	default:
		return mgl32.Vec3{1, 1, 1}
	}
}

// ClassifySurface returns the kind of the triangle from its normal:
// upward-facing triangles are floors, downward-facing ones ceilings, and
// the rest walls, split by whether the normal points mostly along X.
func ClassifySurface(vertices [3]mgl32.Vec3) SurfaceKind {
	n := triangleNormal(vertices)
	switch {
	case n.Y() > floorNormalY:
		return SurfaceFloor
	case n.Y() < -floorNormalY:
		return SurfaceCeiling
	case math32.Abs(n.X()) > wallXNormalX:
		return SurfaceWallX
	default:
		return SurfaceWallZ
	}
}

// NewSurface returns a surface colored by its classified kind.
func NewSurface(vertices [3]mgl32.Vec3) Surface {
	return Surface{
		Vertices: vertices,
		Color:    ClassifySurface(vertices).Color(),
	}
}

func triangleNormal(v [3]mgl32.Vec3) mgl32.Vec3 {
	n := v[1].Sub(v[0]).Cross(v[2].Sub(v[0]))
	l := n.Len()
	if l == 0 {
		return mgl32.Vec3{}
	}
	return n.Mul(1 / l)
}

// clampColor limits each component to [0, 1].
func clampColor(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}
