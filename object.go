package gg3d

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// ObjectWidthRatio is the half-width of an object's box relative to its
// height.
const ObjectWidthRatio float32 = 0.25

// HitboxSegments is the number of sides of the prism approximating a
// hitbox cylinder.
const HitboxSegments = 32

// ObjectSurfaces decomposes an object into the twelve triangles of an
// upright square box. The base is centred on pos, the top is at
// pos.Y+height, and the half-width is height*ObjectWidthRatio. Every face
// is wound counter-clockwise as seen from outside the box.
//
// height must be positive and finite, and large enough that the box
// corners stay distinct in float32 at pos. ObjectSurfaces returns
// ErrInvalidObject otherwise.
func ObjectSurfaces(pos mgl32.Vec3, height float32, color mgl32.Vec3) ([]Surface, error) {
	if err := validateObject(pos, height, 1); err != nil {
		return nil, err
	}
	w := height * ObjectWidthRatio
	x0, x1 := pos.X()-w, pos.X()+w
	y0, y1 := pos.Y(), pos.Y()+height
	z0, z1 := pos.Z()-w, pos.Z()+w

	q := quadBuilder{color: color, out: make([]Surface, 0, 12)}
	// -Z, +Z, -X, +X
	q.add(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{x1, y0, z0})
	q.add(mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x0, y0, z1})
	q.add(mgl32.Vec3{x0, y0, z1}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{x0, y0, z0})
	q.add(mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x1, y1, z0}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x1, y0, z1})
	// top, bottom
	q.add(mgl32.Vec3{x0, y1, z0}, mgl32.Vec3{x0, y1, z1}, mgl32.Vec3{x1, y1, z1}, mgl32.Vec3{x1, y1, z0})
	q.add(mgl32.Vec3{x0, y0, z0}, mgl32.Vec3{x1, y0, z0}, mgl32.Vec3{x1, y0, z1}, mgl32.Vec3{x0, y0, z1})
	return q.result(ErrInvalidObject)
}

// HitboxSurfaces decomposes a hitbox into a closed upright prism with
// HitboxSegments sides: the base circle of the given radius is centred on
// pos and the top is at pos.Y+height. Side quads and cap fans are wound
// counter-clockwise as seen from outside. Like ObjectSurfaces, it returns
// ErrInvalidObject when the prism would overflow or collapse at pos.
func HitboxSurfaces(pos mgl32.Vec3, height, radius float32, color mgl32.Vec3) ([]Surface, error) {
	if err := validateObject(pos, height, radius); err != nil {
		return nil, err
	}
	top := pos.Add(mgl32.Vec3{0, height, 0})
	ring := make([]mgl32.Vec3, HitboxSegments+1)
	for i := range ring {
		a := float32(i%HitboxSegments) / HitboxSegments * 2 * math32.Pi
		sin, cos := math32.Sincos(a)
		ring[i] = mgl32.Vec3{radius * sin, 0, radius * cos}
	}

	q := quadBuilder{color: color, out: make([]Surface, 0, 4*HitboxSegments)}
	for i := 0; i < HitboxSegments; i++ {
		b0, b1 := pos.Add(ring[i]), pos.Add(ring[i+1])
		t0, t1 := top.Add(ring[i]), top.Add(ring[i+1])
		q.add(b0, b1, t1, t0)
		q.tri(top, t0, t1)
		q.tri(pos, b1, b0)
	}
	return q.result(ErrInvalidObject)
}

// WallHitboxDepth is how far a wall hitbox extends on each side of its
// wall, measured along the wall normal.
const WallHitboxDepth float32 = 50

// WallHitboxSurfaces extrudes a wall triangle into the closed prism that
// marks its collision volume. The triangle is pushed WallHitboxDepth/n·d
// both ways along its projection axis d, world X for SurfaceWallX and
// world Z for SurfaceWallZ, so the slab is 2*WallHitboxDepth thick along
// the normal n. The result is two caps and three side quads, eight
// triangles wound counter-clockwise as seen from outside, in s.Color.
//
// Floors, ceilings and degenerate triangles have no wall hitbox and are
// rejected with ErrInvalidSurface.
func WallHitboxSurfaces(s Surface) ([]Surface, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	n := s.Normal()
	if n == (mgl32.Vec3{}) {
		return nil, fmt.Errorf("%w: degenerate wall %v", ErrInvalidSurface, s.Vertices)
	}
	var axis mgl32.Vec3
	switch kind := ClassifySurface(s.Vertices); kind {
	case SurfaceWallX:
		axis = mgl32.Vec3{1, 0, 0}
	case SurfaceWallZ:
		axis = mgl32.Vec3{0, 0, 1}
	default:
		return nil, fmt.Errorf("%w: %s has no wall hitbox", ErrInvalidSurface, kind)
	}
	off := axis.Mul(WallHitboxDepth / n.Dot(axis))

	var outer, inner [3]mgl32.Vec3
	for i, v := range s.Vertices {
		outer[i], inner[i] = v.Add(off), v.Sub(off)
	}
	q := quadBuilder{color: s.Color, out: make([]Surface, 0, 8)}
	q.tri(outer[0], outer[1], outer[2])
	q.tri(inner[0], inner[2], inner[1])
	for i0 := range 3 {
		i1 := (i0 + 1) % 3
		q.add(inner[i0], inner[i1], outer[i1], outer[i0])
	}
	return q.result(ErrInvalidSurface)
}

func validateObject(pos mgl32.Vec3, height, radius float32) error {
	if !finiteVec3(pos) {
		return fmt.Errorf("%w: position %v", ErrInvalidObject, pos)
	}
	if !finite(height) || height <= 0 {
		return fmt.Errorf("%w: height %v must be positive", ErrInvalidObject, height)
	}
	if !finite(radius) || radius <= 0 {
		return fmt.Errorf("%w: radius %v must be positive", ErrInvalidObject, radius)
	}
	return nil
}

// quadBuilder collects triangles sharing one color.
type quadBuilder struct {
	color mgl32.Vec3
	out   []Surface
}

func (q *quadBuilder) tri(a, b, c mgl32.Vec3) {
	q.out = append(q.out, Surface{Vertices: [3]mgl32.Vec3{a, b, c}, Color: q.color})
}

// result returns the collected triangles, or sentinel if any vertex
// overflowed or any triangle lost its area to float32 rounding.
func (q *quadBuilder) result(sentinel error) ([]Surface, error) {
	for i := range q.out {
		v := &q.out[i].Vertices
		if !finiteVec3(v[0]) || !finiteVec3(v[1]) || !finiteVec3(v[2]) {
			return nil, fmt.Errorf("%w: triangle %d overflows: %v", sentinel, i, *v)
		}
		if v[1].Sub(v[0]).Cross(v[2].Sub(v[0])) == (mgl32.Vec3{}) {
			return nil, fmt.Errorf("%w: triangle %d is degenerate: %v", sentinel, i, *v)
		}
	}
	return q.out, nil
}

// add splits the quad a-b-c-d into (a, b, c) and (a, c, d), preserving
// its winding.
func (q *quadBuilder) add(a, b, c, d mgl32.Vec3) {
	q.tri(a, b, c)
	q.tri(a, c, d)
}
