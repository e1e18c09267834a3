package gg3d

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default clip planes of the perspective camera, in world units.
const (
	DefaultNear float32 = 10
	DefaultFar  float32 = 20000
)

// birdsEyeDepthScale maps camera-relative height to clip depth in the
// birds-eye projection.
const birdsEyeDepthScale float32 = 20000

// CameraMode selects which camera the Renderer uses for the next frame.
type CameraMode int

const (
	// CameraRotate is the perspective camera set with SetCamera.
	CameraRotate CameraMode = iota
	// CameraBirdsEye is the top-down orthographic camera set with
	// SetBirdsEyeCamera.
	CameraBirdsEye
)

// String returns the mode name.
func (m CameraMode) String() string {
	switch m {
	case CameraRotate:
		return "rotate"
	case CameraBirdsEye:
		return "birds-eye"
	default:
		return fmt.Sprintf("CameraMode(%d)", int(m))
	}
}

// Camera is a perspective camera.
//
// All angles are in radians. With Pitch = Yaw = 0 the camera looks along
// world +Z with +Y up. Positive Pitch tilts the view upward and positive
// Yaw turns it toward world +X. FovY is the full vertical field of view and
// must lie in (0, π).
type Camera struct {
	Pos   mgl32.Vec3
	Pitch float32
	Yaw   float32
	FovY  float32
}

// DefaultCamera returns the camera a new Renderer starts with: at the
// origin, looking along +Z, with a 45° vertical field of view.
func DefaultCamera() Camera {
	return Camera{FovY: mgl32.DegToRad(45)}
}

// Validate returns ErrInvalidCamera if any field is NaN or infinite, or if
// FovY is outside (0, π).
func (c Camera) Validate() error {
	if !finiteVec3(c.Pos) || !finite(c.Pitch) || !finite(c.Yaw) || !finite(c.FovY) {
		return fmt.Errorf("%w: non-finite field in %+v", ErrInvalidCamera, c)
	}
	if c.FovY <= 0 || c.FovY >= math32.Pi {
		return fmt.Errorf("%w: fov_y %v outside (0, π)", ErrInvalidCamera, c.FovY)
	}
	return nil
}

// ViewMatrix returns the world-to-eye transform
// RotY(π) · RotX(Pitch) · RotY(-Yaw) · Translate(-Pos).
func (c Camera) ViewMatrix() mgl32.Mat4 {
	return mgl32.HomogRotate3DY(math32.Pi).
		Mul4(mgl32.HomogRotate3DX(c.Pitch)).
		Mul4(mgl32.HomogRotate3DY(-c.Yaw)).
		Mul4(mgl32.Translate3D(-c.Pos.X(), -c.Pos.Y(), -c.Pos.Z()))
}

// ProjectionMatrix returns the perspective projection for the given aspect
// ratio and clip planes: a symmetric frustum with half-height
// near·tan(FovY/2) and half-width half-height·aspect.
func (c Camera) ProjectionMatrix(aspect, near, far float32) mgl32.Mat4 {
	top := near * math32.Tan(c.FovY/2)
	right := top * aspect
	return mgl32.Frustum(-right, right, -top, top, near, far)
}

// ViewProjection returns the combined world-to-clip transform for camera c
// drawn into viewport v.
func ViewProjection(c Camera, v Viewport, near, far float32) mgl32.Mat4 {
	return c.ProjectionMatrix(v.Aspect(), near, far).Mul4(c.ViewMatrix())
}

// BirdsEyeCamera is a top-down orthographic camera. World X runs up the
// screen, world Z runs to the right, and SpanY is the world distance
// covered by the viewport's height.
type BirdsEyeCamera struct {
	Pos   mgl32.Vec3
	SpanY float32
}

// Validate returns ErrInvalidCamera if a field is non-finite or SpanY is
// not positive.
func (c BirdsEyeCamera) Validate() error {
	if !finiteVec3(c.Pos) || !finite(c.SpanY) {
		return fmt.Errorf("%w: non-finite field in %+v", ErrInvalidCamera, c)
	}
	if c.SpanY <= 0 {
		return fmt.Errorf("%w: span_y %v must be positive", ErrInvalidCamera, c.SpanY)
	}
	return nil
}

// BirdsEyeViewProjection returns the world-to-clip transform of a
// birds-eye camera drawn into viewport v. Depth is the camera-relative
// height scaled by birdsEyeDepthScale, so geometry below the camera lands
// in front of geometry further below.
func BirdsEyeViewProjection(c BirdsEyeCamera, v Viewport) mgl32.Mat4 {
	top := c.SpanY / 2
	right := top * v.Aspect()
	// Column-major: clip.x = z/right, clip.y = x/top,
	// clip.z = -y/scale - 1, clip.w = 1.
	proj := mgl32.Mat4{
		0, 1 / top, 0, 0,
		0, 0, -1 / birdsEyeDepthScale, 0,
		1 / right, 0, 0, 0,
		0, 0, -1, 1,
	}
	return proj.Mul4(mgl32.Translate3D(-c.Pos.X(), -c.Pos.Y(), -c.Pos.Z()))
}

func finite(f float32) bool {
	return !math32.IsNaN(f) && !math32.IsInf(f, 0)
}

func finiteVec3(v mgl32.Vec3) bool {
	return finite(v[0]) && finite(v[1]) && finite(v[2])
}
