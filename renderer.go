package gg3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// Renderer accumulates flat-shaded triangles and draws them in one batch
// per frame.
//
// A typical frame:
//
//	r.Clear()
//	_ = r.SetViewport(gg3d.Viewport{Size: image.Pt(800, 600)})
//	_ = r.SetCamera(cam)
//	_ = r.AddSurface(s)
//	_ = r.AddObject(pos, 160)
//	err := r.Render()
//
// Geometry persists until Clear is called; Render does not clear it, so
// repeated Render calls redraw the same frame.
//
// A Renderer is not safe for concurrent use. It never starts goroutines,
// so all device calls happen on the caller's goroutine.
type Renderer struct {
	dev  Device
	opts options

	program     Program
	vertexArray VertexArray
	staging     stagingBuffers

	viewport Viewport
	camera   Camera
	birdsEye BirdsEyeCamera
	mode     CameraMode

	closed bool
}

// NewRenderer creates the surface program and its vertex array on dev.
//
// Resource creation failures are returned wrapped in ErrResourceCreation;
// nothing created before the failure is leaked.
func NewRenderer(dev Device, opts ...Option) (*Renderer, error) {
	if dev == nil {
		return nil, ErrNilDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	program, err := dev.NewProgram(SurfaceProgramDescriptor())
	if err != nil {
		return nil, fmt.Errorf("%w: surface program: %w", ErrResourceCreation, err)
	}
	if program == nil {
		return nil, fmt.Errorf("%w: surface program: device returned nil", ErrResourceCreation)
	}
	va, err := dev.NewVertexArray(program)
	if err != nil {
		program.Destroy()
		return nil, fmt.Errorf("%w: surface vertex array: %w", ErrResourceCreation, err)
	}
	if va == nil {
		program.Destroy()
		return nil, fmt.Errorf("%w: surface vertex array: device returned nil", ErrResourceCreation)
	}

	Logger().Info("gg3d: renderer created", "near", o.near, "far", o.far)
	return &Renderer{
		dev:         dev,
		opts:        o,
		program:     program,
		vertexArray: va,
		camera:      DefaultCamera(),
		mode:        CameraRotate,
	}, nil
}

// Clear discards all staged geometry. Camera and viewport are kept.
func (r *Renderer) Clear() {
	r.staging.reset()
}

// SetViewport replaces the viewport used by the next Render.
// A negative size is rejected with ErrInvalidViewport and the previous
// viewport is kept.
func (r *Renderer) SetViewport(v Viewport) error {
	if r.closed {
		return ErrClosed
	}
	if err := v.Validate(); err != nil {
		return err
	}
	r.viewport = v
	return nil
}

// SetCamera replaces the perspective camera and makes it the active one.
// Invalid cameras are rejected with ErrInvalidCamera and the previous
// camera is kept.
func (r *Renderer) SetCamera(c Camera) error {
	if r.closed {
		return ErrClosed
	}
	if err := c.Validate(); err != nil {
		return err
	}
	r.camera = c
	r.mode = CameraRotate
	return nil
}

// SetBirdsEyeCamera replaces the birds-eye camera and makes it the active
// one. Invalid cameras are rejected with ErrInvalidCamera.
func (r *Renderer) SetBirdsEyeCamera(c BirdsEyeCamera) error {
	if r.closed {
		return ErrClosed
	}
	if err := c.Validate(); err != nil {
		return err
	}
	r.birdsEye = c
	r.mode = CameraBirdsEye
	return nil
}

// CameraMode returns which camera the next Render uses.
func (r *Renderer) CameraMode() CameraMode {
	return r.mode
}

// AddSurface stages one triangle. Vertices keep their order. Color
// components outside [0, 1] are clamped. Surfaces with non-finite
// components are rejected with ErrInvalidSurface and nothing is staged.
func (r *Renderer) AddSurface(s Surface) error {
	if r.closed {
		return ErrClosed
	}
	if err := s.Validate(); err != nil {
		return err
	}
	r.staging.appendTriangle(s.Vertices[0], s.Vertices[1], s.Vertices[2], s.Color)
	return nil
}

// AddObject stages the box described by ObjectSurfaces in the renderer's
// object color. A non-positive height is rejected with ErrInvalidObject
// and nothing is staged.
func (r *Renderer) AddObject(pos mgl32.Vec3, height float32) error {
	if r.closed {
		return ErrClosed
	}
	surfaces, err := ObjectSurfaces(pos, height, r.opts.objectColor)
	if err != nil {
		return err
	}
	return r.addSurfaces(surfaces)
}

// AddHitbox stages the cylinder described by HitboxSurfaces in the
// renderer's object color.
func (r *Renderer) AddHitbox(pos mgl32.Vec3, height, radius float32) error {
	if r.closed {
		return ErrClosed
	}
	surfaces, err := HitboxSurfaces(pos, height, radius, r.opts.objectColor)
	if err != nil {
		return err
	}
	return r.addSurfaces(surfaces)
}

// AddWallHitbox stages the prism described by WallHitboxSurfaces for the
// wall s. Floors, ceilings and invalid surfaces are rejected with
// ErrInvalidSurface and nothing is staged.
func (r *Renderer) AddWallHitbox(s Surface) error {
	if r.closed {
		return ErrClosed
	}
	surfaces, err := WallHitboxSurfaces(s)
	if err != nil {
		return err
	}
	return r.addSurfaces(surfaces)
}

// addSurfaces validates every surface before staging any, so a bad
// surface leaves the staging buffers untouched.
func (r *Renderer) addSurfaces(surfaces []Surface) error {
	for i := range surfaces {
		if err := surfaces[i].Validate(); err != nil {
			return err
		}
	}
	for i := range surfaces {
		v := &surfaces[i].Vertices
		r.staging.appendTriangle(v[0], v[1], v[2], surfaces[i].Color)
	}
	return nil
}

// TriangleCount returns the number of triangles staged for the next
// Render.
func (r *Renderer) TriangleCount() int {
	return r.staging.triangles()
}

// ViewProjection returns the world-to-clip transform the next Render will
// use.
func (r *Renderer) ViewProjection() mgl32.Mat4 {
	if r.mode == CameraBirdsEye {
		return BirdsEyeViewProjection(r.birdsEye, r.viewport)
	}
	return ViewProjection(r.camera, r.viewport, r.opts.near, r.opts.far)
}

// Render uploads all staged geometry and draws it with the current camera
// and viewport in a single triangle-list draw.
//
// Staged geometry is not modified, so calling Render again without an
// intervening Clear or Add call redraws the identical frame. An empty
// stage draws zero triangles.
func (r *Renderer) Render() error {
	if r.closed {
		return ErrClosed
	}
	viewProj := r.ViewProjection()

	r.vertexArray.Bind()
	if err := r.vertexArray.Set(AttribPosition, r.staging.pos); err != nil {
		return fmt.Errorf("gg3d: upload positions: %w", err)
	}
	if err := r.vertexArray.Set(AttribColor, r.staging.expandColors()); err != nil {
		return fmt.Errorf("gg3d: upload colors: %w", err)
	}

	r.program.Use()
	if err := r.program.SetUniform(UniformViewProj, viewProj); err != nil {
		return fmt.Errorf("gg3d: set %s: %w", UniformViewProj, err)
	}

	vp := r.viewport
	r.dev.SetViewport(vp.Pos.X, vp.Pos.Y, vp.Size.X, vp.Size.Y)
	r.dev.Clear(r.opts.clearColor)

	n := r.staging.triangles()
	if err := r.dev.DrawTriangles(n); err != nil {
		return fmt.Errorf("gg3d: draw %d triangles: %w", n, err)
	}
	Logger().Debug("gg3d: frame rendered",
		"triangles", n, "camera", r.mode, "viewport", vp.Size)
	return nil
}

// Close releases the program and vertex array. Subsequent calls to other
// methods return ErrClosed. Close is idempotent.
func (r *Renderer) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.vertexArray.Destroy()
	r.program.Destroy()
	r.staging = stagingBuffers{}
	return nil
}

// IsClosed reports whether Close has been called.
func (r *Renderer) IsClosed() bool {
	return r.closed
}
