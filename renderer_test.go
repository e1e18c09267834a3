package gg3d

import (
	"errors"
	"image"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

var triangleA = Surface{
	Vertices: [3]mgl32.Vec3{{-1, 0, 50}, {1, 0, 50}, {0, 1, 50}},
	Color:    mgl32.Vec3{1, 0, 0},
}

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *fakeDevice) {
	t.Helper()
	dev := newFakeDevice()
	r, err := NewRenderer(dev, opts...)
	if err != nil {
		t.Fatalf("NewRenderer() = %v", err)
	}
	return r, dev
}

// matApprox compares element-wise with an absolute tolerance. mgl32's
// relative comparison is too strict for entries that should be zero but
// pick up float32 rounding from sin(π).
func matApprox(a, b mgl32.Mat4, eps float32) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > float64(eps) {
			return false
		}
	}
	return true
}

func checkStagingInvariant(t *testing.T, r *Renderer) {
	t.Helper()
	if got, want := len(r.staging.pos), 3*len(r.staging.color); got != want {
		t.Fatalf("len(pos) = %d, want 3*len(color) = %d", got, want)
	}
}

func TestNewRendererNilDevice(t *testing.T) {
	r, err := NewRenderer(nil)
	if !errors.Is(err, ErrNilDevice) {
		t.Errorf("NewRenderer(nil) error = %v, want ErrNilDevice", err)
	}
	if r != nil {
		t.Error("NewRenderer(nil) returned a renderer")
	}
}

func TestNewRendererCreatesResourcesOnce(t *testing.T) {
	r, dev := newTestRenderer(t)

	if len(dev.programs) != 1 || len(dev.vertexArrays) != 1 {
		t.Fatalf("programs=%d vertexArrays=%d, want 1 each", len(dev.programs), len(dev.vertexArrays))
	}
	if got := dev.programs[0].desc.Name; got != SurfaceProgram {
		t.Errorf("program name = %q, want %q", got, SurfaceProgram)
	}
	for range 3 {
		if err := r.Render(); err != nil {
			t.Fatalf("Render() = %v", err)
		}
	}
	if len(dev.programs) != 1 || len(dev.vertexArrays) != 1 {
		t.Error("Render created additional GPU resources")
	}
	if r.TriangleCount() != 0 {
		t.Errorf("TriangleCount() = %d, want 0", r.TriangleCount())
	}
	if r.CameraMode() != CameraRotate {
		t.Errorf("CameraMode() = %v, want %v", r.CameraMode(), CameraRotate)
	}
}

func TestNewRendererResourceFailure(t *testing.T) {
	boom := errors.New("boom")

	t.Run("program", func(t *testing.T) {
		dev := newFakeDevice()
		dev.failProgram = boom
		r, err := NewRenderer(dev)
		if !errors.Is(err, ErrResourceCreation) || !errors.Is(err, boom) {
			t.Errorf("error = %v, want ErrResourceCreation wrapping boom", err)
		}
		if r != nil {
			t.Error("half-built renderer returned")
		}
	})

	t.Run("vertex array", func(t *testing.T) {
		dev := newFakeDevice()
		dev.failVertexArray = boom
		r, err := NewRenderer(dev)
		if !errors.Is(err, ErrResourceCreation) || !errors.Is(err, boom) {
			t.Errorf("error = %v, want ErrResourceCreation wrapping boom", err)
		}
		if r != nil {
			t.Error("half-built renderer returned")
		}
		if len(dev.programs) != 1 || dev.programs[0].destroyed != 1 {
			t.Error("program created before the failure was not destroyed")
		}
	})
}

func TestRendererSingleTriangleScenario(t *testing.T) {
	r, dev := newTestRenderer(t)

	if err := r.SetViewport(Viewport{Size: image.Pt(800, 600)}); err != nil {
		t.Fatal(err)
	}
	fov := mgl32.DegToRad(60)
	if err := r.SetCamera(Camera{FovY: fov}); err != nil {
		t.Fatal(err)
	}
	if err := r.AddSurface(triangleA); err != nil {
		t.Fatal(err)
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}

	if len(dev.draws) != 1 || dev.draws[0] != 1 {
		t.Fatalf("draws = %v, want [1]", dev.draws)
	}

	// Closed form: the camera at the origin looks down +Z, so the view is
	// diag(-1, 1, -1) and the projection is the GL frustum.
	tn := float32(math.Tan(math.Pi / 6))
	aspect := float32(800) / 600
	n, f := DefaultNear, DefaultFar
	var want mgl32.Mat4
	want.Set(0, 0, -1/(tn*aspect))
	want.Set(1, 1, 1/tn)
	want.Set(2, 2, (f+n)/(f-n))
	want.Set(2, 3, -2*f*n/(f-n))
	want.Set(3, 2, 1)

	got := dev.programs[0].uniforms[UniformViewProj]
	if !matApprox(got, want, 1e-4) {
		t.Errorf("view-projection =\n%v\nwant\n%v", got, want)
	}
	if dev.viewport != [4]int{0, 0, 800, 600} {
		t.Errorf("viewport = %v, want [0 0 800 600]", dev.viewport)
	}

	va := dev.vertexArrays[0]
	if !slices.Equal(va.attrs[AttribPosition], triangleA.Vertices[:]) {
		t.Errorf("positions = %v, want %v", va.attrs[AttribPosition], triangleA.Vertices)
	}
	red := triangleA.Color
	if !slices.Equal(va.attrs[AttribColor], []mgl32.Vec3{red, red, red}) {
		t.Errorf("colors = %v, want red per vertex", va.attrs[AttribColor])
	}
}

func TestRendererClearThenRenderDrawsNothing(t *testing.T) {
	r, dev := newTestRenderer(t)
	vp := Viewport{Pos: image.Pt(10, 20), Size: image.Pt(320, 240)}
	cam := Camera{Pos: mgl32.Vec3{1, 2, 3}, Pitch: 0.1, Yaw: 0.2, FovY: 1}
	if err := r.SetViewport(vp); err != nil {
		t.Fatal(err)
	}
	if err := r.SetCamera(cam); err != nil {
		t.Fatal(err)
	}
	for range 2 {
		if err := r.AddSurface(triangleA); err != nil {
			t.Fatal(err)
		}
	}
	r.Clear()
	r.Clear()
	if err := r.Render(); err != nil {
		t.Fatalf("Render() after Clear = %v", err)
	}

	if got := dev.lastDraw(); got != 0 {
		t.Errorf("draw count = %d, want 0", got)
	}
	if got := len(dev.vertexArrays[0].attrs[AttribPosition]); got != 0 {
		t.Errorf("uploaded %d positions, want 0", got)
	}
	// Clear resets geometry only.
	if dev.viewport != [4]int{10, 20, 320, 240} {
		t.Errorf("viewport = %v, want the one set before Clear", dev.viewport)
	}
	want := ViewProjection(cam, vp, DefaultNear, DefaultFar)
	if got := dev.programs[0].uniforms[UniformViewProj]; got != want {
		t.Error("camera changed across Clear")
	}
}

func TestRenderIdempotent(t *testing.T) {
	r, dev := newTestRenderer(t)
	_ = r.SetViewport(Viewport{Size: image.Pt(640, 480)})
	_ = r.AddSurface(triangleA)
	_ = r.AddObject(mgl32.Vec3{0, 0, 100}, 40)

	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	va := dev.vertexArrays[0]
	pos1 := va.attrs[AttribPosition]
	col1 := va.attrs[AttribColor]
	vp1 := dev.programs[0].uniforms[UniformViewProj]
	staged := r.TriangleCount()

	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(pos1, va.attrs[AttribPosition]) || !slices.Equal(col1, va.attrs[AttribColor]) {
		t.Error("second Render uploaded different buffers")
	}
	if vp1 != dev.programs[0].uniforms[UniformViewProj] {
		t.Error("second Render used a different transform")
	}
	if len(dev.draws) != 2 || dev.draws[0] != dev.draws[1] {
		t.Errorf("draws = %v, want two equal counts", dev.draws)
	}
	if r.TriangleCount() != staged {
		t.Errorf("Render mutated staging: %d -> %d triangles", staged, r.TriangleCount())
	}
}

func TestRenderCallOrder(t *testing.T) {
	r, dev := newTestRenderer(t)
	_ = r.SetViewport(Viewport{Size: image.Pt(4, 2)})
	_ = r.AddSurface(triangleA)
	dev.calls = nil

	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Bind",
		"Set(inPos,3)",
		"Set(inColor,3)",
		"Use",
		"SetUniform(uViewProjMatrix)",
		"SetViewport(0,0,4,2)",
		"Clear",
		"DrawTriangles(1)",
	}
	if !slices.Equal(dev.calls, want) {
		t.Errorf("calls = %v\nwant %v", dev.calls, want)
	}
}

func TestStagingInvariantHolds(t *testing.T) {
	r, _ := newTestRenderer(t)
	rng := rand.New(rand.NewPCG(1, 2))
	coord := func() float32 { return rng.Float32()*200 - 100 }

	total := 0
	for i := range 200 {
		switch rng.IntN(4) {
		case 0:
			r.Clear()
			total = 0
		case 1:
			if err := r.AddObject(mgl32.Vec3{coord(), coord(), coord()}, rng.Float32()*50+1); err != nil {
				t.Fatalf("step %d: AddObject() = %v", i, err)
			}
			total += 12
		default:
			s := Surface{Color: mgl32.Vec3{rng.Float32(), rng.Float32(), rng.Float32()}}
			for v := range s.Vertices {
				s.Vertices[v] = mgl32.Vec3{coord(), coord(), coord()}
			}
			if err := r.AddSurface(s); err != nil {
				t.Fatalf("step %d: AddSurface() = %v", i, err)
			}
			total++
		}
		checkStagingInvariant(t, r)
		if r.TriangleCount() != total {
			t.Fatalf("step %d: TriangleCount() = %d, want %d", i, r.TriangleCount(), total)
		}
	}
}

func TestAddSurfaceKeepsVertexOrder(t *testing.T) {
	r, _ := newTestRenderer(t)
	s := Surface{
		Vertices: [3]mgl32.Vec3{{3, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		Color:    mgl32.Vec3{0, 1, 0},
	}
	_ = r.AddSurface(s)
	if !slices.Equal(r.staging.pos, s.Vertices[:]) {
		t.Errorf("staged %v, want %v", r.staging.pos, s.Vertices)
	}
}

func TestAddSurfaceClampsColor(t *testing.T) {
	r, dev := newTestRenderer(t)
	s := triangleA
	s.Color = mgl32.Vec3{-0.5, 0.25, 7}
	if err := r.AddSurface(s); err != nil {
		t.Fatal(err)
	}
	_ = r.Render()
	want := mgl32.Vec3{0, 0.25, 1}
	for i, c := range dev.vertexArrays[0].attrs[AttribColor] {
		if c != want {
			t.Errorf("color[%d] = %v, want %v", i, c, want)
		}
	}
}

func TestInvalidInputLeavesStateUnchanged(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	r, dev := newTestRenderer(t)
	vp := Viewport{Pos: image.Pt(1, 2), Size: image.Pt(30, 40)}
	cam := Camera{Pos: mgl32.Vec3{5, 5, 5}, FovY: 1.2}
	_ = r.SetViewport(vp)
	_ = r.SetCamera(cam)
	_ = r.AddSurface(triangleA)

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"negative width", func() error { return r.SetViewport(Viewport{Size: image.Pt(-1, 10)}) }, ErrInvalidViewport},
		{"negative height", func() error { return r.SetViewport(Viewport{Size: image.Pt(10, -1)}) }, ErrInvalidViewport},
		{"zero fov", func() error { return r.SetCamera(Camera{FovY: 0}) }, ErrInvalidCamera},
		{"negative fov", func() error { return r.SetCamera(Camera{FovY: -1}) }, ErrInvalidCamera},
		{"fov pi", func() error { return r.SetCamera(Camera{FovY: math.Pi}) }, ErrInvalidCamera},
		{"nan pitch", func() error { return r.SetCamera(Camera{Pitch: nan, FovY: 1}) }, ErrInvalidCamera},
		{"inf position", func() error { return r.SetCamera(Camera{Pos: mgl32.Vec3{inf, 0, 0}, FovY: 1}) }, ErrInvalidCamera},
		{"birds-eye zero span", func() error { return r.SetBirdsEyeCamera(BirdsEyeCamera{}) }, ErrInvalidCamera},
		{"nan vertex", func() error {
			s := triangleA
			s.Vertices[1][2] = nan
			return r.AddSurface(s)
		}, ErrInvalidSurface},
		{"inf color", func() error {
			s := triangleA
			s.Color[0] = inf
			return r.AddSurface(s)
		}, ErrInvalidSurface},
		{"zero height", func() error { return r.AddObject(mgl32.Vec3{}, 0) }, ErrInvalidObject},
		{"negative height", func() error { return r.AddObject(mgl32.Vec3{}, -3) }, ErrInvalidObject},
		{"nan object", func() error { return r.AddObject(mgl32.Vec3{nan, 0, 0}, 3) }, ErrInvalidObject},
		{"zero radius", func() error { return r.AddHitbox(mgl32.Vec3{}, 3, 0) }, ErrInvalidObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if r.TriangleCount() != 1 {
		t.Errorf("TriangleCount() = %d, want 1", r.TriangleCount())
	}
	if r.CameraMode() != CameraRotate {
		t.Errorf("CameraMode() = %v after rejected birds-eye camera", r.CameraMode())
	}
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}
	if dev.viewport != [4]int{1, 2, 30, 40} {
		t.Errorf("viewport = %v, want the last valid one", dev.viewport)
	}
	want := ViewProjection(cam, vp, DefaultNear, DefaultFar)
	if got := dev.programs[0].uniforms[UniformViewProj]; got != want {
		t.Error("rejected camera replaced the previous one")
	}
}

func TestRenderUsesLatestState(t *testing.T) {
	r, dev := newTestRenderer(t)
	_ = r.SetViewport(Viewport{Size: image.Pt(100, 100)})
	_ = r.SetCamera(Camera{FovY: 0.5})

	vp := Viewport{Pos: image.Pt(7, 9), Size: image.Pt(200, 50)}
	cam := Camera{Pos: mgl32.Vec3{10, 20, 30}, Pitch: -0.3, Yaw: 1.1, FovY: 0.9}
	_ = r.SetViewport(vp)
	_ = r.SetCamera(cam)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}

	if dev.viewport != [4]int{7, 9, 200, 50} {
		t.Errorf("viewport = %v, want [7 9 200 50]", dev.viewport)
	}
	want := ViewProjection(cam, vp, DefaultNear, DefaultFar)
	if got := dev.programs[0].uniforms[UniformViewProj]; got != want {
		t.Errorf("view-projection =\n%v\nwant\n%v", got, want)
	}
	if got := r.ViewProjection(); got != want {
		t.Error("ViewProjection() disagrees with the uploaded uniform")
	}
}

func TestZeroAreaViewportRenders(t *testing.T) {
	r, dev := newTestRenderer(t)
	_ = r.SetViewport(Viewport{Size: image.Pt(0, 600)})
	_ = r.AddSurface(triangleA)
	if err := r.Render(); err != nil {
		t.Fatalf("Render() = %v", err)
	}
	m := dev.programs[0].uniforms[UniformViewProj]
	for i, v := range m {
		if !finite(v) {
			t.Fatalf("view-projection[%d] = %v, want finite", i, v)
		}
	}
}

func TestBirdsEyeCameraMode(t *testing.T) {
	r, dev := newTestRenderer(t)
	vp := Viewport{Size: image.Pt(200, 100)}
	_ = r.SetViewport(vp)

	be := BirdsEyeCamera{Pos: mgl32.Vec3{0, 1000, 0}, SpanY: 400}
	if err := r.SetBirdsEyeCamera(be); err != nil {
		t.Fatal(err)
	}
	if r.CameraMode() != CameraBirdsEye {
		t.Fatalf("CameraMode() = %v, want %v", r.CameraMode(), CameraBirdsEye)
	}
	_ = r.Render()
	if got, want := dev.programs[0].uniforms[UniformViewProj], BirdsEyeViewProjection(be, vp); got != want {
		t.Error("birds-eye Render did not use the birds-eye transform")
	}

	cam := Camera{FovY: 1}
	_ = r.SetCamera(cam)
	if r.CameraMode() != CameraRotate {
		t.Errorf("SetCamera did not switch back to %v", CameraRotate)
	}
	_ = r.Render()
	if got, want := dev.programs[0].uniforms[UniformViewProj], ViewProjection(cam, vp, DefaultNear, DefaultFar); got != want {
		t.Error("Render did not use the perspective transform after SetCamera")
	}
}

func TestRenderErrorsWrapped(t *testing.T) {
	boom := errors.New("boom")

	t.Run("upload", func(t *testing.T) {
		r, dev := newTestRenderer(t)
		dev.vertexArrays[0].failSet = boom
		if err := r.Render(); !errors.Is(err, boom) {
			t.Errorf("Render() = %v, want wrapping boom", err)
		}
		if len(dev.draws) != 0 {
			t.Error("draw issued after failed upload")
		}
	})

	t.Run("draw", func(t *testing.T) {
		r, dev := newTestRenderer(t)
		dev.failDraw = boom
		_ = r.AddSurface(triangleA)
		if err := r.Render(); !errors.Is(err, boom) {
			t.Errorf("Render() = %v, want wrapping boom", err)
		}
		if r.TriangleCount() != 1 {
			t.Error("failed Render changed staged geometry")
		}
	})
}

func TestRendererClose(t *testing.T) {
	r, dev := newTestRenderer(t)
	_ = r.AddSurface(triangleA)

	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close() = %v", err)
	}
	if !r.IsClosed() {
		t.Error("IsClosed() = false after Close")
	}
	if dev.programs[0].destroyed != 1 || dev.vertexArrays[0].destroyed != 1 {
		t.Errorf("destroyed program=%d vertexArray=%d, want 1 each",
			dev.programs[0].destroyed, dev.vertexArrays[0].destroyed)
	}
	// Vertex array goes before the program it was built from.
	i := slices.Index(dev.calls, "DestroyVertexArray")
	j := slices.Index(dev.calls, "DestroyProgram")
	if i < 0 || j < 0 || i > j {
		t.Errorf("destroy order in %v, want vertex array first", dev.calls)
	}

	checks := map[string]error{
		"Render":            r.Render(),
		"SetViewport":       r.SetViewport(Viewport{}),
		"SetCamera":         r.SetCamera(DefaultCamera()),
		"SetBirdsEyeCamera": r.SetBirdsEyeCamera(BirdsEyeCamera{SpanY: 1}),
		"AddSurface":        r.AddSurface(triangleA),
		"AddObject":         r.AddObject(mgl32.Vec3{}, 1),
		"AddHitbox":         r.AddHitbox(mgl32.Vec3{}, 1, 1),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("%s after Close = %v, want ErrClosed", name, err)
		}
	}
}

func TestRendererOptions(t *testing.T) {
	clearColor := mgl32.Vec4{0.1, 0.2, 0.3, 1}
	objColor := mgl32.Vec3{0, 0, 1}
	r, dev := newTestRenderer(t,
		WithClearColor(clearColor),
		WithObjectColor(objColor),
		WithDepthRange(1, 500),
	)
	vp := Viewport{Size: image.Pt(10, 10)}
	_ = r.SetViewport(vp)
	_ = r.AddObject(mgl32.Vec3{}, 4)
	if err := r.Render(); err != nil {
		t.Fatal(err)
	}

	if dev.clearColor != clearColor {
		t.Errorf("clear color = %v, want %v", dev.clearColor, clearColor)
	}
	for i, c := range dev.vertexArrays[0].attrs[AttribColor] {
		if c != objColor {
			t.Fatalf("object color[%d] = %v, want %v", i, c, objColor)
		}
	}
	want := ViewProjection(DefaultCamera(), vp, 1, 500)
	if got := dev.programs[0].uniforms[UniformViewProj]; got != want {
		t.Error("WithDepthRange not applied to the projection")
	}
}

func TestWithDepthRangeIgnoresInvalid(t *testing.T) {
	tests := []struct {
		name      string
		near, far float32
	}{
		{"zero near", 0, 10},
		{"negative near", -1, 10},
		{"far below near", 10, 5},
		{"equal", 5, 5},
		{"nan", float32(math.NaN()), 10},
		{"inf far", 1, float32(math.Inf(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			WithDepthRange(tt.near, tt.far)(&o)
			if o.near != DefaultNear || o.far != DefaultFar {
				t.Errorf("depth range = (%v, %v), want defaults", o.near, o.far)
			}
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.clearColor != (mgl32.Vec4{0, 0, 0, 1}) {
		t.Errorf("clearColor = %v, want opaque black", o.clearColor)
	}
	if o.objectColor != (mgl32.Vec3{1, 0, 0}) {
		t.Errorf("objectColor = %v, want red", o.objectColor)
	}
	WithObjectColor(mgl32.Vec3{float32(math.NaN()), 0, 0})(&o)
	if o.objectColor != (mgl32.Vec3{1, 0, 0}) {
		t.Error("WithObjectColor accepted a NaN color")
	}
}

func BenchmarkRenderObjects(b *testing.B) {
	dev := newFakeDevice()
	r, err := NewRenderer(dev)
	if err != nil {
		b.Fatal(err)
	}
	_ = r.SetViewport(Viewport{Size: image.Pt(800, 600)})
	b.ReportAllocs()
	for b.Loop() {
		r.Clear()
		for i := range 100 {
			_ = r.AddObject(mgl32.Vec3{float32(i), 0, 100}, 10)
		}
		_ = r.Render()
	}
}
