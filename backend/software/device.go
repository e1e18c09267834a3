package software

import (
	"fmt"
	"image"
	"image/color"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gg3d"
	"github.com/gogpu/gg3d/backend"
)

// Device is a CPU render target. It implements backend.Target.
//
// A Device is not safe for concurrent use.
type Device struct {
	width, height int

	// color is stored top row first, as image.RGBA expects. Window row y
	// lives in image row height-1-y.
	color *image.RGBA
	depth []float32

	// scissor is the viewport clipped to the target, in window
	// coordinates.
	scissor  image.Rectangle
	viewport image.Rectangle

	program     *Program
	vertexArray *VertexArray

	// scratch buffers reused across triangles
	poly, tmp []clipVertex

	closed bool
}

var _ backend.Target = (*Device)(nil)

// New creates a software target of the given size. The color buffer
// starts transparent black and the depth buffer at the far plane.
func New(width, height int) (*Device, error) {
	if err := backend.ValidateSize(width, height); err != nil {
		return nil, err
	}
	d := &Device{
		width:  width,
		height: height,
		color:  image.NewRGBA(image.Rect(0, 0, width, height)),
		depth:  make([]float32, width*height),
		poly:   make([]clipVertex, 0, 10),
		tmp:    make([]clipVertex, 0, 10),
	}
	for i := range d.depth {
		d.depth[i] = 1
	}
	d.SetViewport(0, 0, width, height)
	gg3d.Logger().Debug("software: target created", "width", width, "height", height)
	return d, nil
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendSoftware }

// Size returns the target dimensions.
func (d *Device) Size() image.Point { return image.Pt(d.width, d.height) }

// NewProgram creates the CPU rendition of the described program.
func (d *Device) NewProgram(desc gg3d.ProgramDescriptor) (gg3d.Program, error) {
	if d.closed {
		return nil, ErrDestroyed
	}
	p, err := newProgram(d, desc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewVertexArray creates a vertex array with one empty buffer per
// attribute of p.
func (d *Device) NewVertexArray(p gg3d.Program) (gg3d.VertexArray, error) {
	if d.closed {
		return nil, ErrDestroyed
	}
	sp, ok := p.(*Program)
	if !ok || sp.dev != d {
		return nil, fmt.Errorf("software: program %T does not belong to this device", p)
	}
	if sp.destroyed {
		return nil, ErrDestroyed
	}
	return newVertexArray(d, sp), nil
}

// SetViewport sets the pixel rectangle for subsequent clears and draws.
// Negative sizes are treated as zero.
func (d *Device) SetViewport(x, y, width, height int) {
	width, height = max(width, 0), max(height, 0)
	d.viewport = image.Rect(x, y, x+width, y+height)
	d.scissor = d.viewport.Intersect(image.Rect(0, 0, d.width, d.height))
}

// Clear fills the viewport rectangle with c and resets its depth to the
// far plane. Pixels outside the viewport are left untouched.
func (d *Device) Clear(c mgl32.Vec4) {
	if d.closed || d.scissor.Empty() {
		return
	}
	px := toRGBA(c)
	for y := d.scissor.Min.Y; y < d.scissor.Max.Y; y++ {
		row := d.height - 1 - y
		for x := d.scissor.Min.X; x < d.scissor.Max.X; x++ {
			d.color.SetRGBA(x, row, px)
			d.depth[row*d.width+x] = 1
		}
	}
}

// DrawTriangles rasterizes count triangles from the bound vertex array
// using the bound program.
func (d *Device) DrawTriangles(count int) error {
	if d.closed {
		return ErrDestroyed
	}
	if count < 0 {
		return fmt.Errorf("software: negative triangle count %d", count)
	}
	p, va := d.program, d.vertexArray
	if p == nil || va == nil {
		return ErrNotBound
	}
	if p.destroyed || va.destroyed {
		return ErrDestroyed
	}
	pos, col := va.positions(), va.colors()
	if n := 3 * count; len(pos) < n || len(col) < n {
		return fmt.Errorf("%w: need %d vertices, have %d positions and %d colors",
			ErrShortBuffer, n, len(pos), len(col))
	}
	if d.scissor.Empty() {
		return nil
	}

	m := p.transform()
	for i := 0; i < 3*count; i += 3 {
		d.drawTriangle(
			clipVertex{m.Mul4x1(pos[i].Vec4(1)), col[i]},
			clipVertex{m.Mul4x1(pos[i+1].Vec4(1)), col[i+1]},
			clipVertex{m.Mul4x1(pos[i+2].Vec4(1)), col[i+2]},
		)
	}
	gg3d.Logger().Debug("software: draw", "triangles", count, "viewport", d.viewport)
	return nil
}

// Image returns a copy of the color buffer.
func (d *Device) Image() (*image.RGBA, error) {
	if d.closed {
		return nil, ErrDestroyed
	}
	out := image.NewRGBA(d.color.Rect)
	copy(out.Pix, d.color.Pix)
	return out, nil
}

// Close releases the color and depth buffers.
func (d *Device) Close() error {
	d.closed = true
	d.color = nil
	d.depth = nil
	d.program = nil
	d.vertexArray = nil
	return nil
}

// Depth returns the window-space depth at window pixel (x, y), with y
// measured from the bottom. Pixels outside the target report 1.
func (d *Device) Depth(x, y int) float32 {
	if d.closed || x < 0 || y < 0 || x >= d.width || y >= d.height {
		return 1
	}
	return d.depth[(d.height-1-y)*d.width+x]
}

func toRGBA(c mgl32.Vec4) color.RGBA {
	return color.RGBA{
		R: unorm8(c[0]),
		G: unorm8(c[1]),
		B: unorm8(c[2]),
		A: unorm8(c[3]),
	}
}

// unorm8 converts an intensity to 8 bits, clamping to [0, 1].
func unorm8(v float32) uint8 {
	if math32.IsNaN(v) {
		return 0
	}
	return uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
}
