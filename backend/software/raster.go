package software

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// clipVertex is a vertex after the program transform.
type clipVertex struct {
	pos   mgl32.Vec4
	color mgl32.Vec3
}

// windowVertex is a vertex after perspective divide and viewport mapping.
type windowVertex struct {
	x, y, z float32
	// invW and colorW drive perspective-correct interpolation.
	invW   float32
	colorW mgl32.Vec3
}

// minW keeps the perspective divide finite for transforms whose near
// plane does not already bound w away from zero.
const minW = 1e-6

// guardBand bounds x and y to [-guardBand*w, guardBand*w] so window
// coordinates stay small enough for float32 edge functions. The scissor
// never leaves the viewport, so clipping here removes no visible pixels.
const guardBand = 2

// clip planes as signed distances: a vertex is inside when >= 0.
// Distances are float64 so intersections of very large triangles land
// on the plane.
var clipPlanes = [...]func(v mgl32.Vec4) float64{
	func(v mgl32.Vec4) float64 { return float64(v.W()) + float64(v.Z()) }, // near
	func(v mgl32.Vec4) float64 { return float64(v.W()) - float64(v.Z()) }, // far
	func(v mgl32.Vec4) float64 { return float64(v.W()) - minW },
	func(v mgl32.Vec4) float64 { return guardBand*float64(v.W()) - float64(v.X()) },
	func(v mgl32.Vec4) float64 { return guardBand*float64(v.W()) + float64(v.X()) },
	func(v mgl32.Vec4) float64 { return guardBand*float64(v.W()) - float64(v.Y()) },
	func(v mgl32.Vec4) float64 { return guardBand*float64(v.W()) + float64(v.Y()) },
}

// drawTriangle clips a triangle against the clip planes and fills the
// resulting convex polygon as a fan.
func (d *Device) drawTriangle(a, b, c clipVertex) {
	poly := append(d.poly[:0], a, b, c)
	for _, plane := range clipPlanes {
		poly, d.tmp = clipPolygon(poly, d.tmp[:0], plane), poly
		if len(poly) < 3 {
			break
		}
	}
	d.poly = poly
	if len(poly) < 3 {
		return
	}

	v0 := d.toWindow(poly[0])
	for i := 1; i+1 < len(poly); i++ {
		d.fillTriangle(v0, d.toWindow(poly[i]), d.toWindow(poly[i+1]))
	}
}

// clipPolygon clips in against one plane (Sutherland-Hodgman), appending
// the result to out.
func clipPolygon(in, out []clipVertex, dist func(mgl32.Vec4) float64) []clipVertex {
	for i := range in {
		cur, next := in[i], in[(i+1)%len(in)]
		dc, dn := dist(cur.pos), dist(next.pos)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			t := dc / (dc - dn)
			out = append(out, clipVertex{
				pos:   lerp4(cur.pos, next.pos, t),
				color: cur.color.Add(next.color.Sub(cur.color).Mul(float32(t))),
			})
		}
	}
	return out
}

func lerp4(a, b mgl32.Vec4, t float64) mgl32.Vec4 {
	var out mgl32.Vec4
	for i := range out {
		out[i] = float32(float64(a[i]) + (float64(b[i])-float64(a[i]))*t)
	}
	return out
}

// toWindow maps a clipped vertex to window coordinates. Depth goes from
// NDC [-1, 1] to [0, 1].
func (d *Device) toWindow(v clipVertex) windowVertex {
	invW := 1 / v.pos.W()
	vp := d.viewport
	nx, ny, nz := v.pos.X()*invW, v.pos.Y()*invW, v.pos.Z()*invW
	return windowVertex{
		x:      float32(vp.Min.X) + (nx+1)*0.5*float32(vp.Dx()),
		y:      float32(vp.Min.Y) + (ny+1)*0.5*float32(vp.Dy()),
		z:      (nz + 1) * 0.5,
		invW:   invW,
		colorW: v.color.Mul(invW),
	}
}

func edge(a, b windowVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

// fillTriangle rasterizes one window-space triangle with a LessEqual
// depth test. Pixels are sampled at their centres. Both windings are
// drawn.
func (d *Device) fillTriangle(v0, v1, v2 windowVertex) {
	area := edge(v0, v1, v2.x, v2.y)
	if area == 0 || math32.IsNaN(area) {
		return
	}

	sc := d.scissor
	minX, maxX := pixelSpan(min(v0.x, v1.x, v2.x), max(v0.x, v1.x, v2.x), sc.Min.X, sc.Max.X)
	minY, maxY := pixelSpan(min(v0.y, v1.y, v2.y), max(v0.y, v1.y, v2.y), sc.Min.Y, sc.Max.Y)

	invArea := 1 / area
	for y := minY; y < maxY; y++ {
		py := float32(y) + 0.5
		row := d.height - 1 - y
		for x := minX; x < maxX; x++ {
			px := float32(x) + 0.5
			b0 := edge(v1, v2, px, py) * invArea
			b1 := edge(v2, v0, px, py) * invArea
			b2 := edge(v0, v1, px, py) * invArea
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := mgl32.Clamp(b0*v0.z+b1*v1.z+b2*v2.z, 0, 1)
			idx := row*d.width + x
			if z > d.depth[idx] {
				continue
			}
			d.depth[idx] = z

			w := b0*v0.invW + b1*v1.invW + b2*v2.invW
			c := v0.colorW.Mul(b0).Add(v1.colorW.Mul(b1)).Add(v2.colorW.Mul(b2)).Mul(1 / w)
			d.color.SetRGBA(x, row, toRGBA(c.Vec4(1)))
		}
	}
}

// pixelSpan returns the pixel range [from, to) covering [lo, hi], limited
// to [minPx, maxPx). Bounds are clamped before the int conversion.
func pixelSpan(lo, hi float32, minPx, maxPx int) (from, to int) {
	lo = mgl32.Clamp(lo, float32(minPx), float32(maxPx))
	hi = mgl32.Clamp(hi, float32(minPx), float32(maxPx))
	return int(math32.Floor(lo)), int(math32.Ceil(hi))
}
