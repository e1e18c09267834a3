package gg3d

import "github.com/go-gl/mathgl/mgl32"

// stagingBuffers accumulates triangles CPU-side until Render uploads them.
//
// Invariant: len(pos) == 3*len(color). Each triangle contributes three
// positions and one color.
type stagingBuffers struct {
	pos   []mgl32.Vec3
	color []mgl32.Vec3

	// vertexColor is upload scratch: color expanded to one entry per
	// vertex. It is rebuilt on every Render and never read back.
	vertexColor []mgl32.Vec3
}

// appendTriangle appends one triangle. The caller has validated it.
func (b *stagingBuffers) appendTriangle(a, c, d, color mgl32.Vec3) {
	b.pos = append(b.pos, a, c, d)
	b.color = append(b.color, clampColor(color))
}

// reset truncates both buffers, keeping their capacity for the next frame.
func (b *stagingBuffers) reset() {
	b.pos = b.pos[:0]
	b.color = b.color[:0]
}

// triangles returns the number of complete triangles staged.
func (b *stagingBuffers) triangles() int {
	return len(b.color)
}

// expandColors fills the scratch slice with each triangle's color repeated
// for its three vertices and returns it.
func (b *stagingBuffers) expandColors() []mgl32.Vec3 {
	n := 3 * len(b.color)
	if cap(b.vertexColor) < n {
		b.vertexColor = make([]mgl32.Vec3, n)
	}
	b.vertexColor = b.vertexColor[:n]
	for i, c := range b.color {
		b.vertexColor[3*i] = c
		b.vertexColor[3*i+1] = c
		b.vertexColor[3*i+2] = c
	}
	return b.vertexColor
}
