package gg3d

import "github.com/go-gl/mathgl/mgl32"

// Device is the graphics capability a Renderer draws through.
//
// A Device stands for one graphics context. It is passed to NewRenderer
// explicitly rather than looked up from ambient state, so several renderers
// (and several devices) can coexist, and tests can supply a fake.
//
// All methods are called from the goroutine that drives the Renderer.
// Implementations that wrap thread-affine APIs must be used from the
// goroutine owning the underlying context.
type Device interface {
	// NewProgram compiles and links the shader program described by desc.
	NewProgram(desc ProgramDescriptor) (Program, error)

	// NewVertexArray creates a vertex array whose attribute layout follows
	// the program's descriptor. Its buffers start empty.
	NewVertexArray(p Program) (VertexArray, error)

	// SetViewport sets the active pixel rectangle for subsequent clears and
	// draws. The origin is the lower-left corner of the target.
	SetViewport(x, y, width, height int)

	// Clear fills the active viewport rectangle with color and resets depth.
	Clear(color mgl32.Vec4)

	// DrawTriangles issues a triangle-list draw of count triangles using the
	// currently bound program and vertex array. count may be zero.
	DrawTriangles(count int) error
}

// Program is a compiled shader program.
type Program interface {
	// Use binds the program for subsequent draws.
	Use()

	// SetUniform stores a 4x4 matrix uniform by name.
	SetUniform(name string, m mgl32.Mat4) error

	// Destroy releases the program. Safe to call more than once.
	Destroy()
}

// VertexArray describes the vertex attribute layout of a program and owns
// the device buffers backing each attribute.
type VertexArray interface {
	// Bind makes the vertex array current for subsequent draws.
	Bind()

	// Set replaces the entire contents of the named attribute's buffer.
	// An empty slice is valid and leaves the buffer with zero elements.
	Set(attribute string, data []mgl32.Vec3) error

	// Destroy releases the vertex array and its buffers. Safe to call more
	// than once.
	Destroy()
}

// ProgramDescriptor names a program and its inputs.
//
// Devices resolve Name to shader code they ship with. Attributes are listed
// in shader location order: position first, color second. Uniforms holds
// the names accepted by Program.SetUniform.
type ProgramDescriptor struct {
	Name       string
	Attributes []string
	Uniforms   []string
}

// Names of the surface program and its inputs.
const (
	SurfaceProgram  = "surface"
	AttribPosition  = "inPos"
	AttribColor     = "inColor"
	UniformViewProj = "uViewProjMatrix"
)

// SurfaceProgramDescriptor returns the descriptor the Renderer uses for its
// flat-shaded surface program.
func SurfaceProgramDescriptor() ProgramDescriptor {
	return ProgramDescriptor{
		Name:       SurfaceProgram,
		Attributes: []string{AttribPosition, AttribColor},
		Uniforms:   []string{UniformViewProj},
	}
}
