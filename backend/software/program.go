package software

import (
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/gg3d"
)

// Program is the CPU rendition of a shader program: it transforms the
// first attribute by the first uniform and interpolates the second
// attribute as color.
type Program struct {
	dev       *Device
	desc      gg3d.ProgramDescriptor
	uniforms  map[string]mgl32.Mat4
	destroyed bool
}

func newProgram(d *Device, desc gg3d.ProgramDescriptor) (*Program, error) {
	if desc.Name != gg3d.SurfaceProgram {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, desc.Name)
	}
	if len(desc.Attributes) < 2 || len(desc.Uniforms) < 1 {
		return nil, fmt.Errorf("software: program %q needs position and color attributes and a transform uniform", desc.Name)
	}
	p := &Program{
		dev:      d,
		desc:     desc,
		uniforms: make(map[string]mgl32.Mat4, len(desc.Uniforms)),
	}
	for _, u := range desc.Uniforms {
		p.uniforms[u] = mgl32.Ident4()
	}
	return p, nil
}

// Use binds the program for subsequent draws.
func (p *Program) Use() {
	p.dev.program = p
}

// SetUniform stores a matrix uniform.
func (p *Program) SetUniform(name string, m mgl32.Mat4) error {
	if p.destroyed {
		return ErrDestroyed
	}
	if _, ok := p.uniforms[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	p.uniforms[name] = m
	return nil
}

// Destroy releases the program.
func (p *Program) Destroy() {
	p.destroyed = true
	if p.dev.program == p {
		p.dev.program = nil
	}
}

// transform returns the first declared uniform.
func (p *Program) transform() mgl32.Mat4 {
	return p.uniforms[p.desc.Uniforms[0]]
}

// VertexArray holds one CPU buffer per program attribute.
type VertexArray struct {
	dev       *Device
	names     []string
	attrs     [][]mgl32.Vec3
	destroyed bool
}

func newVertexArray(d *Device, p *Program) *VertexArray {
	return &VertexArray{
		dev:   d,
		names: slices.Clone(p.desc.Attributes),
		attrs: make([][]mgl32.Vec3, len(p.desc.Attributes)),
	}
}

// Bind makes the vertex array current for subsequent draws.
func (va *VertexArray) Bind() {
	va.dev.vertexArray = va
}

// Set replaces the contents of the named attribute buffer.
func (va *VertexArray) Set(attribute string, data []mgl32.Vec3) error {
	if va.destroyed {
		return ErrDestroyed
	}
	i := slices.Index(va.names, attribute)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	va.attrs[i] = append(va.attrs[i][:0], data...)
	return nil
}

// Destroy releases the vertex array's buffers.
func (va *VertexArray) Destroy() {
	va.destroyed = true
	va.attrs = nil
	if va.dev.vertexArray == va {
		va.dev.vertexArray = nil
	}
}

func (va *VertexArray) positions() []mgl32.Vec3 { return va.attrs[0] }
func (va *VertexArray) colors() []mgl32.Vec3    { return va.attrs[1] }
