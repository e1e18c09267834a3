package gg3d

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// fakeDevice records every call a Renderer makes so tests can check what
// reached the graphics layer.
type fakeDevice struct {
	calls []string

	programs     []*fakeProgram
	vertexArrays []*fakeVertexArray

	viewport   [4]int
	clearColor mgl32.Vec4
	draws      []int

	failProgram     error
	failVertexArray error
	failDraw        error
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{}
}

func (d *fakeDevice) record(format string, args ...any) {
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) NewProgram(desc ProgramDescriptor) (Program, error) {
	d.record("NewProgram(%s)", desc.Name)
	if d.failProgram != nil {
		return nil, d.failProgram
	}
	p := &fakeProgram{dev: d, desc: desc, uniforms: map[string]mgl32.Mat4{}}
	d.programs = append(d.programs, p)
	return p, nil
}

func (d *fakeDevice) NewVertexArray(p Program) (VertexArray, error) {
	d.record("NewVertexArray")
	if d.failVertexArray != nil {
		return nil, d.failVertexArray
	}
	fp, ok := p.(*fakeProgram)
	if !ok {
		return nil, errors.New("foreign program")
	}
	va := &fakeVertexArray{dev: d, attrs: map[string][]mgl32.Vec3{}}
	for _, name := range fp.desc.Attributes {
		va.attrs[name] = nil
	}
	d.vertexArrays = append(d.vertexArrays, va)
	return va, nil
}

func (d *fakeDevice) SetViewport(x, y, width, height int) {
	d.record("SetViewport(%d,%d,%d,%d)", x, y, width, height)
	d.viewport = [4]int{x, y, width, height}
}

func (d *fakeDevice) Clear(color mgl32.Vec4) {
	d.record("Clear")
	d.clearColor = color
}

func (d *fakeDevice) DrawTriangles(count int) error {
	d.record("DrawTriangles(%d)", count)
	if d.failDraw != nil {
		return d.failDraw
	}
	d.draws = append(d.draws, count)
	return nil
}

func (d *fakeDevice) lastDraw() int {
	if len(d.draws) == 0 {
		return -1
	}
	return d.draws[len(d.draws)-1]
}

type fakeProgram struct {
	dev       *fakeDevice
	desc      ProgramDescriptor
	uniforms  map[string]mgl32.Mat4
	destroyed int
}

func (p *fakeProgram) Use() { p.dev.record("Use") }

func (p *fakeProgram) SetUniform(name string, m mgl32.Mat4) error {
	p.dev.record("SetUniform(%s)", name)
	for _, u := range p.desc.Uniforms {
		if u == name {
			p.uniforms[name] = m
			return nil
		}
	}
	return fmt.Errorf("unknown uniform %q", name)
}

func (p *fakeProgram) Destroy() {
	p.dev.record("DestroyProgram")
	p.destroyed++
}

type fakeVertexArray struct {
	dev       *fakeDevice
	attrs     map[string][]mgl32.Vec3
	uploads   int
	destroyed int
	failSet   error
}

func (va *fakeVertexArray) Bind() { va.dev.record("Bind") }

func (va *fakeVertexArray) Set(attribute string, data []mgl32.Vec3) error {
	va.dev.record("Set(%s,%d)", attribute, len(data))
	if va.failSet != nil {
		return va.failSet
	}
	if _, ok := va.attrs[attribute]; !ok {
		return fmt.Errorf("unknown attribute %q", attribute)
	}
	// Copy, as a real upload would.
	va.attrs[attribute] = append([]mgl32.Vec3(nil), data...)
	va.uploads++
	return nil
}

func (va *fakeVertexArray) Destroy() {
	va.dev.record("DestroyVertexArray")
	va.destroyed++
}
