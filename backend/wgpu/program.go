package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gg3d"
)

// Program is a compiled WGSL program with its render pipeline. Each
// uniform occupies one mat4 slot of the program's uniform buffer, in
// descriptor order.
type Program struct {
	dev       *Device
	desc      gg3d.ProgramDescriptor
	res       *pipelineResources
	scratch   [mat4Size]byte
	destroyed bool
}

func newProgram(d *Device, desc gg3d.ProgramDescriptor) (*Program, error) {
	source, ok := shaderSources[desc.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProgram, desc.Name)
	}
	if len(desc.Attributes) == 0 || len(desc.Uniforms) == 0 {
		return nil, fmt.Errorf("wgpu: program %q needs at least one attribute and one uniform", desc.Name)
	}
	res, err := newPipelineResources(d.device, pipelineConfig{
		name:         desc.Name,
		source:       source,
		uniformSize:  uint64(mat4Size * len(desc.Uniforms)),
		vertex:       attributeLayouts(len(desc.Attributes)),
		depthWrite:   true,
		depthCompare: gputypes.CompareFunctionLessEqual,
	})
	if err != nil {
		return nil, err
	}
	p := &Program{dev: d, desc: desc, res: res}
	// uniforms start as identity
	for _, u := range desc.Uniforms {
		if err := p.SetUniform(u, mgl32.Ident4()); err != nil {
			res.destroy()
			return nil, err
		}
	}
	return p, nil
}

// Use binds the program for subsequent draws.
func (p *Program) Use() {
	p.dev.program = p
}

// SetUniform writes m into the named uniform slot.
func (p *Program) SetUniform(name string, m mgl32.Mat4) error {
	if p.destroyed || p.dev.closed {
		return ErrDestroyed
	}
	i := slices.Index(p.desc.Uniforms, name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownUniform, name)
	}
	encodeMat4(p.scratch[:], m)
	if err := p.dev.queue.WriteBuffer(p.res.uniformBuf, uint64(i*mat4Size), p.scratch[:]); err != nil {
		return fmt.Errorf("wgpu: write uniform %q: %w", name, err)
	}
	return nil
}

// Destroy releases the pipeline and its uniform buffer.
func (p *Program) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	// a closed device already took its handles with it
	if !p.dev.closed {
		p.res.destroy()
	}
	if p.dev.program == p {
		p.dev.program = nil
	}
}

// encodeMat4 writes m column-major as little-endian float32, the layout
// of a WGSL mat4x4<f32>.
func encodeMat4(dst []byte, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// minVertexBufferSize is the smallest vertex buffer allocation.
const minVertexBufferSize = 256

// attributeBuffer is the GPU buffer backing one vertex attribute.
type attributeBuffer struct {
	buf      hal.Buffer
	capacity uint64
	count    int
}

// VertexArray owns one vertex buffer per program attribute. Buffers grow
// to the next power of two and are never shrunk.
type VertexArray struct {
	dev       *Device
	names     []string
	attrs     []attributeBuffer
	scratch   []byte
	destroyed bool
}

func newVertexArray(d *Device, p *Program) *VertexArray {
	return &VertexArray{
		dev:   d,
		names: slices.Clone(p.desc.Attributes),
		attrs: make([]attributeBuffer, len(p.desc.Attributes)),
	}
}

// Bind makes the vertex array current for subsequent draws.
func (va *VertexArray) Bind() {
	va.dev.vertexArray = va
}

// Set replaces the contents of the named attribute buffer.
func (va *VertexArray) Set(attribute string, data []mgl32.Vec3) error {
	if va.destroyed || va.dev.closed {
		return ErrDestroyed
	}
	i := slices.Index(va.names, attribute)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, attribute)
	}
	a := &va.attrs[i]
	size := uint64(len(data) * vec3Stride)
	if size > a.capacity || a.buf == nil {
		if err := va.grow(a, attribute, size); err != nil {
			return err
		}
	}
	a.count = len(data)
	if size == 0 {
		return nil
	}

	if cap(va.scratch) < int(size) {
		va.scratch = make([]byte, size)
	}
	buf := va.scratch[:size]
	for j, v := range data {
		off := j * vec3Stride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v[0]))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v[1]))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v[2]))
	}
	if err := va.dev.queue.WriteBuffer(a.buf, 0, buf); err != nil {
		return fmt.Errorf("wgpu: upload %q: %w", attribute, err)
	}
	gg3d.Logger().Debug("wgpu: attribute uploaded", "attribute", attribute, "vertices", len(data), "bytes", size)
	return nil
}

// grow replaces a's buffer with one holding at least size bytes.
func (va *VertexArray) grow(a *attributeBuffer, name string, size uint64) error {
	capacity := nextPowerOfTwo(max(size, minVertexBufferSize))
	buf, err := va.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: name + "_vertices",
		Size:  capacity,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: allocate %q buffer of %d bytes: %w", name, capacity, err)
	}
	if a.buf != nil {
		va.dev.device.DestroyBuffer(a.buf)
	}
	a.buf = buf
	a.capacity = capacity
	return nil
}

// Destroy releases the vertex buffers.
func (va *VertexArray) Destroy() {
	if va.destroyed {
		return
	}
	va.destroyed = true
	for i := range va.attrs {
		if va.attrs[i].buf != nil && !va.dev.closed {
			va.dev.device.DestroyBuffer(va.attrs[i].buf)
		}
	}
	va.attrs = nil
	va.scratch = nil
	if va.dev.vertexArray == va {
		va.dev.vertexArray = nil
	}
}

func nextPowerOfTwo(n uint64) uint64 {
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}
