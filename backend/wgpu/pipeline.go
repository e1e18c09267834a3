package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Render target formats.
const (
	colorFormat = gputypes.TextureFormatRGBA8Unorm
	depthFormat = gputypes.TextureFormatDepth24Plus
)

// mat4Size is the byte size of one mat4x4<f32> uniform.
const mat4Size = 64

// pipelineConfig describes the parts that differ between the surface and
// clear pipelines.
type pipelineConfig struct {
	name         string
	source       string
	uniformSize  uint64
	vertex       []gputypes.VertexBufferLayout
	depthWrite   bool
	depthCompare gputypes.CompareFunction
}

// pipelineResources owns one render pipeline and its uniform binding.
type pipelineResources struct {
	device hal.Device

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
	uniformBuf    hal.Buffer
	bindGroup     hal.BindGroup
}

// newPipelineResources compiles the shader and creates the pipeline with
// a single uniform buffer at group 0, binding 0. Partially created
// resources are released on failure.
func newPipelineResources(device hal.Device, cfg pipelineConfig) (*pipelineResources, error) { //nolint:funlen // one descriptor per GPU object
	r := &pipelineResources{device: device}
	ok := false
	defer func() {
		if !ok {
			r.destroy()
		}
	}()

	shader, err := createShaderModule(device, cfg.name, cfg.source)
	if err != nil {
		return nil, err
	}
	r.shader = shader

	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: cfg.name + "_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s uniform layout: %w", cfg.name, err)
	}
	r.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            cfg.name + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{r.uniformLayout},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline layout: %w", cfg.name, err)
	}
	r.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  cfg.name + "_pipeline",
		Layout: r.pipeLayout,
		Vertex: hal.VertexState{
			Module:     r.shader,
			EntryPoint: "vs_main",
			Buffers:    cfg.vertex,
		},
		Fragment: &hal.FragmentState{
			Module:     r.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    colorFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		DepthStencil: &hal.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: cfg.depthWrite,
			DepthCompare:      cfg.depthCompare,
			StencilFront:      keepStencil(),
			StencilBack:       keepStencil(),
		},
		Primitive: gputypes.PrimitiveState{
			Topology:  gputypes.PrimitiveTopologyTriangleList,
			FrontFace: gputypes.FrontFaceCCW,
			CullMode:  gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s pipeline: %w", cfg.name, err)
	}
	r.pipeline = pipeline

	uniformBuf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: cfg.name + "_uniforms",
		Size:  cfg.uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s uniform buffer: %w", cfg.name, err)
	}
	r.uniformBuf = uniformBuf

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  cfg.name + "_bind_group",
		Layout: r.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding: 0,
				Resource: gputypes.BufferBinding{
					Buffer: r.uniformBuf.NativeHandle(),
					Offset: 0,
					Size:   cfg.uniformSize,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s bind group: %w", cfg.name, err)
	}
	r.bindGroup = bindGroup

	ok = true
	return r, nil
}

func keepStencil() hal.StencilFaceState {
	return hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
}

// record binds the pipeline and its uniforms on rp.
func (r *pipelineResources) record(rp hal.RenderPassEncoder) {
	rp.SetPipeline(r.pipeline)
	rp.SetBindGroup(0, r.bindGroup, nil)
}

// destroy releases all resources in reverse creation order. Safe to call
// more than once.
func (r *pipelineResources) destroy() {
	if r == nil || r.device == nil {
		return
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
		r.bindGroup = nil
	}
	if r.uniformBuf != nil {
		r.device.DestroyBuffer(r.uniformBuf)
		r.uniformBuf = nil
	}
	if r.pipeline != nil {
		r.device.DestroyRenderPipeline(r.pipeline)
		r.pipeline = nil
	}
	if r.pipeLayout != nil {
		r.device.DestroyPipelineLayout(r.pipeLayout)
		r.pipeLayout = nil
	}
	if r.uniformLayout != nil {
		r.device.DestroyBindGroupLayout(r.uniformLayout)
		r.uniformLayout = nil
	}
	if r.shader != nil {
		r.device.DestroyShaderModule(r.shader)
		r.shader = nil
	}
}

// vec3Stride is the byte size of one vec3<f32> vertex attribute.
const vec3Stride = 12

// attributeLayouts returns one vertex buffer per attribute, each a tightly
// packed vec3<f32> at shader location i.
func attributeLayouts(n int) []gputypes.VertexBufferLayout {
	layouts := make([]gputypes.VertexBufferLayout, n)
	for i := range layouts {
		layouts[i] = gputypes.VertexBufferLayout{
			ArrayStride: vec3Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: uint32(i)},
			},
		}
	}
	return layouts
}
