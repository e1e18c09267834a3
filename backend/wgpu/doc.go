// Package wgpu provides a GPU render target for gg3d on gogpu/wgpu.
//
// Programs are WGSL shaders embedded in the package and compiled to
// SPIR-V with gogpu/naga. Each program becomes a render pipeline with one
// uniform bind group and one vertex buffer per attribute. Rendering goes
// to an RGBA8 color texture with a Depth24Plus depth texture; Image reads
// the color texture back through a mappable staging buffer.
//
// Device calls are synchronous: every DrawTriangles encodes one render
// pass, submits it and waits for the queue to go idle. This keeps the
// gg3d contract that a call has finished when it returns.
//
// Clear follows OpenGL semantics and only touches the viewport
// rectangle. It is recorded and replayed at the start of the next pass
// as a full-viewport triangle at the far plane.
//
// Importing the package registers it as the "wgpu" backend, which opens
// its own Vulkan device:
//
//	import _ "github.com/gogpu/gg3d/backend/wgpu"
//
// To share a device with a host application, use NewWithDevice or
// NewFromProvider.
package wgpu
