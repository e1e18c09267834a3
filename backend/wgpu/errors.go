package wgpu

import "errors"

// Package errors for the wgpu backend.
var (
	// ErrNoAdapter is returned by New when no GPU adapter is available.
	ErrNoAdapter = errors.New("wgpu: no GPU adapter available")

	// ErrUnknownProgram is returned by NewProgram for program names with
	// no embedded shader.
	ErrUnknownProgram = errors.New("wgpu: unknown program")

	// ErrUnknownUniform is returned by SetUniform for names not declared
	// in the program descriptor.
	ErrUnknownUniform = errors.New("wgpu: unknown uniform")

	// ErrUnknownAttribute is returned by VertexArray.Set for names not
	// declared in the program descriptor.
	ErrUnknownAttribute = errors.New("wgpu: unknown attribute")

	// ErrNotBound is returned by DrawTriangles when no program or vertex
	// array is bound.
	ErrNotBound = errors.New("wgpu: program or vertex array not bound")

	// ErrShortBuffer is returned by DrawTriangles when an attribute holds
	// fewer vertices than the draw needs.
	ErrShortBuffer = errors.New("wgpu: attribute buffer too short")

	// ErrDestroyed is returned when a destroyed resource or a closed
	// target is used.
	ErrDestroyed = errors.New("wgpu: resource destroyed")

	// ErrProviderNotHAL is returned by NewFromProvider when the provider
	// does not expose HAL device and queue handles.
	ErrProviderNotHAL = errors.New("wgpu: provider does not expose HAL types")
)
