package software

import "errors"

// Package errors for the software backend.
var (
	// ErrUnknownProgram is returned by NewProgram for program names the
	// backend has no implementation for.
	ErrUnknownProgram = errors.New("software: unknown program")

	// ErrUnknownUniform is returned by SetUniform for names not declared
	// in the program descriptor.
	ErrUnknownUniform = errors.New("software: unknown uniform")

	// ErrUnknownAttribute is returned by VertexArray.Set for names not
	// declared in the program descriptor.
	ErrUnknownAttribute = errors.New("software: unknown attribute")

	// ErrNotBound is returned by DrawTriangles when no program or vertex
	// array is bound.
	ErrNotBound = errors.New("software: program or vertex array not bound")

	// ErrShortBuffer is returned by DrawTriangles when an attribute holds
	// fewer vertices than the draw needs.
	ErrShortBuffer = errors.New("software: attribute buffer too short")

	// ErrDestroyed is returned when a destroyed program or vertex array is
	// used, or when the target is closed.
	ErrDestroyed = errors.New("software: resource destroyed")
)
