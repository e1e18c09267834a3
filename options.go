package gg3d

import "github.com/go-gl/mathgl/mgl32"

// Option configures a Renderer during creation.
//
// Example:
//
//	r, err := gg3d.NewRenderer(dev,
//	    gg3d.WithDepthRange(1, 5000),
//	    gg3d.WithClearColor(mgl32.Vec4{0.1, 0.1, 0.1, 1}),
//	)
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	near, far   float32
	clearColor  mgl32.Vec4
	objectColor mgl32.Vec3
}

// defaultOptions returns the default renderer options.
func defaultOptions() options {
	return options{
		near:        DefaultNear,
		far:         DefaultFar,
		clearColor:  mgl32.Vec4{0, 0, 0, 1},
		objectColor: mgl32.Vec3{1, 0, 0},
	}
}

// WithDepthRange sets the near and far clip planes of the perspective
// camera. Values that are not finite, or with near <= 0 or far <= near,
// are ignored.
func WithDepthRange(near, far float32) Option {
	return func(o *options) {
		if !finite(near) || !finite(far) || near <= 0 || far <= near {
			return
		}
		o.near = near
		o.far = far
	}
}

// WithClearColor sets the color the viewport is cleared to before each
// frame is drawn.
func WithClearColor(c mgl32.Vec4) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithObjectColor sets the color of geometry emitted by AddObject and
// AddHitbox. Components are clamped to [0, 1] like surface colors.
func WithObjectColor(c mgl32.Vec3) Option {
	return func(o *options) {
		if finiteVec3(c) {
			o.objectColor = c
		}
	}
}
