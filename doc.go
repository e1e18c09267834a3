// Package gg3d provides a minimal immediate-style 3D renderer for Go.
//
// # Overview
//
// gg3d draws flat-shaded triangles. A caller configures a viewport and a
// camera, submits geometry for the frame, and calls Render, which uploads
// everything staged so far and issues a single triangle-list draw.
// Geometry stays staged until Clear, so a frame can be drawn repeatedly.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/gg3d"
//	    "github.com/gogpu/gg3d/backend"
//	    _ "github.com/gogpu/gg3d/backend/software"
//	)
//
//	target, _ := backend.Open("software", 800, 600)
//	defer target.Close()
//
//	r, _ := gg3d.NewRenderer(target)
//	defer r.Close()
//
//	r.Clear()
//	_ = r.SetViewport(gg3d.Viewport{Size: image.Pt(800, 600)})
//	_ = r.SetCamera(gg3d.Camera{Pos: mgl32.Vec3{0, 100, -500}, FovY: mgl32.DegToRad(60)})
//	_ = r.AddSurface(gg3d.NewSurface([3]mgl32.Vec3{{-500, 0, -500}, {-500, 0, 500}, {500, 0, 0}}))
//	_ = r.AddObject(mgl32.Vec3{0, 0, 0}, 160)
//	_ = r.Render()
//
//	img, _ := target.Image()
//
// # Devices
//
// The Renderer draws through a Device passed to NewRenderer. A Device
// creates the shader Program and VertexArray, sets the viewport, clears,
// and issues draws. Two implementations ship with gg3d:
//   - backend/software: a CPU rasterizer with a depth buffer
//   - backend/wgpu: a GPU device on gogpu/wgpu with naga-compiled WGSL
//
// Any other graphics layer can be adapted by implementing Device.
//
// # Coordinate System
//
// World space is right-handed with +Y up. Angles are in radians. With
// Pitch = Yaw = 0 a Camera looks along +Z. Viewport origins follow the
// OpenGL window convention: (0, 0) is the lower-left pixel of the target.
//
// # Errors
//
// Invalid input (non-finite coordinates, a field of view outside (0, π),
// negative viewport sizes, non-positive object heights) is rejected at the
// call that introduced it and leaves the Renderer unchanged. Match errors
// with errors.Is against the sentinels in errors.go.
package gg3d

// Version information
const (
	// Version is the current version of the library
	Version = "0.1.0"

	VersionMajor = 0
	VersionMinor = 1
	VersionPatch = 0
)
