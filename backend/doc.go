// Package backend provides a pluggable render target abstraction for gg3d.
//
// A Target is a gg3d.Device that draws into an offscreen image. Backends
// register a Factory from their init() functions and are selected at
// runtime by name or by priority.
//
// # Backend Registration
//
// Import the backend packages you want available:
//
//	import (
//		_ "github.com/gogpu/gg3d/backend/software"
//		_ "github.com/gogpu/gg3d/backend/wgpu"
//	)
//
// # Backend Selection
//
// Use OpenDefault to get the best available backend, or Open to request
// a specific backend by name:
//
//	// Best available: wgpu if a GPU opens, otherwise software
//	t, err := backend.OpenDefault(800, 600)
//
//	// Or request a specific backend
//	t, err := backend.Open("software", 800, 600)
//
// # Usage with Renderer
//
//	t, err := backend.OpenDefault(800, 600)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer t.Close()
//
//	r, err := gg3d.NewRenderer(t)
//	...
//	img, err := t.Image()
//
// # Available Backends
//
// - "software": CPU rasterizer with a depth buffer (always available)
// - "wgpu": GPU rendering via gogpu/wgpu (requires a Vulkan driver)
package backend
