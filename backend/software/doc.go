// Package software provides a CPU render target for gg3d.
//
// The software backend rasterizes triangles into an *image.RGBA with a
// float32 depth buffer. It needs no GPU and is always available, which
// makes it the fallback of backend.OpenDefault and the reference device
// for pixel tests.
//
// Rendering follows OpenGL conventions: clip-space depth in [-w, w] maps
// to window depth [0, 1], the depth test is LessEqual, the viewport origin
// is the bottom-left pixel, and Clear is limited to the viewport
// rectangle. Triangles are clipped against the near and far planes and
// are not culled.
//
// Importing the package registers it as the "software" backend:
//
//	import _ "github.com/gogpu/gg3d/backend/software"
package software
