package wgpu

import "github.com/gogpu/gg3d/backend"

// init registers the wgpu backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func(width, height int) (backend.Target, error) {
		return New(width, height)
	})
}
