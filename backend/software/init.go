package software

import "github.com/gogpu/gg3d/backend"

// init registers the software backend on package import.
func init() {
	backend.Register(backend.BackendSoftware, func(width, height int) (backend.Target, error) {
		return New(width, height)
	})
}
