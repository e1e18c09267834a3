package wgpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gg3d"
	"github.com/gogpu/gg3d/internal/cache"
)

//go:embed shaders/surface.wgsl
var surfaceShaderSource string

//go:embed shaders/clear.wgsl
var clearShaderSource string

// shaderSources maps program names to embedded WGSL.
var shaderSources = map[string]string{
	gg3d.SurfaceProgram: surfaceShaderSource,
}

// spirvCache holds compiled SPIR-V by program name. naga compilation is
// deterministic, so one result serves every device.
var spirvCache = cache.New[string, []uint32](16)

// compileShader compiles WGSL source to SPIR-V words, caching by name.
func compileShader(name, source string) ([]uint32, error) {
	compiled := false
	words, err := spirvCache.GetOrCreate(name, func() ([]uint32, error) {
		compiled = true
		return compileWGSL(name, source)
	})
	if err != nil {
		return nil, err
	}
	if compiled {
		gg3d.Logger().Debug("wgpu: shader compiled",
			"program", name, "words", len(words), "cached", spirvCache.Len())
	}
	return words, nil
}

func compileWGSL(name, source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", name, err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("compile %s shader: SPIR-V length %d is not a multiple of 4", name, len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}

// createShaderModule compiles source and wraps it in a HAL shader module.
func createShaderModule(device hal.Device, name, source string) (hal.ShaderModule, error) {
	spirv, err := compileShader(name, source)
	if err != nil {
		return nil, err
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  name + "_shader",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return nil, fmt.Errorf("create %s shader module: %w", name, err)
	}
	return module, nil
}
