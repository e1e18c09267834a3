package wgpu

import (
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan HAL backend

	"github.com/gogpu/gg3d"
	"github.com/gogpu/gg3d/backend"
)

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// clearUniformSize holds one vec4<f32> clear color.
const clearUniformSize = 16

// Device is a GPU render target. It implements backend.Target.
//
// A Device is not safe for concurrent use.
type Device struct {
	instance hal.Instance // nil when the device is external
	device   hal.Device
	queue    hal.Queue
	owned    bool

	width, height int

	colorTex  hal.Texture
	colorView hal.TextureView
	depthTex  hal.Texture
	depthView hal.TextureView

	clear        *pipelineResources
	clearPending bool
	clearRect    image.Rectangle
	clearScratch [clearUniformSize]byte

	// viewport is in window coordinates with the origin at the bottom
	// left. scissor is the viewport clipped to the target.
	viewport image.Rectangle
	scissor  image.Rectangle

	program     *Program
	vertexArray *VertexArray

	// initialized is set once the attachments have been cleared by a
	// first pass.
	initialized bool
	closed      bool
}

var _ backend.Target = (*Device)(nil)

// New opens a Vulkan device on the best available adapter and creates a
// target of the given size on it. The device is released by Close.
func New(width, height int) (*Device, error) {
	if err := backend.ValidateSize(width, height); err != nil {
		return nil, err
	}
	halBackend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoAdapter)
	}
	instance, err := halBackend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		t := adapters[i].Info.DeviceType
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	opened, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	gg3d.Logger().Info("wgpu: adapter selected",
		"name", selected.Info.Name, "vendor", selected.Info.Vendor, "type", selected.Info.DeviceType)

	d, err := newDevice(opened.Device, opened.Queue, width, height)
	if err != nil {
		opened.Device.Destroy()
		instance.Destroy()
		return nil, err
	}
	d.instance = instance
	d.owned = true
	return d, nil
}

// NewWithDevice creates a target on an existing HAL device and queue.
// Close releases the target's resources but not the device.
func NewWithDevice(device hal.Device, queue hal.Queue, width, height int) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("wgpu: nil device or queue")
	}
	if err := backend.ValidateSize(width, height); err != nil {
		return nil, err
	}
	return newDevice(device, queue, width, height)
}

// NewFromProvider creates a target sharing the GPU device of a host
// application. The provider must also implement HalDevice() any and
// HalQueue() any returning hal.Device and hal.Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, width, height int) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrProviderNotHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProviderNotHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProviderNotHAL)
	}
	info := provider.AdapterInfo()
	gg3d.Logger().Info("wgpu: using shared device", "adapter", info.Name, "type", info.Type)
	return NewWithDevice(device, queue, width, height)
}

func newDevice(device hal.Device, queue hal.Queue, width, height int) (*Device, error) {
	d := &Device{
		device: device,
		queue:  queue,
		width:  width,
		height: height,
	}
	if err := d.createTargets(); err != nil {
		d.release()
		return nil, err
	}
	clearRes, err := newPipelineResources(device, pipelineConfig{
		name:         "clear",
		source:       clearShaderSource,
		uniformSize:  clearUniformSize,
		depthWrite:   true,
		depthCompare: gputypes.CompareFunctionAlways,
	})
	if err != nil {
		d.release()
		return nil, err
	}
	d.clear = clearRes
	d.SetViewport(0, 0, width, height)

	if err := d.runPass("init", nil); err != nil {
		d.release()
		return nil, err
	}
	gg3d.Logger().Debug("wgpu: target created", "width", width, "height", height)
	return d, nil
}

// createTargets allocates the color and depth attachments.
func (d *Device) createTargets() error {
	size := hal.Extent3D{Width: uint32(d.width), Height: uint32(d.height), DepthOrArrayLayers: 1} //nolint:gosec // validated size

	colorTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "gg3d_color",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        colorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create color texture: %w", err)
	}
	d.colorTex = colorTex

	colorView, err := d.device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "gg3d_color_view",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create color view: %w", err)
	}
	d.colorView = colorView

	depthTex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "gg3d_depth",
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create depth texture: %w", err)
	}
	d.depthTex = depthTex

	depthView, err := d.device.CreateTextureView(depthTex, &hal.TextureViewDescriptor{
		Label: "gg3d_depth_view",
	})
	if err != nil {
		return fmt.Errorf("wgpu: create depth view: %w", err)
	}
	d.depthView = depthView
	return nil
}

// Name returns the backend identifier.
func (d *Device) Name() string { return backend.BackendWGPU }

// Size returns the target dimensions.
func (d *Device) Size() image.Point { return image.Pt(d.width, d.height) }

// NewProgram builds the render pipeline for the described program.
func (d *Device) NewProgram(desc gg3d.ProgramDescriptor) (gg3d.Program, error) {
	if d.closed {
		return nil, ErrDestroyed
	}
	p, err := newProgram(d, desc)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewVertexArray creates a vertex array with one buffer slot per
// attribute of p. Buffers are allocated on first Set.
func (d *Device) NewVertexArray(p gg3d.Program) (gg3d.VertexArray, error) {
	if d.closed {
		return nil, ErrDestroyed
	}
	gp, ok := p.(*Program)
	if !ok || gp.dev != d {
		return nil, fmt.Errorf("wgpu: program %T does not belong to this device", p)
	}
	if gp.destroyed {
		return nil, ErrDestroyed
	}
	return newVertexArray(d, gp), nil
}

// SetViewport sets the pixel rectangle for subsequent clears and draws.
// Negative sizes are treated as zero.
func (d *Device) SetViewport(x, y, width, height int) {
	width, height = max(width, 0), max(height, 0)
	d.viewport = image.Rect(x, y, x+width, y+height)
	d.scissor = d.viewport.Intersect(image.Rect(0, 0, d.width, d.height))
}

// Clear fills the viewport rectangle with c and resets its depth to the
// far plane. The clear is recorded and performed by the next pass.
func (d *Device) Clear(c mgl32.Vec4) {
	if d.closed || d.scissor.Empty() {
		return
	}
	if d.clearPending && d.clearRect != d.scissor {
		if err := d.runPass("clear", nil); err != nil {
			gg3d.Logger().Warn("wgpu: clear failed", "error", err)
			return
		}
	}
	for i := range 4 {
		binary.LittleEndian.PutUint32(d.clearScratch[i*4:], math.Float32bits(mgl32.Clamp(c[i], 0, 1)))
	}
	if err := d.queue.WriteBuffer(d.clear.uniformBuf, 0, d.clearScratch[:]); err != nil {
		gg3d.Logger().Warn("wgpu: clear color upload failed", "error", err)
		return
	}
	d.clearPending = true
	d.clearRect = d.scissor
}

// DrawTriangles draws count triangles from the bound vertex array with
// the bound program. It returns after the GPU has finished.
func (d *Device) DrawTriangles(count int) error {
	if d.closed {
		return ErrDestroyed
	}
	if count < 0 {
		return fmt.Errorf("wgpu: negative triangle count %d", count)
	}
	p, va := d.program, d.vertexArray
	if p == nil || va == nil {
		return ErrNotBound
	}
	if p.destroyed || va.destroyed {
		return ErrDestroyed
	}
	n := 3 * count
	for i, a := range va.attrs {
		if a.count < n {
			return fmt.Errorf("%w: need %d vertices, %q has %d", ErrShortBuffer, n, va.names[i], a.count)
		}
	}
	if n == 0 || d.scissor.Empty() {
		if d.clearPending {
			return d.runPass("clear", nil)
		}
		return nil
	}

	err := d.runPass("draw", func(rp hal.RenderPassEncoder) {
		d.setViewportRect(rp, d.viewport)
		d.setScissorRect(rp, d.scissor)
		p.res.record(rp)
		for i, a := range va.attrs {
			rp.SetVertexBuffer(uint32(i), a.buf, 0) //nolint:gosec // attribute index
		}
		rp.Draw(uint32(n), 1, 0, 0) //nolint:gosec // bounded by buffer size
	})
	if err != nil {
		return err
	}
	gg3d.Logger().Debug("wgpu: draw", "triangles", count, "viewport", d.viewport)
	return nil
}

// runPass encodes one render pass, submits it and waits for the queue to
// drain. A pending clear is drawn before draw records its commands.
func (d *Device) runPass(label string, draw func(rp hal.RenderPassEncoder)) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "gg3d_" + label,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gg3d_" + label); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	load := gputypes.LoadOpLoad
	if !d.initialized {
		load = gputypes.LoadOpClear
	}
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "gg3d_" + label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       d.colorView,
			LoadOp:     load,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:            d.depthView,
			DepthLoadOp:     load,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1.0,
			StencilReadOnly: true,
		},
	})
	if d.clearPending {
		d.setViewportRect(rp, d.clearRect)
		d.setScissorRect(rp, d.clearRect)
		d.clear.record(rp)
		rp.Draw(3, 1, 0, 0)
	}
	if draw != nil {
		draw(rp)
	}
	rp.End()

	if err := d.submit(encoder); err != nil {
		return err
	}
	d.initialized = true
	d.clearPending = false
	return nil
}

// submit finishes encoding and blocks until the GPU is idle.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	if _, err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	if err := d.device.WaitIdle(); err != nil {
		return fmt.Errorf("wgpu: wait idle: %w", err)
	}
	return nil
}

// setViewportRect sets the pass viewport from a bottom-left origin
// window rectangle.
func (d *Device) setViewportRect(rp hal.RenderPassEncoder, r image.Rectangle) {
	top := d.height - r.Max.Y
	rp.SetViewport(float32(r.Min.X), float32(top), float32(r.Dx()), float32(r.Dy()), 0, 1)
}

// setScissorRect sets the pass scissor from a bottom-left origin window
// rectangle already clipped to the target.
func (d *Device) setScissorRect(rp hal.RenderPassEncoder, r image.Rectangle) {
	top := d.height - r.Max.Y
	rp.SetScissorRect(uint32(r.Min.X), uint32(top), uint32(r.Dx()), uint32(r.Dy())) //nolint:gosec // clipped to target
}

// Image reads the color texture back. Row 0 of the result is the top of
// the target.
func (d *Device) Image() (*image.RGBA, error) {
	if d.closed {
		return nil, ErrDestroyed
	}
	if d.clearPending {
		if err := d.runPass("clear", nil); err != nil {
			return nil, err
		}
	}

	w, h := uint32(d.width), uint32(d.height) //nolint:gosec // validated size
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "gg3d_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create readback buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "gg3d_readback"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("gg3d_readback"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(d.colorTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: d.colorTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: d.colorTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	if err := d.submit(encoder); err != nil {
		return nil, err
	}

	mapping, err := d.device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, fmt.Errorf("wgpu: map readback buffer: %w", err)
	}
	src := unsafe.Slice((*byte)(mapping.Ptr), stagingSize) //nolint:gosec // mapped range
	img := image.NewRGBA(image.Rect(0, 0, d.width, d.height))
	for row := 0; row < d.height; row++ {
		off := row * int(alignedBytesPerRow)
		copy(img.Pix[row*img.Stride:(row+1)*img.Stride], src[off:off+int(bytesPerRow)])
	}
	if err := d.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("wgpu: unmap readback buffer: %w", err)
	}
	return img, nil
}

// Close releases the target's textures and pipelines, and the device
// itself when New opened it. Close is idempotent.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.program = nil
	d.vertexArray = nil
	d.release()
	gg3d.Logger().Debug("wgpu: target closed", "owned", d.owned)
	return nil
}

// release destroys everything created so far in reverse order.
func (d *Device) release() {
	if d.clear != nil {
		d.clear.destroy()
		d.clear = nil
	}
	if d.depthView != nil {
		d.device.DestroyTextureView(d.depthView)
		d.depthView = nil
	}
	if d.depthTex != nil {
		d.device.DestroyTexture(d.depthTex)
		d.depthTex = nil
	}
	if d.colorView != nil {
		d.device.DestroyTextureView(d.colorView)
		d.colorView = nil
	}
	if d.colorTex != nil {
		d.device.DestroyTexture(d.colorTex)
		d.colorTex = nil
	}
	if d.owned {
		d.device.Destroy()
		if d.instance != nil {
			d.instance.Destroy()
			d.instance = nil
		}
	}
}
