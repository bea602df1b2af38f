package renderer

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBackend implements GraphicsBackend on WebGPU.
//
// WebGPU has a single in-order queue, so GPU-side ordering between submissions already holds.
// Semaphores are therefore tracked on the CPU as binary signal flags stamped with the submission
// serial that signalled them: a wait is valid only after a signal, and consumes it. A fence waits
// only for the submission serial it was armed with. This keeps the wait/signal contract identical to explicit APIs so
// that chain wiring mistakes surface as errors here too.
type wgpuBackend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceFormat  wgpu.TextureFormat
	presentMode    wgpu.PresentMode
	extent         common.Extent
	framesInFlight int

	// frameSurface and frameView hold the acquired swapchain image until Present.
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

var _ GraphicsBackend = &wgpuBackend{}

func newWGPUBackend(cfg *backendConfig) *wgpuBackend {
	// wgpu-native requires the device to be driven from a single OS thread.
	runtime.LockOSThread()

	b := &wgpuBackend{
		instance:       wgpu.CreateInstance(nil),
		framesInFlight: cfg.framesInFlight,
	}
	b.setPresentMode(cfg.presentMode)
	b.surface = b.instance.CreateSurface(cfg.surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to request adapter: %v", err))
	}
	b.adapter = a

	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 4

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Frame Graph Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("renderer: failed to request device: %v", err))
	}
	b.device = d
	b.queue = d.GetQueue()

	if !cfg.extent.Empty() {
		b.configureSurface(cfg.extent)
	}
	common.Logger().Info("graphics backend ready", "component", "renderer", "backend", BackendTypeWGPU.String(), "frames_in_flight", b.framesInFlight)
	return b
}

func (b *wgpuBackend) setPresentMode(mode PresentMode) {
	switch mode {
	case PresentModeUncapped:
		b.presentMode = wgpu.PresentModeImmediate
	default:
		b.presentMode = wgpu.PresentModeFifo
	}
}

func (b *wgpuBackend) configureSurface(extent common.Extent) {
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]
	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       extent.Width,
		Height:      extent.Height,
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	b.extent = extent
}

func (b *wgpuBackend) Type() BackendType {
	return BackendTypeWGPU
}

func (b *wgpuBackend) FramesInFlight() int {
	return b.framesInFlight
}

func (b *wgpuBackend) SurfaceExtent() common.Extent {
	return b.extent
}

func (b *wgpuBackend) Resize(extent common.Extent) {
	if extent.Empty() || extent == b.extent {
		return
	}
	b.configureSurface(extent)
}

func (b *wgpuBackend) format(f TextureFormat) wgpu.TextureFormat {
	switch f {
	case TextureFormatRGBA8Unorm:
		return wgpu.TextureFormatRGBA8Unorm
	case TextureFormatBGRA8Unorm:
		return wgpu.TextureFormatBGRA8Unorm
	case TextureFormatRGBA16Float:
		return wgpu.TextureFormatRGBA16Float
	case TextureFormatDepth32Float:
		return wgpu.TextureFormatDepth32Float
	case TextureFormatSurface:
		return b.surfaceFormat
	default:
		return wgpu.TextureFormatUndefined
	}
}

func textureUsage(u TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	if u&TextureUsageRenderAttachment != 0 {
		out |= wgpu.TextureUsageRenderAttachment
	}
	if u&TextureUsageSampled != 0 {
		out |= wgpu.TextureUsageTextureBinding
	}
	if u&TextureUsageStorage != 0 {
		out |= wgpu.TextureUsageStorageBinding
	}
	if u&TextureUsageCopyDst != 0 {
		out |= wgpu.TextureUsageCopyDst
	}
	if u&TextureUsageCopySrc != 0 {
		out |= wgpu.TextureUsageCopySrc
	}
	return out
}

func bufferUsage(u BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u&BufferUsageVertex != 0 {
		out |= wgpu.BufferUsageVertex
	}
	if u&BufferUsageIndex != 0 {
		out |= wgpu.BufferUsageIndex
	}
	if u&BufferUsageUniform != 0 {
		out |= wgpu.BufferUsageUniform
	}
	if u&BufferUsageStorage != 0 {
		out |= wgpu.BufferUsageStorage
	}
	if u&BufferUsageCopyDst != 0 {
		out |= wgpu.BufferUsageCopyDst
	}
	if u&BufferUsageIndirect != 0 {
		out |= wgpu.BufferUsageIndirect
	}
	return out
}

func (b *wgpuBackend) CreateTexture(desc TextureDesc) (Texture, error) {
	layers := uint32(1)
	if desc.Cube {
		layers = 6
	}
	format := b.format(desc.Format)

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         textureUsage(desc.Usage),
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create texture %q: %w", desc.Label, err)
	}

	var viewDesc *wgpu.TextureViewDescriptor
	if desc.Cube {
		viewDesc = &wgpu.TextureViewDescriptor{
			Label:           desc.Label + " Cube View",
			Format:          format,
			Dimension:       wgpu.TextureViewDimensionCube,
			BaseMipLevel:    0,
			MipLevelCount:   1,
			BaseArrayLayer:  0,
			ArrayLayerCount: 6,
			Aspect:          wgpu.TextureAspectAll,
		}
	}
	view, err := tex.CreateView(viewDesc)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("renderer: create view %q: %w", desc.Label, err)
	}

	return &wgpuTexture{
		label:  desc.Label,
		tex:    tex,
		view:   view,
		extent: common.Extent{Width: desc.Width, Height: desc.Height},
		format: desc.Format,
		cube:   desc.Cube,
	}, nil
}

func (b *wgpuBackend) CreateFramebuffer(desc FramebufferDesc) (Framebuffer, error) {
	fb := &wgpuFramebuffer{
		label:  desc.Label,
		extent: common.Extent{Width: desc.Width, Height: desc.Height},
	}
	for i, f := range desc.ColorFormats {
		tex, err := b.CreateTexture(TextureDesc{
			Label:  fmt.Sprintf("%s Color %d", desc.Label, i),
			Width:  desc.Width,
			Height: desc.Height,
			Format: f,
			Usage:  TextureUsageRenderAttachment | TextureUsageSampled | TextureUsageCopySrc,
		})
		if err != nil {
			fb.Release()
			return nil, err
		}
		fb.colors = append(fb.colors, tex.(*wgpuTexture))
	}
	if desc.DepthFormat != TextureFormatUndefined {
		tex, err := b.CreateTexture(TextureDesc{
			Label:  desc.Label + " Depth",
			Width:  desc.Width,
			Height: desc.Height,
			Format: desc.DepthFormat,
			Usage:  TextureUsageRenderAttachment | TextureUsageSampled,
		})
		if err != nil {
			fb.Release()
			return nil, err
		}
		fb.depth = tex.(*wgpuTexture)
	}
	return fb, nil
}

func (b *wgpuBackend) CreateBuffer(desc BufferDesc) (Buffer, error) {
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            bufferUsage(desc.Usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create buffer %q: %w", desc.Label, err)
	}
	return &wgpuBuffer{label: desc.Label, buf: buf, size: desc.Size}, nil
}

func (b *wgpuBackend) CreateSampler(desc SamplerDesc) (Sampler, error) {
	filter := wgpu.FilterModeLinear
	if desc.Nearest {
		filter = wgpu.FilterModeNearest
	}
	var compare wgpu.CompareFunction
	if desc.Compare {
		compare = wgpu.CompareFunctionLessEqual
	}
	s, err := b.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       compare,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer: create sampler %q: %w", desc.Label, err)
	}
	return &wgpuSampler{s: s}, nil
}

func (b *wgpuBackend) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return errors.New("renderer: buffer was not created by this backend")
	}
	if offset+uint64(len(data)) > wb.size {
		return fmt.Errorf("renderer: write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, wb.label, wb.size)
	}
	b.queue.WriteBuffer(wb.buf, offset, data)
	return nil
}

func (b *wgpuBackend) WriteTexture(tex Texture, layer uint32, data []byte) error {
	wt, ok := tex.(*wgpuTexture)
	if !ok {
		return errors.New("renderer: texture was not created by this backend")
	}
	want := int(wt.extent.Width * wt.extent.Height * 4)
	if len(data) != want {
		return fmt.Errorf("renderer: texture %q expects %d bytes per layer, got %d", wt.label, want, len(data))
	}
	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  wt.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{Z: layer},
			Aspect:   wgpu.TextureAspectAll,
		},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  wt.extent.Width * 4,
			RowsPerImage: wt.extent.Height,
		},
		&wgpu.Extent3D{
			Width:              wt.extent.Width,
			Height:             wt.extent.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuBackend) CreateSemaphore(label string) (Semaphore, error) {
	return &wgpuSemaphore{label: label}, nil
}

func (b *wgpuBackend) CreateFence(label string) (Fence, error) {
	return &wgpuFence{label: label}, nil
}

func (b *wgpuBackend) CreateCommandEncoder(label string) (CommandEncoder, error) {
	enc, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("renderer: create command encoder %q: %w", label, err)
	}
	return &wgpuCommandEncoder{backend: b, enc: enc, label: label}, nil
}

func consumeSignals(wait []Semaphore) error {
	for _, s := range wait {
		ws, ok := s.(*wgpuSemaphore)
		if !ok || !ws.signaled {
			return fmt.Errorf("%w: %s", ErrSemaphoreNotSignaled, s.Label())
		}
	}
	for _, s := range wait {
		s.(*wgpuSemaphore).signaled = false
	}
	return nil
}

func (b *wgpuBackend) Submit(info SubmitInfo) error {
	if err := consumeSignals(info.Wait); err != nil {
		return err
	}

	buffers := make([]*wgpu.CommandBuffer, 0, len(info.CommandBuffers))
	for _, cb := range info.CommandBuffers {
		wcb, ok := cb.(*wgpuCommandBuffer)
		if !ok {
			return errors.New("renderer: command buffer was not created by this backend")
		}
		buffers = append(buffers, wcb.cb)
	}
	serial := b.queue.Submit(buffers...)
	for _, cb := range buffers {
		cb.Release()
	}
	markSubmitted(info, serial)
	return nil
}

// markSubmitted signals the semaphores of info and arms its fence with the submission serial.
func markSubmitted(info SubmitInfo, serial wgpu.SubmissionIndex) {
	for _, s := range info.Signal {
		ws := s.(*wgpuSemaphore)
		ws.signaled = true
		ws.serial = serial
	}
	if info.Fence != nil {
		wf := info.Fence.(*wgpuFence)
		wf.pending = true
		wf.serial = serial
	}
}

// fenceWait returns the submission a pending fence waits on, or nil when nothing is pending.
func fenceWait(q *wgpu.Queue, f *wgpuFence) *wgpu.WrappedSubmissionIndex {
	if !f.pending {
		return nil
	}
	return &wgpu.WrappedSubmissionIndex{Queue: q, SubmissionIndex: f.serial}
}

func (b *wgpuBackend) WaitForFence(f Fence) error {
	wf, ok := f.(*wgpuFence)
	if !ok {
		return errors.New("renderer: fence was not created by this backend")
	}
	if idx := fenceWait(b.queue, wf); idx != nil {
		b.device.Poll(true, idx)
		wf.pending = false
	}
	return nil
}

func (b *wgpuBackend) AcquireNextImage(signal Semaphore) error {
	if b.frameSurface != nil {
		return errors.New("renderer: previous surface image not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return fmt.Errorf("renderer: acquire surface image: %w", err)
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return fmt.Errorf("renderer: create surface view: %w", err)
	}
	b.frameSurface = surfaceTexture
	b.frameView = view

	if signal != nil {
		signal.(*wgpuSemaphore).signaled = true
	}
	return nil
}

func (b *wgpuBackend) Present(wait Semaphore) error {
	if b.frameSurface == nil {
		return nil
	}
	if wait != nil {
		if err := consumeSignals([]Semaphore{wait}); err != nil {
			return err
		}
	}

	b.surface.Present()
	b.frameView.Release()
	b.frameSurface.Release()
	b.frameView = nil
	b.frameSurface = nil
	return nil
}

func (b *wgpuBackend) WaitIdle() {
	b.device.Poll(true, nil)
}

func (b *wgpuBackend) Release() {
	b.WaitIdle()
	if b.frameView != nil {
		b.frameView.Release()
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
	}
	b.queue.Release()
	b.device.Release()
	b.adapter.Release()
	b.surface.Release()
	b.instance.Release()
}
