package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
)

// GraphicsBackend is the capability interface every GPU API implementation provides.
// A single backend is selected at startup and handed to every pass and resource factory
// through the render context.
//
// All methods must be called from the frame-driving goroutine.
type GraphicsBackend interface {
	// Type returns the API this backend implements.
	//
	// Returns:
	//   - BackendType: the backend type
	Type() BackendType

	// FramesInFlight returns the number of swapchain images that may be in flight at once.
	// Per-image resources are replicated this many times.
	//
	// Returns:
	//   - int: the in-flight image count
	FramesInFlight() int

	// SurfaceExtent returns the current size of the presentation surface.
	//
	// Returns:
	//   - common.Extent: the surface size in pixels
	SurfaceExtent() common.Extent

	// Resize reconfigures the presentation surface. The caller must have waited for the device to go idle.
	//
	// Parameters:
	//   - extent: the new surface size
	Resize(extent common.Extent)

	// CreateTexture creates a texture and its default view.
	//
	// Parameters:
	//   - desc: the texture description
	//
	// Returns:
	//   - Texture: the created texture
	//   - error: an error if creation fails
	CreateTexture(desc TextureDesc) (Texture, error)

	// CreateFramebuffer creates a framebuffer and all of its attachments.
	//
	// Parameters:
	//   - desc: the framebuffer description
	//
	// Returns:
	//   - Framebuffer: the created framebuffer
	//   - error: an error if any attachment could not be created
	CreateFramebuffer(desc FramebufferDesc) (Framebuffer, error)

	// CreateBuffer creates a GPU buffer.
	//
	// Parameters:
	//   - desc: the buffer description
	//
	// Returns:
	//   - Buffer: the created buffer
	//   - error: an error if creation fails
	CreateBuffer(desc BufferDesc) (Buffer, error)

	// CreateSampler creates a sampler.
	CreateSampler(desc SamplerDesc) (Sampler, error)

	// CreatePipeline compiles a render or compute pipeline.
	//
	// Parameters:
	//   - desc: the pipeline description
	//
	// Returns:
	//   - Pipeline: the compiled pipeline
	//   - error: a shader module or pipeline creation error
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	// CreateBindGroup binds resources to one group of a pipeline's layout.
	CreateBindGroup(desc BindGroupDesc) (BindGroup, error)

	// CreateSemaphore creates an unsignalled binary semaphore.
	CreateSemaphore(label string) (Semaphore, error)

	// CreateFence creates a fence in the completed state.
	CreateFence(label string) (Fence, error)

	// WriteBuffer uploads data into buf at offset through the queue.
	//
	// Parameters:
	//   - buf: the destination buffer
	//   - offset: the byte offset into buf
	//   - data: the bytes to upload
	//
	// Returns:
	//   - error: an error if the write exceeds the buffer
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// WriteTexture uploads tightly packed RGBA8 pixels into one layer of tex.
	WriteTexture(tex Texture, layer uint32, data []byte) error

	// CreateCommandEncoder starts a new command recording.
	CreateCommandEncoder(label string) (CommandEncoder, error)

	// Submit queues command buffers after waiting on info.Wait, then signals info.Signal and info.Fence.
	// It never blocks the CPU on GPU progress.
	//
	// Parameters:
	//   - info: the submission
	//
	// Returns:
	//   - error: ErrSemaphoreNotSignaled if a wait semaphore has no pending signal
	Submit(info SubmitInfo) error

	// WaitForFence blocks until the submission that armed f has completed.
	WaitForFence(f Fence) error

	// AcquireNextImage acquires the next swapchain image and signals signal once it is ready.
	//
	// Parameters:
	//   - signal: the semaphore signalled when the image is available
	//
	// Returns:
	//   - error: an error if the surface image could not be acquired
	AcquireNextImage(signal Semaphore) error

	// Present presents the acquired image once wait has been signalled.
	Present(wait Semaphore) error

	// WaitIdle blocks until all submitted work has completed. Only used before destroying
	// or resizing resources.
	WaitIdle()

	// Release destroys the device.
	Release()
}

// NewGraphicsBackend creates the backend for backendType. Backend types without an
// implementation return ErrUnsupportedBackend, which callers treat as fatal.
//
// Parameters:
//   - backendType: the backend to create
//   - opts: builder options
//
// Returns:
//   - GraphicsBackend: the created backend
//   - error: ErrUnsupportedBackend or a missing-option error
func NewGraphicsBackend(backendType BackendType, opts ...BackendBuilderOption) (GraphicsBackend, error) {
	cfg := &backendConfig{
		framesInFlight: 2,
		presentMode:    PresentModeVSync,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	switch backendType {
	case BackendTypeWGPU:
		if cfg.surfaceDescriptor == nil {
			return nil, ErrSurfaceRequired
		}
		return newWGPUBackend(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backendType)
	}
}
