package renderer

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// backendConfig collects construction options before a backend is created.
type backendConfig struct {
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	extent               common.Extent
	framesInFlight       int
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// BackendBuilderOption is a functional option used to configure a GraphicsBackend during construction.
type BackendBuilderOption func(*backendConfig)

// WithSurfaceDescriptor sets the native surface the backend presents to.
//
// Parameters:
//   - desc: the surface descriptor from the window
//
// Returns:
//   - BackendBuilderOption: a function that sets the surface descriptor
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) BackendBuilderOption {
	return func(c *backendConfig) {
		c.surfaceDescriptor = desc
	}
}

// WithSurfaceExtent sets the initial surface size.
//
// Parameters:
//   - width, height: the size in pixels
//
// Returns:
//   - BackendBuilderOption: a function that sets the initial surface size
func WithSurfaceExtent(width, height int) BackendBuilderOption {
	return func(c *backendConfig) {
		c.extent = common.Extent{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
	}
}

// WithFramesInFlight sets the number of in-flight swapchain images.
//
// Parameters:
//   - n: the image count, at least 1
//
// Returns:
//   - BackendBuilderOption: a function that sets the in-flight image count
func WithFramesInFlight(n int) BackendBuilderOption {
	return func(c *backendConfig) {
		c.framesInFlight = max(n, 1)
	}
}

// WithPresentMode sets the initial present mode for the backend.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - BackendBuilderOption: a function that sets the present mode
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(c *backendConfig) {
		c.presentMode = mode
	}
}

// WithForceFallbackAdapter forces the use of a fallback (software) adapter.
//
// Parameters:
//   - force: true to force the fallback adapter
//
// Returns:
//   - BackendBuilderOption: a function that sets the fallback preference
func WithForceFallbackAdapter(force bool) BackendBuilderOption {
	return func(c *backendConfig) {
		c.forceFallbackAdapter = force
	}
}
