package renderer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedBackend is returned when a backend type has no implementation. It is fatal.
	ErrUnsupportedBackend = errors.New("renderer: unsupported graphics backend")

	// ErrSemaphoreNotSignaled is returned when a submission or present waits on a semaphore that no
	// earlier submission signalled.
	ErrSemaphoreNotSignaled = errors.New("renderer: wait on unsignaled semaphore")

	// ErrSurfaceRequired is returned when a presenting backend is built without a surface.
	ErrSurfaceRequired = errors.New("renderer: surface descriptor required")
)

// BackendType identifies the GPU API implementation behind a GraphicsBackend.
type BackendType int

const (
	// BackendTypeWGPU selects the WebGPU backend.
	BackendTypeWGPU BackendType = iota

	// BackendTypeVulkan is recognised in configuration but has no implementation.
	BackendTypeVulkan
)

func (t BackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeVulkan:
		return "vulkan"
	default:
		return fmt.Sprintf("BackendType(%d)", int(t))
	}
}

// ParseBackendType maps a configuration name to a BackendType.
//
// Parameters:
//   - name: the backend name, case-insensitive
//
// Returns:
//   - BackendType: the matching backend type
//   - error: ErrUnsupportedBackend if the name is unknown
func ParseBackendType(name string) (BackendType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wgpu", "webgpu":
		return BackendTypeWGPU, nil
	case "vulkan":
		return BackendTypeVulkan, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedBackend, name)
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// ParsePresentMode maps "vsync" or "uncapped" to a PresentMode. Unknown names fall back to vsync.
func ParsePresentMode(name string) PresentMode {
	if strings.EqualFold(name, "uncapped") {
		return PresentModeUncapped
	}
	return PresentModeVSync
}
