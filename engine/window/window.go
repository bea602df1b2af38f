// Package window opens the presentation window the renderer draws into and forwards its input
// and resize events to the engine.
package window

import (
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window is the presentation surface plus its input events. Callbacks run on the goroutine that
// calls ProcessMessages, which must be the goroutine that created the window.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer size changes. A minimized
	// window reports an empty extent.
	//
	// Parameters:
	//   - callback: function receiving the new size in pixels
	SetResizeCallback(callback func(extent common.Extent))

	// SetKeyCallback sets the callback for key events. Repeats are reported as presses.
	//
	// Parameters:
	//   - callback: function receiving the key code and whether it is down
	SetKeyCallback(callback func(keyCode uint32, pressed bool))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving scroll delta (positive = up/zoom in, negative = down/zoom out)
	SetScrollCallback(callback func(delta float32))

	// SetMouseLookCallback sets the callback for cursor movement while the right mouse button is held.
	//
	// Parameters:
	//   - callback: function receiving the cursor delta in pixels
	SetMouseLookCallback(callback func(dx, dy float32))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true if the window is still active.
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// ProcessMessages runs the window message loop until the window is closed, calling the
	// update callback each iteration.
	ProcessMessages()

	// Extent returns the current framebuffer size in pixels.
	Extent() common.Extent
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	title string

	minSize common.Extent
	maxSize common.Extent
	extent  common.Extent

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onUpdate    func()
	onResize    func(extent common.Extent)
	onKey       func(keyCode uint32, pressed bool)
	onScroll    func(delta float32)
	onMouseLook func(dx, dy float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a Window with the specified options. It panics if the platform
// window cannot be created.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
func NewWindow(options ...WindowBuilderOption) Window {
	w := &engineWindow{
		title:   "oxy-framegraph",
		minSize: common.Extent{Width: 320, Height: 200},
		extent:  common.Extent{Width: 1280, Height: 720},
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		panic(fmt.Sprintf("window: failed to create platform window: %v", err))
	}
	return w
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(extent common.Extent)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyCallback(callback func(keyCode uint32, pressed bool)) {
	w.onKey = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetMouseLookCallback(callback func(dx, dy float32)) {
	w.onMouseLook = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !platformProcessMessages(w) {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Extent() common.Extent {
	return w.extent
}
