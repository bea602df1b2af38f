package world_renderer

import (
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/frame_graph"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/scene"
)

// WorldRendererBuilderOption is a functional option used to configure a WorldRenderer during construction.
type WorldRendererBuilderOption func(*worldRenderer)

// WithScene sets the scene the renderer draws.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - WorldRendererBuilderOption: a function that sets the scene
func WithScene(s scene.Scene) WorldRendererBuilderOption {
	return func(w *worldRenderer) {
		w.scene = s
	}
}

// WithEditorCamera sets the free-fly camera used in editor mode and as the fallback when the scene
// has no active camera.
//
// Parameters:
//   - cam: the editor camera
//
// Returns:
//   - WorldRendererBuilderOption: a function that sets the editor camera
func WithEditorCamera(cam camera.Camera) WorldRendererBuilderOption {
	return func(w *worldRenderer) {
		w.editorCamera = cam
	}
}

// WithEditorMode selects the editor camera over the scene's active camera.
//
// Parameters:
//   - enabled: true to render from the editor camera
//
// Returns:
//   - WorldRendererBuilderOption: a function that sets editor mode
func WithEditorMode(enabled bool) WorldRendererBuilderOption {
	return func(w *worldRenderer) {
		w.editorMode = enabled
	}
}

// WithShowGrid sets the initial grid overlay toggle.
func WithShowGrid(show bool) WorldRendererBuilderOption {
	return func(w *worldRenderer) {
		w.showGrid = show
	}
}

// WithFrameGraphOptions passes options through to the frame graph.
//
// Parameters:
//   - opts: frame graph builder options
//
// Returns:
//   - WorldRendererBuilderOption: a function that records the frame graph options
func WithFrameGraphOptions(opts ...frame_graph.FrameGraphBuilderOption) WorldRendererBuilderOption {
	return func(w *worldRenderer) {
		w.graphOpts = append(w.graphOpts, opts...)
	}
}
