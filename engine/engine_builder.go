package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/scene"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfig sets the renderer configuration. It defaults to config.DefaultConfig.
//
// Parameters:
//   - cfg: the configuration, validated by NewEngine
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.RendererConfig) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithProfiling enables or disables performance profiling output.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithTickRate sets the engine tick rate in ticks per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets a pre-configured window rather than letting the engine open a default one.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithBackend sets an already created graphics backend. No window is opened unless WithWindow is
// also given, which allows headless rendering.
//
// Parameters:
//   - b: the backend the engine renders with and releases
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b renderer.GraphicsBackend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithShaderLibrary sets the shader library passes compile from. It defaults to a library over
// the configured shader directory and the built-in shaders.
func WithShaderLibrary(lib shader.Library) EngineBuilderOption {
	return func(e *engine) {
		e.shaders = lib
	}
}

// WithScene sets the scene to render. It defaults to an empty scene.
//
// Parameters:
//   - s: the Scene to render
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithEditorCamera sets the free-fly camera that input drives.
func WithEditorCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.editorCamera = cam
	}
}

// WithEditorMode renders from the editor camera instead of the scene's active camera.
//
// Parameters:
//   - enabled: true for editor mode
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithEditorMode(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.editorMode = enabled
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}
