package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/profiler"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/world_renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/scene"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick, render and window goroutines.
type engine struct {
	cfg config.RendererConfig
	log *slog.Logger

	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates
	engineTickRate  time.Duration
	tickCallback    func(deltaTime float32)
	renderCallback  func(deltaTime float32)

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	running bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	errMu sync.Mutex
	err   error

	window       window.Window
	scene        scene.Scene
	editorCamera camera.Camera
	editorMode   bool

	backend  renderer.GraphicsBackend
	shaders  shader.Library
	watcher  *shader.Watcher
	render   *render_context.RenderContext
	world    world_renderer.WorldRenderer
	input    *inputState
	resizeCh chan common.Extent

	profiler         *profiler.Profiler
	profilingEnabled bool
}

// Engine owns the window, the graphics backend, the render context and the world renderer, and
// runs the fixed-rate tick loop and the render loop.
type Engine interface {
	// Window returns the presentation window, or nil when running headless.
	Window() window.Window

	// Scene returns the scene being rendered.
	Scene() scene.Scene

	// WorldRenderer returns the frame driver.
	WorldRenderer() world_renderer.WorldRenderer

	// EditorCamera returns the free-fly camera driven by keyboard and mouse input.
	EditorCamera() camera.Camera

	// RenderContext returns the shared renderer context. Callers register external resources, such
	// as a skybox cubemap, in its resource pool.
	RenderContext() *render_context.RenderContext

	// Config returns the renderer configuration the engine was built with.
	Config() config.RendererConfig

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: target ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick, after the scene has ticked.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the tick and render goroutines and blocks until the window closes or Quit is
	// called. Without a window it blocks until Quit.
	//
	// Returns:
	//   - error: the fatal render error that stopped the engine, or nil
	Run() error

	// Quit signals all engine goroutines to stop. Safe to call multiple times.
	Quit()

	// Release destroys the renderer, the backend and the window. Call it after Run returns.
	Release()
}

var _ Engine = &engine{}

// NewEngine creates an Engine. Without WithBackend it opens a window and creates the backend named
// by the configuration on its surface; an unsupported backend is returned as an error.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: a logger, backend or renderer construction error
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:             config.DefaultConfig(),
		tickRateChannel: make(chan time.Duration, 1),
		engineTickRate:  time.Second / 60,
		input:           newInputState(),
		resizeCh:        make(chan common.Extent, 1),
	}
	for _, opt := range options {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	lvl, err := e.cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	e.log = common.Logger().With(slog.String("component", "engine"))
	e.profiler = profiler.NewProfiler(time.Second)

	if e.backend == nil {
		if err := e.createBackend(); err != nil {
			e.Release()
			return nil, err
		}
	}

	if e.scene == nil {
		e.scene = scene.NewScene("default")
	}
	if e.scene.ViewportSize().Empty() {
		e.scene.SetViewportSize(e.backend.SurfaceExtent())
	}
	if e.editorCamera == nil {
		e.editorCamera = camera.NewCamera()
	}

	if e.shaders == nil {
		e.shaders = shader.NewLibrary(shader.WithDir(e.cfg.ShaderDir))
	}
	if e.cfg.WatchShaders {
		if e.watcher, err = shader.NewWatcher(e.shaders, e.cfg.ShaderDir); err != nil {
			e.log.Warn("shader hot reload disabled", slog.String("dir", e.cfg.ShaderDir), slog.Any("error", err))
		}
	}

	e.render = render_context.NewRenderContext(e.backend, e.shaders, e.cfg)
	e.world, err = world_renderer.NewWorldRenderer(e.render,
		world_renderer.WithScene(e.scene),
		world_renderer.WithEditorCamera(e.editorCamera),
		world_renderer.WithEditorMode(e.editorMode),
	)
	if err != nil {
		e.Release()
		return nil, fmt.Errorf("engine: create world renderer: %w", err)
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.requestResize)
		e.window.SetKeyCallback(e.input.key)
		e.window.SetMouseLookCallback(e.input.look)
		e.window.SetScrollCallback(e.input.zoom)
	}

	e.log.Info("engine ready",
		slog.String("backend", e.backend.Type().String()),
		slog.Int("frames_in_flight", e.backend.FramesInFlight()),
		slog.Bool("editor_preview", e.cfg.EditorPreview))
	return e, nil
}

// createBackend opens the window if none was given and creates the configured backend on its surface.
func (e *engine) createBackend() error {
	backendType, err := renderer.ParseBackendType(e.cfg.Backend)
	if err != nil {
		return err
	}
	if e.window == nil {
		e.window = window.NewWindow()
	}
	extent := e.window.Extent()
	e.backend, err = renderer.NewGraphicsBackend(backendType,
		renderer.WithSurfaceDescriptor(e.window.SurfaceDescriptor()),
		renderer.WithSurfaceExtent(int(extent.Width), int(extent.Height)),
		renderer.WithFramesInFlight(e.cfg.FramesInFlight),
		renderer.WithPresentMode(renderer.ParsePresentMode(e.cfg.PresentMode)),
	)
	if err != nil {
		e.log.Error("graphics backend unavailable", slog.String("backend", e.cfg.Backend), slog.Any("error", err))
		return err
	}
	return nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) WorldRenderer() world_renderer.WorldRenderer {
	return e.world
}

func (e *engine) EditorCamera() camera.Camera {
	return e.editorCamera
}

func (e *engine) RenderContext() *render_context.RenderContext {
	return e.render
}

func (e *engine) Config() config.RendererConfig {
	return e.cfg
}

func (e *engine) Run() error {
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.running = true

	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()

	if e.window != nil {
		// GLFW calls stay on this goroutine, so a stop requested elsewhere closes the window here.
		e.window.SetUpdateCallback(func() {
			if e.ctx.Err() != nil {
				_ = e.window.Close()
			}
		})
		e.window.ProcessMessages()
		e.Quit()
	}
	e.wg.Wait()
	e.running = false

	e.errMu.Lock()
	defer e.errMu.Unlock()
	return e.err
}

func (e *engine) Quit() {
	if e.cancel != nil {
		e.cancel()
	}
}

// fail records the first fatal error and stops the engine.
func (e *engine) fail(err error) {
	e.errMu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.errMu.Unlock()
	e.Quit()
}

// handleEngine runs the fixed-rate tick loop: the scene advances, then the tick callback runs.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			e.scene.Tick(dt)
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender renders frames until the context is cancelled. A render error is fatal and stops
// the engine, as does a panic.
func (e *engine) handleRender() {
	// Every frame is recorded and submitted from one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("engine: render goroutine panicked: %v", r))
		}
	}()

	lastRender := time.Now()
	for e.ctx.Err() == nil {
		frameStart := time.Now()
		dt := float32(frameStart.Sub(lastRender).Seconds())
		lastRender = frameStart

		if err := e.renderFrame(dt); err != nil {
			if !errors.Is(err, context.Canceled) {
				e.log.Error("render failed", slog.Any("error", err))
				e.fail(err)
			}
			return
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(frameStart); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// renderFrame applies pending resizes and input, then renders one frame.
func (e *engine) renderFrame(dt float32) error {
	select {
	case extent := <-e.resizeCh:
		e.world.Resize(extent)
	default:
	}

	e.input.apply(dt, e.editorCamera, e.world)
	if err := e.world.Render(e.ctx); err != nil {
		return err
	}

	if e.renderCallback != nil {
		e.renderCallback(dt)
	}
	if e.profilingEnabled {
		stats := e.world.FrameGraph().Stats()
		e.profiler.Tick(
			slog.Int("passes", len(e.world.Passes())),
			slog.Int("instantiated", stats.Instantiated),
			slog.Uint64("compiled", stats.Compiled),
			slog.Uint64("evicted", stats.Evicted),
			slog.Int("draws", len(e.world.DrawCommands())),
		)
	}
	return nil
}

// requestResize hands the newest framebuffer size to the render goroutine, replacing any size it
// has not picked up yet.
func (e *engine) requestResize(extent common.Extent) {
	for {
		select {
		case e.resizeCh <- extent:
			return
		default:
			select {
			case <-e.resizeCh:
			default:
			}
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in ticks per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running {
		e.engineTickRate = newRate
		return
	}
	// Replace a pending update that the loop has not picked up yet.
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Release() {
	if e.watcher != nil {
		_ = e.watcher.Close()
		e.watcher = nil
	}
	if e.world != nil {
		e.world.Release()
		e.world = nil
	}
	if e.render != nil {
		e.render.Release()
		e.render = nil
	}
	if e.backend != nil {
		e.backend.Release()
		e.backend = nil
	}
	if e.window != nil && e.window.IsRunning() {
		_ = e.window.Close()
	}
}
