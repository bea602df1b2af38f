// Package world_renderer drives one frame at a time: it snapshots the scene's camera and lights,
// culls and sorts the renderables into draw commands, fits the shadow cascades and hands the
// resulting frame state to the frame graph.
package world_renderer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/frame_graph"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_pass"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/scene"
)

// ErrSceneRequired is returned by NewWorldRenderer when no scene was given.
var ErrSceneRequired = errors.New("world_renderer: a scene is required")

// submission is a draw command injected by the caller for the next frame.
type submission struct {
	cmd         render_context.DrawCommand
	castShadows bool
}

// worldRenderer is the implementation of the WorldRenderer interface.
type worldRenderer struct {
	ctx   *render_context.RenderContext
	scene scene.Scene
	graph frame_graph.FrameGraph
	log   *slog.Logger

	editorCamera camera.Camera
	editorMode   bool

	showGrid       bool
	shadowsEnabled bool

	graphOpts []frame_graph.FrameGraphBuilderOption
	cullPool  worker.DynamicWorkerPool

	// acquired and fences are indexed by image index.
	acquired []renderer.Semaphore
	fences   []renderer.Fence

	frame     uint64
	submitted []submission
	draws     []render_context.DrawCommand
	shadows   []render_context.DrawCommand
	passes    []render_pass.PassKind
}

// WorldRenderer produces each frame's draw commands and scene snapshots and runs the frame graph
// over them. It is driven from a single render goroutine.
type WorldRenderer interface {
	// Render renders one frame: snapshot, cull, sort, then Setup, Compile and Execute on the frame
	// graph, then present unless rendering for the editor preview. A frame with an empty viewport
	// is skipped.
	//
	// Parameters:
	//   - ctx: cancels the frame before any GPU work is recorded
	//
	// Returns:
	//   - error: a fatal acquire, compile, execute or present error
	Render(ctx context.Context) error

	// Submit injects a draw command into the next frame. Injected commands skip culling.
	//
	// Parameters:
	//   - dc: the draw command
	//   - castShadows: whether the command is also drawn into the shadow maps
	Submit(dc render_context.DrawCommand, castShadows bool)

	// GetFramebuffer returns the colour texture of the current default framebuffer, or nil before
	// the first frame.
	GetFramebuffer() renderer.Texture

	// EditorMode reports whether frames render from the editor camera.
	EditorMode() bool

	// SetEditorMode switches between the editor camera and the scene's active camera.
	SetEditorMode(enabled bool)

	// ShowGrid reports whether the grid overlay is drawn in debug mode.
	ShowGrid() bool

	// SetShowGrid toggles the grid overlay.
	SetShowGrid(show bool)

	// ShadowsEnabled reports whether the shadow map pass runs when a directional light exists.
	ShadowsEnabled() bool

	// SetShadowsEnabled toggles shadow rendering.
	SetShadowsEnabled(enabled bool)

	// DrawCommands returns the last frame's sorted draw commands.
	DrawCommands() []render_context.DrawCommand

	// ShadowsDrawCommands returns the last frame's sorted shadow casters.
	ShadowsDrawCommands() []render_context.DrawCommand

	// Passes returns the kinds of the passes the last frame executed, in order.
	Passes() []render_pass.PassKind

	// FrameNumber returns the number of frames rendered.
	FrameNumber() uint64

	// FrameGraph returns the underlying frame graph.
	FrameGraph() frame_graph.FrameGraph

	// Resize waits for the device to go idle and resizes the surface and the scene's viewport.
	// The default framebuffers follow on the next frame. An empty extent is ignored.
	//
	// Parameters:
	//   - extent: the new size in pixels
	Resize(extent common.Extent)

	// Release destroys every pass and the per-image synchronization objects. The render context
	// is left to its owner.
	Release()
}

var _ WorldRenderer = &worldRenderer{}

// NewWorldRenderer creates a WorldRenderer drawing a scene through ctx.
//
// Parameters:
//   - ctx: the render context
//   - opts: builder options; WithScene is required
//
// Returns:
//   - WorldRenderer: the renderer
//   - error: ErrSceneRequired, a frame graph error, or a synchronization object error
func NewWorldRenderer(ctx *render_context.RenderContext, opts ...WorldRendererBuilderOption) (WorldRenderer, error) {
	w := &worldRenderer{
		ctx:            ctx,
		log:            common.Logger().With(slog.String("component", "world_renderer")),
		shadowsEnabled: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.scene == nil {
		return nil, ErrSceneRequired
	}
	if w.editorCamera == nil {
		w.editorCamera = camera.NewCamera()
	}

	graph, err := frame_graph.NewFrameGraph(ctx, w.graphOpts...)
	if err != nil {
		return nil, err
	}
	w.graph = graph

	n := ctx.FramesInFlight()
	w.acquired = make([]renderer.Semaphore, n)
	w.fences = make([]renderer.Fence, n)
	for i := range n {
		if w.acquired[i], err = ctx.Backend.CreateSemaphore(fmt.Sprintf("image acquired [%d]", i)); err != nil {
			w.Release()
			return nil, fmt.Errorf("world_renderer: create semaphore: %w", err)
		}
		if w.fences[i], err = ctx.Backend.CreateFence(fmt.Sprintf("frame fence [%d]", i)); err != nil {
			w.Release()
			return nil, fmt.Errorf("world_renderer: create fence: %w", err)
		}
	}

	workers := ctx.Config.CullWorkers
	if workers <= 0 {
		workers = max(runtime.NumCPU()-1, 1)
	}
	w.cullPool = worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	return w, nil
}

func (w *worldRenderer) Render(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	viewport := common.Coalesce(w.scene.ViewportSize(), w.ctx.Backend.SurfaceExtent())
	if viewport.Empty() {
		return nil
	}

	cfg := w.ctx.Config
	img := int(w.frame % uint64(len(w.fences)))
	if err := w.ctx.Backend.WaitForFence(w.fences[img]); err != nil {
		return fmt.Errorf("world_renderer: wait for frame fence: %w", err)
	}

	fs := &render_context.FrameState{
		Ctx:            w.ctx,
		FrameNumber:    w.frame,
		ImageIndex:     img,
		Viewport:       viewport,
		Camera:         w.cameraSnapshot(viewport),
		ShadowsEnabled: w.shadowsEnabled,
		Debug:          cfg.Debug,
		ShowGrid:       w.showGrid,
		EditorPreview:  cfg.EditorPreview,
		Fence:          w.fences[img],
	}

	w.collectDrawCommands(fs)
	if err := w.uploadMeshes(fs.DrawCommands); err != nil {
		return err
	}
	w.collectLights(fs)
	if fs.Lights.Directional != nil {
		fs.Cascades = computeCascades(fs.Camera, fs.Lights.Directional.Direction,
			common.Coalesce(cfg.CascadeCount, config.DefaultCascadeCount),
			cfg.CascadeSplitLambda,
			common.Coalesce(cfg.ShadowMapResolution, config.DefaultShadowMapResolution))
	}

	if !fs.EditorPreview {
		if err := w.ctx.Backend.AcquireNextImage(w.acquired[img]); err != nil {
			return fmt.Errorf("world_renderer: %w", err)
		}
		fs.ImageAcquired = w.acquired[img]
	}

	if err := w.graph.Setup(fs); err != nil {
		return err
	}
	if err := w.graph.Compile(fs); err != nil {
		return err
	}
	w.passes = w.graph.Kinds()
	last, _, err := w.graph.Execute(fs)
	if err != nil {
		w.log.Error("frame failed", slog.Uint64("frame", w.frame), slog.Any("error", err))
		return err
	}

	if !fs.EditorPreview {
		if err := w.ctx.Backend.Present(last); err != nil {
			return fmt.Errorf("world_renderer: present: %w", err)
		}
	}

	w.frame++
	w.submitted = w.submitted[:0]
	return nil
}

// cameraSnapshot normalizes the editor camera or the scene's active camera into a snapshot. Play
// mode falls back to the editor camera when the scene has no active camera.
func (w *worldRenderer) cameraSnapshot(viewport common.Extent) render_context.CameraSnapshot {
	cam := w.editorCamera
	if !w.editorMode {
		if active := w.scene.ActiveCamera(); active != nil {
			cam = active
		}
	}
	cam.SetAspect(viewport.Aspect())
	cam.Update()

	viewProj := cam.ViewProj()
	return render_context.CameraSnapshot{
		View:        cam.View(),
		Proj:        cam.Proj(),
		ViewProj:    viewProj,
		InvViewProj: cam.InvViewProj(),
		Frustum:     common.ExtractFrustum(viewProj),
		Position:    cam.Position(),
		Aspect:      cam.Aspect(),
		Near:        cam.Near(),
		Far:         cam.Far(),
	}
}

// collectDrawCommands culls the scene's renderables, appends the submitted commands and sorts both lists.
func (w *worldRenderer) collectDrawCommands(fs *render_context.FrameState) {
	chunk := common.Coalesce(w.ctx.Config.CullChunkSize, config.DefaultCullChunkSize)
	draws, shadows := cull(w.cullPool, w.scene.Renderables(), fs.Camera.Frustum, chunk)
	for _, s := range w.submitted {
		draws = append(draws, s.cmd)
		if s.castShadows {
			shadows = append(shadows, s.cmd)
		}
	}
	sortDrawCommands(draws)
	sortDrawCommands(shadows)

	w.draws, w.shadows = draws, shadows
	fs.DrawCommands, fs.ShadowCommands = draws, shadows
}

// uploadMeshes uploads every mesh referenced this frame that is not on the GPU yet.
func (w *worldRenderer) uploadMeshes(cmds []render_context.DrawCommand) error {
	for _, dc := range cmds {
		if dc.Mesh.Uploaded() {
			continue
		}
		if err := dc.Mesh.Upload(w.ctx.Backend); err != nil {
			return fmt.Errorf("world_renderer: upload mesh %s: %w", dc.Mesh.Name(), err)
		}
		w.log.Debug("mesh uploaded", slog.String("mesh", dc.Mesh.Name()))
	}
	return nil
}

// collectLights snapshots the first enabled directional light, up to the configured number of
// enabled point lights, and the bound skybox.
func (w *worldRenderer) collectLights(fs *render_context.FrameState) {
	maxPoint := common.Coalesce(w.ctx.Config.MaxPointLights, config.DefaultMaxPointLights)
	for _, inst := range w.scene.Lights() {
		l := inst.Light
		if !l.Enabled() {
			continue
		}
		switch l.Type() {
		case light.LightTypeDirectional:
			if fs.Lights.Directional == nil {
				fs.Lights.Directional = &light.DirectionalLight{
					Direction:    l.Direction(),
					Color:        l.Color(),
					Intensity:    l.Intensity(),
					CastsShadows: l.CastsShadows(),
				}
			}
		case light.LightTypePoint:
			if len(fs.Lights.PointLights) < maxPoint {
				fs.Lights.PointLights = append(fs.Lights.PointLights, light.PointLight{
					Position:  inst.Position,
					Range:     l.Range(),
					Color:     l.Color(),
					Intensity: l.Intensity(),
				})
			}
		}
	}
	if h, ok := w.scene.Skybox(); ok {
		fs.Lights.SetSkybox(h)
	}
}

func (w *worldRenderer) Submit(dc render_context.DrawCommand, castShadows bool) {
	w.submitted = append(w.submitted, submission{cmd: dc, castShadows: castShadows})
}

func (w *worldRenderer) GetFramebuffer() renderer.Texture {
	fb := w.ctx.Pool.CurrentDefaultFramebuffer()
	if fb == nil {
		return nil
	}
	return fb.Color(0)
}

func (w *worldRenderer) EditorMode() bool {
	return w.editorMode
}

func (w *worldRenderer) SetEditorMode(enabled bool) {
	w.editorMode = enabled
}

func (w *worldRenderer) ShowGrid() bool {
	return w.showGrid
}

func (w *worldRenderer) SetShowGrid(show bool) {
	w.showGrid = show
}

func (w *worldRenderer) ShadowsEnabled() bool {
	return w.shadowsEnabled
}

func (w *worldRenderer) SetShadowsEnabled(enabled bool) {
	w.shadowsEnabled = enabled
}

func (w *worldRenderer) DrawCommands() []render_context.DrawCommand {
	return w.draws
}

func (w *worldRenderer) ShadowsDrawCommands() []render_context.DrawCommand {
	return w.shadows
}

func (w *worldRenderer) Passes() []render_pass.PassKind {
	return w.passes
}

func (w *worldRenderer) FrameNumber() uint64 {
	return w.frame
}

func (w *worldRenderer) FrameGraph() frame_graph.FrameGraph {
	return w.graph
}

func (w *worldRenderer) Resize(extent common.Extent) {
	if extent.Empty() || extent == w.scene.ViewportSize() {
		return
	}
	w.ctx.Backend.WaitIdle()
	if !w.ctx.Config.EditorPreview {
		w.ctx.Backend.Resize(extent)
	}
	w.scene.SetViewportSize(extent)
	w.log.Info("viewport resized", slog.Int("width", int(extent.Width)), slog.Int("height", int(extent.Height)))
}

func (w *worldRenderer) Release() {
	if w.graph != nil {
		w.graph.Release()
	}
	if w.cullPool != nil {
		w.cullPool.Stop()
	}
	for _, s := range w.acquired {
		if s != nil {
			s.Release()
		}
	}
	for _, f := range w.fences {
		if f != nil {
			f.Release()
		}
	}
	w.acquired, w.fences = nil, nil
}
