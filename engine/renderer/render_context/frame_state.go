package render_context

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
)

// FrameState is everything the frame graph and its passes read during one frame. The world
// renderer fills it once per frame; passes never modify it.
type FrameState struct {
	Ctx *RenderContext

	// FrameNumber counts frames from 0.
	FrameNumber uint64
	// ImageIndex is FrameNumber modulo the in-flight image count.
	ImageIndex int
	Viewport   common.Extent

	Camera   CameraSnapshot
	Lights   LightEnvironment
	Cascades ShadowCascades

	// DrawCommands is the culled, sorted list of visible renderables.
	DrawCommands []DrawCommand
	// ShadowCommands holds the shadow casters among DrawCommands, sorted the same way.
	ShadowCommands []DrawCommand

	ShadowsEnabled bool
	Debug          bool
	ShowGrid       bool
	EditorPreview  bool

	// ImageAcquired is signalled when the swapchain image is ready. It is nil in editor preview,
	// where nothing is presented.
	ImageAcquired renderer.Semaphore
	// Fence is armed by the frame's last submission and waited on before ImageIndex is reused.
	Fence renderer.Fence
}

// ShadowPassActive reports whether the shadow map pass runs this frame: shadows are enabled and a
// directional light exists.
func (fs *FrameState) ShadowPassActive() bool {
	return fs.ShadowsEnabled && fs.Lights.Directional != nil
}

// Backend is shorthand for fs.Ctx.Backend.
func (fs *FrameState) Backend() renderer.GraphicsBackend {
	return fs.Ctx.Backend
}
