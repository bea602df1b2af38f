// Package render_context carries the explicit renderer context and the per-frame snapshot every
// render pass reads. Nothing here is global: the engine builds one RenderContext and the world
// renderer builds one FrameState per frame.
package render_context

import (
	"github.com/Carmen-Shannon/oxy-framegraph/engine/config"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/shader"
)

// RenderContext bundles the long-lived collaborators shared by every pass.
type RenderContext struct {
	Backend renderer.GraphicsBackend
	Pool    resource_pool.ResourcePool
	Shaders shader.Library
	Config  config.RendererConfig
}

// NewRenderContext creates a RenderContext with a fresh resource pool on backend.
//
// Parameters:
//   - backend: the selected graphics backend
//   - shaders: the shader library passes compile from
//   - cfg: the renderer configuration
//
// Returns:
//   - *RenderContext: the context
func NewRenderContext(backend renderer.GraphicsBackend, shaders shader.Library, cfg config.RendererConfig) *RenderContext {
	return &RenderContext{
		Backend: backend,
		Pool:    resource_pool.NewResourcePool(backend),
		Shaders: shaders,
		Config:  cfg,
	}
}

// FramesInFlight returns the backend's in-flight image count.
func (c *RenderContext) FramesInFlight() int {
	return c.Backend.FramesInFlight()
}

// Release releases every pooled resource. Passes must have been destroyed first.
func (c *RenderContext) Release() {
	c.Pool.Release()
}
