package render_context

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/resource_pool"
)

// GPUCameraSize is the byte size of the WGSL Camera uniform.
const GPUCameraSize = 4*64 + 16 + 16

// CameraSnapshot is the camera state for one frame. The editor camera and play cameras both
// normalize to it.
type CameraSnapshot struct {
	View        common.Mat4
	Proj        common.Mat4
	ViewProj    common.Mat4
	InvViewProj common.Mat4
	Frustum     common.Frustum
	Position    common.Vec3
	Aspect      float32
	Near        float32
	Far         float32
}

// Marshal serializes the snapshot into the WGSL Camera layout:
//
//	offset   0: view, proj, view_proj, inv_view_proj (mat4x4 each)
//	offset 256: position.xyz, 1
//	offset 272: viewport width, height, near, far
//
// Parameters:
//   - viewport: the render area size
//
// Returns:
//   - []byte: GPUCameraSize bytes
func (c CameraSnapshot) Marshal(viewport common.Extent) []byte {
	buf := make([]byte, 0, GPUCameraSize)
	buf = common.AppendMat4(buf, c.View)
	buf = common.AppendMat4(buf, c.Proj)
	buf = common.AppendMat4(buf, c.ViewProj)
	buf = common.AppendMat4(buf, c.InvViewProj)
	buf = common.AppendFloats(buf, c.Position[0], c.Position[1], c.Position[2], 1)
	return common.AppendFloats(buf, float32(viewport.Width), float32(viewport.Height), c.Near, c.Far)
}

// LightEnvironment is the frame's light snapshot.
type LightEnvironment struct {
	// Directional is the first enabled directional light, or nil.
	Directional *light.DirectionalLight
	PointLights []light.PointLight

	skybox    resource_pool.Handle
	hasSkybox bool
}

// SetSkybox records the bound skybox cubemap.
func (e *LightEnvironment) SetSkybox(h resource_pool.Handle) {
	e.skybox = h
	e.hasSkybox = true
}

// Skybox returns the bound skybox cubemap handle, and false when none is bound.
func (e LightEnvironment) Skybox() (resource_pool.Handle, bool) {
	return e.skybox, e.hasSkybox
}

// ShadowCascades holds the cascade matrices and split distances for one frame. Only the first
// Count entries are meaningful.
type ShadowCascades struct {
	Count    int
	Matrices [light.MaxCascades]common.Mat4
	// Splits holds the far view distance of each cascade.
	Splits [light.MaxCascades]float32
	// Near is the view distance cascade 0 starts at.
	Near float32
	// TexelSize is the world-space size of one shadow map texel in cascade 0.
	TexelSize float32
}

// Marshal serializes the cascades into the WGSL ShadowData layout.
//
// Parameters:
//   - enabled: whether the forward pass should sample the shadow maps
//
// Returns:
//   - []byte: light.GPUShadowDataSize bytes
func (c ShadowCascades) Marshal(enabled bool) []byte {
	return light.MarshalShadowData(c.Matrices, c.Splits, c.Count, c.TexelSize, enabled)
}
