package light

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// MaxCascades is the number of cascade slots in the GPU shadow layout.
const MaxCascades = 4

const (
	// GPULightDataSize is the byte size of the LightData uniform.
	GPULightDataSize = 64

	// GPUPointLightSize is the byte size of one PointLight storage element.
	GPUPointLightSize = 32

	// GPUShadowDataSize is the byte size of the ShadowData uniform.
	GPUShadowDataSize = MaxCascades*64 + 32
)

// DefaultAmbient is the ambient term written into LightData.
var DefaultAmbient = common.Vec3{0.03, 0.03, 0.035}

// DirectionalLight is the frame snapshot of the scene's directional light.
type DirectionalLight struct {
	Direction    common.Vec3
	Color        common.Vec3
	Intensity    float32
	CastsShadows bool
}

// PointLight is the frame snapshot of one point light with its world-space position resolved.
type PointLight struct {
	Position  common.Vec3
	Range     float32
	Color     common.Vec3
	Intensity float32
}

// Append appends the WGSL PointLight layout:
//
//	offset  0: position.xyz, range
//	offset 16: color.rgb, intensity
func (p PointLight) Append(buf []byte) []byte {
	buf = common.AppendFloats(buf, p.Position[0], p.Position[1], p.Position[2], p.Range)
	return common.AppendFloats(buf, p.Color[0], p.Color[1], p.Color[2], p.Intensity)
}

// MarshalPointLights serializes lights into a storage buffer payload. An empty list still
// produces one zeroed element so the buffer is never zero-sized.
//
// Parameters:
//   - lights: the point lights
//
// Returns:
//   - []byte: the payload, len(lights) * GPUPointLightSize bytes or GPUPointLightSize when empty
func MarshalPointLights(lights []PointLight) []byte {
	if len(lights) == 0 {
		return make([]byte, GPUPointLightSize)
	}
	buf := make([]byte, 0, len(lights)*GPUPointLightSize)
	for _, l := range lights {
		buf = l.Append(buf)
	}
	return buf
}

// MarshalLightData serializes the LightData uniform.
//
// Layout:
//
//	offset  0: direction.xyz, has directional (1 or 0)
//	offset 16: color.rgb, intensity
//	offset 32: ambient.rgb, unused
//	offset 48: point count, tiles x, tiles y, tile size (u32)
//
// Parameters:
//   - dir: the directional light, or nil
//   - pointCount: the number of point lights in the storage buffer
//   - tilesX, tilesY: the light grid dimensions
//
// Returns:
//   - []byte: GPULightDataSize bytes
func MarshalLightData(dir *DirectionalLight, pointCount int, tilesX, tilesY uint32) []byte {
	buf := make([]byte, 0, GPULightDataSize)
	if dir != nil {
		buf = common.AppendFloats(buf, dir.Direction[0], dir.Direction[1], dir.Direction[2], 1)
		buf = common.AppendFloats(buf, dir.Color[0], dir.Color[1], dir.Color[2], dir.Intensity)
	} else {
		buf = common.AppendFloats(buf, 0, -1, 0, 0, 0, 0, 0, 0)
	}
	buf = common.AppendFloats(buf, DefaultAmbient[0], DefaultAmbient[1], DefaultAmbient[2], 1)
	return common.AppendUints(buf, uint32(pointCount), tilesX, tilesY, TileSize)
}

// MarshalShadowData serializes the ShadowData uniform.
//
// Layout:
//
//	offset   0: MaxCascades light view-projection matrices
//	offset 256: cascade far distances (view space)
//	offset 272: cascade count, depth bias, texel size, enabled (1 or 0)
//
// Parameters:
//   - matrices: light view-projection per cascade
//   - splits: far distance per cascade
//   - count: the number of valid cascades
//   - texelSize: the world size of one shadow texel in cascade 0
//   - enabled: whether the forward pass samples the shadow maps
//
// Returns:
//   - []byte: GPUShadowDataSize bytes
func MarshalShadowData(matrices [MaxCascades]common.Mat4, splits [MaxCascades]float32, count int, texelSize float32, enabled bool) []byte {
	buf := make([]byte, 0, GPUShadowDataSize)
	for _, m := range matrices {
		buf = common.AppendMat4(buf, m)
	}
	buf = common.AppendFloats(buf, splits[:]...)
	on := float32(0)
	if enabled {
		on = 1
	}
	return common.AppendFloats(buf, float32(count), DefaultShadowBias, texelSize, on)
}
