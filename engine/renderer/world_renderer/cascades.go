package world_renderer

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/chewxy/math32"
)

// cascadeSplits returns the far view distance of each of count cascades between near and far,
// blending logarithmic (lambda 1) and uniform (lambda 0) spacing.
//
// Parameters:
//   - near, far: the camera clip distances
//   - count: the cascade count, 1..light.MaxCascades
//   - lambda: the blend factor in [0, 1]
//
// Returns:
//   - [light.MaxCascades]float32: the split distances; only the first count are set
func cascadeSplits(near, far float32, count int, lambda float32) [light.MaxCascades]float32 {
	var splits [light.MaxCascades]float32
	for i := 1; i <= count; i++ {
		p := float32(i) / float32(count)
		logSplit := near * math32.Pow(far/near, p)
		uniSplit := near + (far-near)*p
		splits[i-1] = lambda*logSplit + (1-lambda)*uniSplit
	}
	splits[count-1] = far
	return splits
}

// viewDepthToNDC maps a positive view distance to the [0, 1] depth the perspective projection produces.
func viewDepthToNDC(d, near, far float32) float32 {
	return far * (d - near) / (d * (far - near))
}

// computeCascades fits one orthographic light projection around each cascade slice of the camera
// frustum. Each projection is snapped to whole shadow map texels so the cascades do not shimmer
// as the camera moves.
//
// Parameters:
//   - cam: the camera snapshot
//   - dir: the directional light's direction
//   - count: the cascade count, clamped to 1..light.MaxCascades
//   - lambda: the split blend factor
//   - resolution: the shadow map edge length in texels
//
// Returns:
//   - render_context.ShadowCascades: the cascade matrices and splits
func computeCascades(cam render_context.CameraSnapshot, dir common.Vec3, count int, lambda float32, resolution uint32) render_context.ShadowCascades {
	count = common.Clamp(count, 1, light.MaxCascades)
	res := float32(max(resolution, 1))

	out := render_context.ShadowCascades{
		Count:  count,
		Splits: cascadeSplits(cam.Near, cam.Far, count, common.Clamp(lambda, 0, 1)),
		Near:   cam.Near,
	}

	dir = dir.Normalize()
	if dir.Length() == 0 {
		dir = common.Vec3{0, -1, 0}
	}
	up := common.Vec3{0, 1, 0}
	if math32.Abs(dir[1]) > 0.99 {
		up = common.Vec3{0, 0, 1}
	}

	start := cam.Near
	for i := 0; i < count; i++ {
		end := out.Splits[i]
		corners := common.FrustumCorners(cam.InvViewProj,
			viewDepthToNDC(start, cam.Near, cam.Far),
			viewDepthToNDC(end, cam.Near, cam.Far))
		sphere := common.BoundingSphere(corners[:])
		r := max(sphere.Radius, 1.0/16)

		eye := sphere.Center.Sub(dir.Scale(2 * r))
		view := common.LookAt(eye, sphere.Center, up)
		proj := common.Ortho(-r, r, -r, r, 0, 3*r)

		// Snap the light-space origin to a texel.
		origin := proj.Mul(view).TransformPoint(common.Vec3{})
		half := res / 2
		x, y := origin[0]*half, origin[1]*half
		proj[12] += (math32.Floor(x+0.5) - x) / half
		proj[13] += (math32.Floor(y+0.5) - y) / half

		out.Matrices[i] = proj.Mul(view)
		if i == 0 {
			out.TexelSize = 2 * r / res
		}
		start = end
	}
	return out
}
