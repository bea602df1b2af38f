package world_renderer

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/render_context"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot(t *testing.T) render_context.CameraSnapshot {
	t.Helper()
	cam := editorCamera()
	cam.SetAspect(4.0 / 3.0)
	cam.SetClipPlanes(0.5, 200)
	cam.Update()
	return render_context.CameraSnapshot{
		ViewProj:    cam.ViewProj(),
		InvViewProj: cam.InvViewProj(),
		Near:        cam.Near(),
		Far:         cam.Far(),
	}
}

func TestCascadeSplitsIncrease(t *testing.T) {
	for _, lambda := range []float32{0, 0.5, 0.75, 1} {
		splits := cascadeSplits(0.5, 200, light.MaxCascades, lambda)
		prev := float32(0.5)
		for i := range light.MaxCascades {
			assert.Greater(t, splits[i], prev, "lambda %v cascade %d", lambda, i)
			prev = splits[i]
		}
		assert.InDelta(t, 200, splits[light.MaxCascades-1], 1e-3)
	}

	uniform := cascadeSplits(1, 101, 4, 0)
	assert.InDeltaSlice(t, []float32{26, 51, 76, 101}, uniform[:], 1e-4)
}

func TestViewDepthToNDC(t *testing.T) {
	assert.InDelta(t, 0, viewDepthToNDC(0.5, 0.5, 200), 1e-6)
	assert.InDelta(t, 1, viewDepthToNDC(200, 0.5, 200), 1e-6)
}

func TestComputeCascades(t *testing.T) {
	cam := testSnapshot(t)
	const res = 1024
	c := computeCascades(cam, common.Vec3{-0.3, -1, -0.2}, 4, 0.75, res)

	require.Equal(t, 4, c.Count)
	assert.Equal(t, cam.Near, c.Near)
	assert.Greater(t, c.Splits[0], c.Near)
	assert.Greater(t, c.TexelSize, float32(0))

	start := cam.Near
	for i := range c.Count {
		// The slice centre projects inside the cascade's light volume.
		corners := common.FrustumCorners(cam.InvViewProj,
			viewDepthToNDC(start, cam.Near, cam.Far),
			viewDepthToNDC(c.Splits[i], cam.Near, cam.Far))
		center := common.BoundingSphere(corners[:]).Center
		p := c.Matrices[i].TransformPoint(center)
		assert.InDelta(t, 0, p[0], 0.01, "cascade %d", i)
		assert.InDelta(t, 0, p[1], 0.01, "cascade %d", i)
		assert.True(t, p[2] > 0 && p[2] < 1, "cascade %d depth %v", i, p[2])

		// The world origin lands on a texel boundary.
		o := c.Matrices[i].TransformPoint(common.Vec3{})
		x := o[0] * res / 2
		assert.InDelta(t, math32.Floor(x+0.5), x, 0.01, "cascade %d", i)
		start = c.Splits[i]
	}
}

func TestComputeCascadesClampsCount(t *testing.T) {
	cam := testSnapshot(t)
	assert.Equal(t, 1, computeCascades(cam, common.Vec3{0, -1, 0}, 0, 0.5, 512).Count)
	assert.Equal(t, light.MaxCascades, computeCascades(cam, common.Vec3{0, -1, 0}, 9, 0.5, 512).Count)
}
