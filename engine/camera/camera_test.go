package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertVec3InDelta(t *testing.T, want, got common.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-4, "component %d", i)
	}
}

func TestControllerDefaultsLookDownNegativeZ(t *testing.T) {
	cc := NewCameraController()
	assertVec3InDelta(t, common.Vec3{0, 0, -1}, cc.Forward())
	assertVec3InDelta(t, common.Vec3{1, 0, 0}, cc.Right())
	assertVec3InDelta(t, common.Vec3{0, 0, -1}, cc.Target())
}

func TestControllerMove(t *testing.T) {
	cc := NewCameraController(WithPosition(common.Vec3{1, 2, 3}), WithMoveSpeed(2))
	cc.Move(1, 0.5, 1)
	assertVec3InDelta(t, common.Vec3{2, 4, 1}, cc.Position())
}

func TestControllerLookClampsPitch(t *testing.T) {
	cc := NewCameraController(WithMouseSensitivity(1))
	cc.Look(0, 10)
	assert.InDelta(t, maxPitch, cc.Pitch(), 1e-6)
	cc.Look(0, -20)
	assert.InDelta(t, -maxPitch, cc.Pitch(), 1e-6)
}

func TestControllerLookAt(t *testing.T) {
	cc := NewCameraController(WithPosition(common.Vec3{0, 0, 5}))
	cc.LookAt(common.Vec3{5, 0, 5})
	assertVec3InDelta(t, common.Vec3{1, 0, 0}, cc.Forward())
	assert.InDelta(t, math32.Pi/2, cc.Yaw(), 1e-5)

	before := cc.Forward()
	cc.LookAt(cc.Position())
	assert.Equal(t, before, cc.Forward())
}

func TestControllerZoom(t *testing.T) {
	cc := NewCameraController(WithZoomSpeed(3))
	cc.Zoom(1)
	assertVec3InDelta(t, common.Vec3{0, 0, -3}, cc.Position())
}

func TestCameraProjectsAlongViewDirection(t *testing.T) {
	cam := NewCamera(WithClipPlanes(0.5, 100), WithAspect(1))
	vp := cam.ViewProj()

	near := vp.TransformPoint(common.Vec3{0, 0, -0.5})
	far := vp.TransformPoint(common.Vec3{0, 0, -100})
	assert.InDelta(t, 0, near[2], 1e-4)
	assert.InDelta(t, 1, far[2], 1e-4)
	assert.InDelta(t, 0, near[0], 1e-6)
	assert.InDelta(t, 0, near[1], 1e-6)
}

func TestCameraInverseViewProj(t *testing.T) {
	ctrl := NewCameraController(WithPosition(common.Vec3{3, 2, 10}), WithYawPitch(0.3, -0.2))
	cam := NewCamera(WithController(ctrl))

	p := common.Vec3{1, 1, -5}
	ndc := cam.ViewProj().TransformPoint(p)
	assertVec3InDelta(t, p, cam.InvViewProj().TransformPoint(ndc))
}

func TestCameraUpdateFollowsController(t *testing.T) {
	cam := NewCamera()
	before := cam.View()

	cam.Controller().SetPosition(common.Vec3{0, 0, 10})
	assert.Equal(t, before, cam.View(), "matrices only change on Update")

	cam.Update()
	require.NotEqual(t, before, cam.View())
	assertVec3InDelta(t, common.Vec3{0, 0, 10}, cam.Position())
	assertVec3InDelta(t, common.Vec3{}, cam.View().TransformPoint(cam.Position()))
}

func TestCameraSetAspectIgnoresNonPositive(t *testing.T) {
	cam := NewCamera(WithAspect(2))
	cam.SetAspect(0)
	assert.Equal(t, float32(2), cam.Aspect())
	cam.SetAspect(1.5)
	assert.Equal(t, float32(1.5), cam.Aspect())
}
