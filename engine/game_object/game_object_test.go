package game_object

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
	"github.com/stretchr/testify/assert"
)

func TestNewGameObjectDefaults(t *testing.T) {
	obj := NewGameObject()
	assert.True(t, obj.Enabled())
	assert.True(t, obj.CastShadows())
	assert.False(t, obj.Renderable())
	assert.Equal(t, common.Vec3{1, 1, 1}, obj.Scale())
	assert.Equal(t, common.Identity(), obj.Transform())
}

func TestRenderableNeedsModelAndMaterial(t *testing.T) {
	obj := NewGameObject(WithModel(model.NewCube("cube", 1)))
	assert.False(t, obj.Renderable())

	obj.SetMaterial(material.NewMaterial())
	assert.True(t, obj.Renderable())

	obj.SetEnabled(false)
	assert.False(t, obj.Renderable())
}

func TestTransformComposesPositionAndScale(t *testing.T) {
	obj := NewGameObject(WithPosition(1, 2, 3), WithScale(2, 2, 2))
	m := obj.Transform()
	assert.Equal(t, common.Vec3{1, 2, 3}, m.Translation())
	assert.Equal(t, common.Vec3{3, 4, 5}, m.TransformPoint(common.Vec3{1, 1, 1}))
}

func TestTickAppliesRotationSpeed(t *testing.T) {
	obj := NewGameObject(WithRotationSpeed(0, 2, 0))
	obj.Tick(0.5)
	obj.Tick(0.5)
	assert.InDelta(t, 2, obj.Rotation()[1], 1e-6)
}

func TestCameraFollowsPosition(t *testing.T) {
	cam := camera.NewCamera()
	obj := NewGameObject(WithPosition(0, 5, 0), WithCamera(cam))
	assert.Equal(t, common.Vec3{0, 5, 0}, cam.Controller().Position())

	obj.SetPosition(1, 2, 3)
	assert.Equal(t, common.Vec3{1, 2, 3}, cam.Controller().Position())
}
