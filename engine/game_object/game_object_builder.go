package game_object

import (
	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject is enabled for rendering.
//
// Parameters:
//   - enabled: true to render the object, false to skip it
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithCastShadows sets whether the GameObject is drawn into the shadow maps.
func WithCastShadows(cast bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.castShadows.Store(cast)
	}
}

// WithModel sets the Model for this GameObject.
//
// Parameters:
//   - m: the Model to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Model
func WithModel(m model.Model) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mdl = m
	}
}

// WithMaterial sets the Material for this GameObject.
//
// Parameters:
//   - m: the Material to associate
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Material
func WithMaterial(m material.Material) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mat = m
	}
}

// WithPosition sets the initial position of the GameObject.
//
// Parameters:
//   - x: the x position
//   - y: the y position
//   - z: the z position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial position
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = common.Vec3{x, y, z}
	}
}

// WithScale sets the initial scale of the GameObject.
//
// Parameters:
//   - sx: the x scale factor
//   - sy: the y scale factor
//   - sz: the z scale factor
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial scale
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = common.Vec3{sx, sy, sz}
	}
}

// WithRotation sets the initial rotation of the GameObject.
//
// Parameters:
//   - rx: the x rotation angle
//   - ry: the y rotation angle
//   - rz: the z rotation angle
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the initial rotation
func WithRotation(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotation = common.Vec3{rx, ry, rz}
	}
}

// WithRotationSpeed sets the rotation the GameObject applies per second on Tick.
func WithRotationSpeed(rx, ry, rz float32) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.rotationSpeed = common.Vec3{rx, ry, rz}
	}
}

// WithLight attaches a Light to the GameObject. The light's world position follows the object.
//
// Parameters:
//   - l: the Light to attach
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the attached light
func WithLight(l light.Light) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.attachedLight = l
	}
}

// WithCamera attaches a Camera to the GameObject, making it eligible as the scene's play camera.
// The camera's controller is placed at the object's position.
//
// Parameters:
//   - c: the Camera to attach
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the attached camera
func WithCamera(c camera.Camera) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.cam = c
	}
}
