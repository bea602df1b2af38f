package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/light"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/model"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/material"
)

type gameObject struct {
	id          uint64
	enabled     atomic.Bool
	castShadows atomic.Bool

	mdl           model.Model
	mat           material.Material
	attachedLight light.Light
	cam           camera.Camera

	mu            sync.RWMutex
	position      common.Vec3
	rotation      common.Vec3
	rotationSpeed common.Vec3
	scale         common.Vec3
}

// GameObject is a scene entity. An entity with a model and a material is a renderable; it may also
// carry a light, whose position follows the entity, or a camera, which makes it a candidate for the
// scene's active play camera.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Renderable reports whether the object is enabled and has both a model and a material.
	Renderable() bool

	// CastShadows reports whether the object is drawn into the shadow maps.
	CastShadows() bool

	// Model returns the Model associated with this object, or nil if not set.
	//
	// Returns:
	//   - model.Model: the associated model or nil
	Model() model.Model

	// Material returns the Material associated with this object, or nil if not set.
	//
	// Returns:
	//   - material.Material: the associated material or nil
	Material() material.Material

	// Light returns the Light attached to this object, or nil if none is set.
	//
	// Returns:
	//   - light.Light: the attached light or nil
	Light() light.Light

	// Camera returns the Camera attached to this object, or nil if none is set.
	Camera() camera.Camera

	// Position returns the world-space position.
	Position() common.Vec3

	// Rotation returns the Euler rotation in radians.
	Rotation() common.Vec3

	// RotationSpeed returns the rotation applied per second by Tick.
	RotationSpeed() common.Vec3

	// Scale returns the per-axis scale.
	Scale() common.Vec3

	// Transform composes position, rotation and scale into the world matrix.
	//
	// Returns:
	//   - common.Mat4: the model-to-world matrix
	Transform() common.Mat4

	// Tick advances the rotation by RotationSpeed * dt.
	//
	// Parameters:
	//   - dt: elapsed seconds
	Tick(dt float32)

	// SetID sets the object's unique identifier.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// SetEnabled sets whether the object is enabled for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)

	// SetCastShadows sets whether the object is drawn into the shadow maps.
	SetCastShadows(cast bool)

	// SetModel assigns a Model to this object.
	//
	// Parameters:
	//   - m: the Model to associate
	SetModel(m model.Model)

	// SetMaterial assigns a Material to this object.
	SetMaterial(m material.Material)

	// SetLight attaches a Light to this object. The light's position is the object's
	// position plus the light's offset. Pass nil to detach.
	//
	// Parameters:
	//   - l: the Light to attach, or nil to detach
	SetLight(l light.Light)

	// SetCamera attaches a Camera to this object. Pass nil to detach.
	SetCamera(c camera.Camera)

	// SetPosition sets the world-space position. An attached camera's controller is moved with it.
	//
	// Parameters:
	//   - x, y, z: new position components
	SetPosition(x, y, z float32)

	// SetRotation sets the Euler rotation in radians.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation angles
	SetRotation(rx, ry, rz float32)

	// SetRotationSpeed sets the rotation applied per second by Tick.
	//
	// Parameters:
	//   - rx, ry, rz: new rotation speed values
	SetRotationSpeed(rx, ry, rz float32)

	// SetScale sets the per-axis scale.
	//
	// Parameters:
	//   - sx, sy, sz: new scale factors
	SetScale(sx, sy, sz float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new, enabled, shadow-casting GameObject with unit scale.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale: common.Vec3{1, 1, 1},
	}
	obj.enabled.Store(true)
	obj.castShadows.Store(true)
	for _, option := range options {
		option(obj)
	}
	if obj.cam != nil {
		obj.cam.Controller().SetPosition(obj.position)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Renderable() bool {
	return g.Enabled() && g.mdl != nil && g.mat != nil
}

func (g *gameObject) CastShadows() bool {
	return g.castShadows.Load()
}

func (g *gameObject) Model() model.Model {
	return g.mdl
}

func (g *gameObject) Material() material.Material {
	return g.mat
}

func (g *gameObject) Light() light.Light {
	return g.attachedLight
}

func (g *gameObject) Camera() camera.Camera {
	return g.cam
}

func (g *gameObject) Position() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

func (g *gameObject) Rotation() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotation
}

func (g *gameObject) RotationSpeed() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rotationSpeed
}

func (g *gameObject) Scale() common.Vec3 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

func (g *gameObject) Transform() common.Mat4 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return common.Compose(g.position, g.rotation, g.scale)
}

func (g *gameObject) Tick(dt float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = g.rotation.Add(g.rotationSpeed.Scale(dt))
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetCastShadows(cast bool) {
	g.castShadows.Store(cast)
}

func (g *gameObject) SetModel(m model.Model) {
	g.mdl = m
}

func (g *gameObject) SetMaterial(m material.Material) {
	g.mat = m
}

func (g *gameObject) SetLight(l light.Light) {
	g.attachedLight = l
}

func (g *gameObject) SetCamera(c camera.Camera) {
	g.cam = c
	if c != nil {
		c.Controller().SetPosition(g.Position())
	}
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	g.position = common.Vec3{x, y, z}
	g.mu.Unlock()
	if g.cam != nil {
		g.cam.Controller().SetPosition(common.Vec3{x, y, z})
	}
}

func (g *gameObject) SetRotation(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotation = common.Vec3{rx, ry, rz}
}

func (g *gameObject) SetRotationSpeed(rx, ry, rz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rotationSpeed = common.Vec3{rx, ry, rz}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = common.Vec3{sx, sy, sz}
}
