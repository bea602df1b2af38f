package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/chewxy/math32"
)

type cameraImpl struct {
	mu *sync.Mutex

	up common.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	view        common.Mat4
	proj        common.Mat4
	viewProj    common.Mat4
	invViewProj common.Mat4

	controller CameraController
}

// Camera holds perspective settings and computes view/projection matrices from an attached
// CameraController. The editor camera and the scene's play cameras both implement it, and the
// world renderer normalizes either into a per-frame snapshot.
type Camera interface {
	// Up returns the camera's world up vector.
	Up() common.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	//
	// Returns:
	//   - float32: near plane distance
	Near() float32

	// Far returns the far clipping plane distance.
	//
	// Returns:
	//   - float32: far plane distance
	Far() float32

	// Position returns the world-space eye position, or the origin without a controller.
	Position() common.Vec3

	// View returns the current view matrix.
	//
	// Returns:
	//   - common.Mat4: the view matrix
	View() common.Mat4

	// Proj returns the current projection matrix. Depth maps to [0, 1].
	//
	// Returns:
	//   - common.Mat4: the projection matrix
	Proj() common.Mat4

	// ViewProj returns Proj * View.
	//
	// Returns:
	//   - common.Mat4: the combined view-projection matrix
	ViewProj() common.Mat4

	// InvViewProj returns the inverse of ViewProj, used to back-project frustum corners.
	//
	// Returns:
	//   - common.Mat4: the inverse view-projection matrix
	InvViewProj() common.Mat4

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// Update reads position and target from the controller and recomputes all matrices.
	// Called once per frame before the frame is rendered. It does nothing without a controller.
	Update()

	// SetFov sets the vertical field of view in radians.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetAspect sets the aspect ratio. The world renderer calls it with the viewport aspect every frame.
	//
	// Parameters:
	//   - aspect: width / height
	SetAspect(aspect float32)

	// SetClipPlanes sets the near and far plane distances.
	//
	// Parameters:
	//   - near: near plane distance, must be > 0
	//   - far: far plane distance, must be > near
	SetClipPlanes(near, far float32)

	// SetController replaces the attached controller.
	SetController(ctrl CameraController)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a perspective camera with a 60 degree field of view, clip planes at 0.1 and 1000,
// and a free-fly controller at the origin unless WithController is given.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:     &sync.Mutex{},
		up:     common.Vec3{0, 1, 0},
		fov:    math32.Pi / 3,
		aspect: 16.0 / 9.0,
		near:   0.1,
		far:    1000,
	}
	for _, option := range options {
		option(c)
	}
	if c.controller == nil {
		c.controller = NewCameraController()
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Up() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return common.Vec3{}
	}
	return c.controller.Position()
}

func (c *cameraImpl) View() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *cameraImpl) Proj() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.proj
}

func (c *cameraImpl) ViewProj() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProj
}

func (c *cameraImpl) InvViewProj() common.Mat4 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invViewProj
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.controller == nil {
		return
	}
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) SetClipPlanes(near, far float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near = near
	c.far = far
	c.updateMatrices()
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controller = ctrl
	c.updateMatrices()
}

// updateMatrices recalculates every matrix from the controller's eye and target.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	if c.controller == nil {
		return
	}

	c.view = common.LookAt(c.controller.Position(), c.controller.Target(), c.up)
	c.proj = common.Perspective(c.fov, c.aspect, c.near, c.far)
	c.viewProj = c.proj.Mul(c.view)
	if inv, ok := c.viewProj.Inverse(); ok {
		c.invViewProj = inv
	}
}
