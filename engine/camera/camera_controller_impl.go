package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/chewxy/math32"
)

// maxPitch keeps the view direction away from the up vector so LookAt stays well defined.
const maxPitch = math32.Pi/2 - 0.01

type cameraControllerImpl struct {
	mu *sync.Mutex

	position common.Vec3
	yaw      float32
	pitch    float32

	moveSpeed        float32
	mouseSensitivity float32
	zoomSpeed        float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a free-fly controller at the origin looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:               &sync.Mutex{},
		moveSpeed:        1.0,
		mouseSensitivity: 0.005,
		zoomSpeed:        1.0,
	}
	for _, option := range options {
		option(cc)
	}
	cc.pitch = common.Clamp(cc.pitch, -maxPitch, maxPitch)
	return cc
}

// forward computes the unit view direction. Caller must hold the mutex.
func (cc *cameraControllerImpl) forward() common.Vec3 {
	sy, cy := math32.Sincos(cc.yaw)
	sp, cp := math32.Sincos(cc.pitch)
	return common.Vec3{sy * cp, sp, -cy * cp}
}

// right computes the horizontal right vector. Caller must hold the mutex.
func (cc *cameraControllerImpl) right() common.Vec3 {
	sy, cy := math32.Sincos(cc.yaw)
	return common.Vec3{cy, 0, sy}
}

func (cc *cameraControllerImpl) Position() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) Target() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position.Add(cc.forward())
}

func (cc *cameraControllerImpl) SetPosition(pos common.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = pos
}

func (cc *cameraControllerImpl) LookAt(target common.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	dir := target.Sub(cc.position).Normalize()
	if dir == (common.Vec3{}) {
		return
	}
	cc.pitch = common.Clamp(math32.Asin(dir[1]), -maxPitch, maxPitch)
	cc.yaw = math32.Atan2(dir[0], -dir[2])
}

func (cc *cameraControllerImpl) Forward() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.forward()
}

func (cc *cameraControllerImpl) Right() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.right()
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) Look(dYaw, dPitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw += dYaw * cc.mouseSensitivity
	cc.pitch = common.Clamp(cc.pitch+dPitch*cc.mouseSensitivity, -maxPitch, maxPitch)
}

func (cc *cameraControllerImpl) Move(forward, right, up float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	delta := cc.forward().Scale(forward).
		Add(cc.right().Scale(right)).
		Add(common.Vec3{0, up, 0})
	cc.position = cc.position.Add(delta.Scale(cc.moveSpeed))
}

func (cc *cameraControllerImpl) Zoom(delta float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = cc.position.Add(cc.forward().Scale(delta * cc.zoomSpeed))
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) SetMoveSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.moveSpeed = speed
}

func (cc *cameraControllerImpl) MouseSensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.mouseSensitivity
}

func (cc *cameraControllerImpl) ZoomSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.zoomSpeed
}
