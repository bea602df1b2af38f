package camera

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*cameraControllerImpl)

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - pos: world-space coordinates
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(pos common.Vec3) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.position = pos
	}
}

// WithYawPitch sets the initial orientation.
//
// Parameters:
//   - yaw: horizontal angle in radians (0 = -Z axis)
//   - pitch: vertical angle in radians, clamped short of +-Pi/2
//
// Returns:
//   - CameraControllerOption: functional option to set the orientation
func WithYawPitch(yaw, pitch float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.yaw = yaw
		cc.pitch = pitch
	}
}

// WithMoveSpeed sets the movement speed multiplier.
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.moveSpeed = speed
	}
}

// WithMouseSensitivity sets the look sensitivity multiplier.
//
// Parameters:
//   - sensitivity: radians per unit of mouse movement
//
// Returns:
//   - CameraControllerOption: functional option to set the sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}

// WithZoomSpeed sets the zoom speed multiplier.
func WithZoomSpeed(speed float32) CameraControllerOption {
	return func(cc *cameraControllerImpl) {
		cc.zoomSpeed = speed
	}
}
