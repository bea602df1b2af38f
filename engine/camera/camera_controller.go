package camera

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// CameraController owns a camera's positional state. The camera reads Position and Target from
// it and computes its matrices. The only implementation is a free-fly controller driven by
// yaw and pitch angles, which is what the editor uses. Yaw 0 and pitch 0 look down -Z.
type CameraController interface {
	flyCameraController

	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - common.Vec3: world-space camera position
	Position() common.Vec3

	// Target returns a point one unit in front of the camera.
	//
	// Returns:
	//   - common.Vec3: world-space look-at point
	Target() common.Vec3

	// SetPosition sets the camera's world-space position directly. Orientation is unchanged.
	//
	// Parameters:
	//   - pos: world-space coordinates
	SetPosition(pos common.Vec3)

	// LookAt re-orients the camera so it faces target. Does nothing if target equals the position.
	//
	// Parameters:
	//   - target: world-space coordinates
	LookAt(target common.Vec3)

	// Forward returns the unit view direction.
	Forward() common.Vec3

	// Right returns the unit right vector on the horizontal plane.
	Right() common.Vec3
}

// flyCameraController defines the free-fly control methods.
type flyCameraController interface {
	// Yaw returns the horizontal angle around the Y axis in radians.
	Yaw() float32

	// Pitch returns the vertical angle from the horizontal plane in radians.
	Pitch() float32

	// Look rotates the view. Both deltas are scaled by MouseSensitivity, and pitch is clamped short of straight up or down.
	//
	// Parameters:
	//   - dYaw: horizontal mouse delta
	//   - dPitch: vertical mouse delta, positive looks up
	Look(dYaw, dPitch float32)

	// Move translates the camera along its local axes. Each amount is scaled by MoveSpeed.
	//
	// Parameters:
	//   - forward: movement along the view direction
	//   - right: movement along the right vector
	//   - up: movement along world up
	Move(forward, right, up float32)

	// Zoom moves the camera along its view direction by delta scaled by ZoomSpeed.
	//
	// Parameters:
	//   - delta: zoom amount, positive moves forward
	Zoom(delta float32)

	// MoveSpeed returns the movement speed multiplier.
	MoveSpeed() float32

	// SetMoveSpeed sets the movement speed multiplier.
	SetMoveSpeed(speed float32)

	// MouseSensitivity returns the look sensitivity multiplier.
	MouseSensitivity() float32

	// ZoomSpeed returns the zoom speed multiplier.
	ZoomSpeed() float32
}
