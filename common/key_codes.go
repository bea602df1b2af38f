package common

// Key codes delivered by the window. They match GLFW key codes, which use ASCII for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW   = 87
	KeyA   = 65
	KeyS   = 83
	KeyD   = 68
	KeyQ   = 81
	KeyE   = 69
	KeyB   = 66  // toggles shadows
	KeyG   = 71  // toggles the grid overlay
	KeyTab = 258 // switches between the editor and play cameras

	KeyLeftShift = 340
)
