// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

// Extent is a width/height pair in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero, as happens while a window is minimised.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Aspect returns width / height, or 1 for an empty extent.
func (e Extent) Aspect() float32 {
	if e.Empty() {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}
