package light

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.002

// ShadowRasterBias and ShadowRasterSlopeScale are the rasterizer depth bias used when rendering
// cascades.
const (
	ShadowRasterBias       int32   = 2
	ShadowRasterSlopeScale float32 = 2.0
)
