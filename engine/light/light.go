package light

import "github.com/Carmen-Shannon/oxy-framegraph/common"

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. It is the only light type that
	// drives shadow cascades.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range and is assigned to screen tiles
	// by the light culling pass.
	LightTypePoint
)

func (t LightType) String() string {
	if t == LightTypeDirectional {
		return "directional"
	}
	return "point"
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	lightType    LightType
	offset       common.Vec3
	direction    common.Vec3
	color        common.Vec3
	intensity    float32
	lightRange   float32
	enabled      bool
	castsShadows bool
}

// Light defines the interface for a light source attached to a scene entity.
//
// A point light is positioned at its owning entity's world translation plus Offset; the frame
// driver resolves that each frame. A directional light ignores position entirely.
type Light interface {
	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type (directional or point)
	Type() LightType

	// Offset returns the light position relative to its owning entity.
	Offset() common.Vec3

	// Direction returns the normalized direction the light travels in. Meaningless for point lights.
	//
	// Returns:
	//   - common.Vec3: normalized direction
	Direction() common.Vec3

	// Color returns the RGB color of the light.
	Color() common.Vec3

	// Intensity returns the scalar intensity multiplier for the light.
	Intensity() float32

	// Range returns the maximum attenuation distance for point lights.
	// Beyond this distance the light contributes zero energy.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// Enabled returns whether this light is active for rendering.
	// Disabled lights are skipped when the frame's light snapshot is taken.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// CastsShadows returns whether a directional light drives the shadow pass.
	CastsShadows() bool

	// SetOffset sets the position relative to the owning entity.
	SetOffset(x, y, z float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - x, y, z: direction components (will be normalized)
	SetDirection(x, y, z float32)

	// SetColor sets the RGB color of the light.
	SetColor(r, g, b float32)

	// SetIntensity sets the scalar intensity multiplier.
	SetIntensity(intensity float32)

	// SetRange sets the maximum attenuation distance.
	SetRange(lightRange float32)

	// SetEnabled enables or disables the light for rendering.
	SetEnabled(enabled bool)

	// SetCastsShadows sets whether the light is eligible for shadow mapping.
	SetCastsShadows(castsShadows bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		lightType:    lightType,
		direction:    common.Vec3{0, -1, 0},
		color:        common.Vec3{1, 1, 1},
		intensity:    1.0,
		lightRange:   10.0,
		enabled:      true,
		castsShadows: lightType == LightTypeDirectional,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Type() LightType {
	return l.lightType
}

func (l *lightImpl) Offset() common.Vec3 {
	return l.offset
}

func (l *lightImpl) Direction() common.Vec3 {
	return l.direction
}

func (l *lightImpl) Color() common.Vec3 {
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	return l.intensity
}

func (l *lightImpl) Range() float32 {
	return l.lightRange
}

func (l *lightImpl) Enabled() bool {
	return l.enabled
}

func (l *lightImpl) CastsShadows() bool {
	return l.castsShadows
}

func (l *lightImpl) SetOffset(x, y, z float32) {
	l.offset = common.Vec3{x, y, z}
}

func (l *lightImpl) SetDirection(x, y, z float32) {
	l.direction = common.Vec3{x, y, z}.Normalize()
}

func (l *lightImpl) SetColor(r, g, b float32) {
	l.color = common.Vec3{r, g, b}
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.intensity = intensity
}

func (l *lightImpl) SetRange(lightRange float32) {
	l.lightRange = lightRange
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.enabled = enabled
}

func (l *lightImpl) SetCastsShadows(castsShadows bool) {
	l.castsShadows = castsShadows
}
