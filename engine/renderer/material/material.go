package material

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
)

// GPUMaterialSize is the byte size of the Material uniform read by the forward pass.
const GPUMaterialSize = 48

var nextID atomic.Uint32

// material is the implementation of the Material interface.
type material struct {
	mu        sync.RWMutex
	id        uint32
	name      string
	baseColor [4]float32
	metallic  float32
	roughness float32
	occlusion float32
	emissive  common.Vec3
	version   uint64
}

// Material defines the interface for a render material: a set of PBR factors with a stable id.
//
// The id forms the high half of a draw sort key, so draws sharing a material are adjacent and
// the forward pass only switches material bind groups when the id changes. Version increases on
// every setter call so the forward pass knows when to re-upload the uniform.
type Material interface {
	// ID retrieves the process-unique material id.
	//
	// Returns:
	//   - uint32: the id, never zero
	ID() uint32

	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// BaseColor retrieves the albedo/diffuse RGBA color of the material.
	//
	// Returns:
	//   - [4]float32: the base color as RGBA values
	BaseColor() [4]float32

	// Metallic retrieves the metallic factor of the material.
	// A value of 0.0 represents a dielectric surface, 1.0 represents a fully metallic surface.
	//
	// Returns:
	//   - float32: the metallic factor
	Metallic() float32

	// Roughness retrieves the roughness factor of the material.
	// A value of 0.0 represents a perfectly smooth surface, 1.0 represents a fully rough surface.
	//
	// Returns:
	//   - float32: the roughness factor
	Roughness() float32

	// Occlusion retrieves the ambient occlusion multiplier.
	Occlusion() float32

	// Emissive retrieves the emitted RGB color.
	Emissive() common.Vec3

	// Version returns a counter that increases whenever a factor changes.
	Version() uint64

	// SetBaseColor sets the base color.
	SetBaseColor(color [4]float32)

	// SetMetallicRoughness sets the metallic and roughness factors, clamped to [0, 1].
	SetMetallicRoughness(metallic, roughness float32)

	// SetEmissive sets the emitted color.
	SetEmissive(color common.Vec3)

	// Marshal serializes the material into the WGSL Material uniform layout:
	//
	//	offset  0: base color rgba
	//	offset 16: emissive rgb, unused
	//	offset 32: metallic, roughness, occlusion, unused
	//
	// Returns:
	//   - []byte: GPUMaterialSize bytes
	Marshal() []byte
}

var _ Material = &material{}

// NewMaterial creates a new Material with default factors (white, dielectric, roughness 0.5) and the
// given options applied.
//
// Parameters:
//   - opts: builder options
//
// Returns:
//   - Material: the new material
func NewMaterial(opts ...MaterialBuilderOption) Material {
	m := &material{
		id:        nextID.Add(1),
		baseColor: [4]float32{1, 1, 1, 1},
		roughness: 0.5,
		occlusion: 1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *material) ID() uint32 {
	return m.id
}

func (m *material) Name() string {
	return m.name
}

func (m *material) BaseColor() [4]float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseColor
}

func (m *material) Metallic() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metallic
}

func (m *material) Roughness() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.roughness
}

func (m *material) Occlusion() float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.occlusion
}

func (m *material) Emissive() common.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.emissive
}

func (m *material) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

func (m *material) SetBaseColor(color [4]float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseColor = color
	m.version++
}

func (m *material) SetMetallicRoughness(metallic, roughness float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metallic = common.Clamp(metallic, 0, 1)
	m.roughness = common.Clamp(roughness, 0, 1)
	m.version++
}

func (m *material) SetEmissive(color common.Vec3) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emissive = color
	m.version++
}

func (m *material) Marshal() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	buf := make([]byte, 0, GPUMaterialSize)
	buf = common.AppendFloats(buf, m.baseColor[:]...)
	buf = common.AppendFloats(buf, m.emissive[0], m.emissive[1], m.emissive[2], 0)
	return common.AppendFloats(buf, m.metallic, m.roughness, m.occlusion, 0)
}
