package material

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMaterial_UniqueIDs(t *testing.T) {
	a := NewMaterial(WithName("a"))
	b := NewMaterial(WithName("b"))
	assert.NotZero(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestMaterial_SettersBumpVersion(t *testing.T) {
	m := NewMaterial(WithMetallic(2), WithRoughness(-1))
	assert.Equal(t, float32(1), m.Metallic())
	assert.Equal(t, float32(0), m.Roughness())
	assert.Zero(t, m.Version())

	m.SetBaseColor([4]float32{1, 0, 0, 1})
	m.SetMetallicRoughness(0.25, 0.75)
	assert.Equal(t, uint64(2), m.Version())
}

func TestMaterial_Marshal(t *testing.T) {
	m := NewMaterial(WithBaseColor([4]float32{0.5, 0.25, 1, 1}), WithMetallic(0.8), WithRoughness(0.3))
	buf := m.Marshal()
	assert.Len(t, buf, GPUMaterialSize)
	f := func(off int) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])) }
	assert.Equal(t, float32(0.25), f(4))
	assert.Equal(t, float32(0.8), f(32))
	assert.Equal(t, float32(0.3), f(36))
	assert.Equal(t, float32(1), f(40))
}
