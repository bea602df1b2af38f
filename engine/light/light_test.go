package light

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/stretchr/testify/assert"
)

func TestNewLight_Defaults(t *testing.T) {
	sun := NewLight(LightTypeDirectional, WithDirection(0, -2, 0))
	assert.True(t, sun.CastsShadows())
	assert.Equal(t, common.Vec3{0, -1, 0}, sun.Direction())

	bulb := NewLight(LightTypePoint, WithOffset(1, 2, 3), WithRange(5), WithColor(1, 0, 0))
	assert.False(t, bulb.CastsShadows())
	assert.Equal(t, common.Vec3{1, 2, 3}, bulb.Offset())
	assert.Equal(t, float32(5), bulb.Range())
	assert.Equal(t, "point", bulb.Type().String())

	bulb.SetEnabled(false)
	assert.False(t, bulb.Enabled())
}

func TestTileCounts(t *testing.T) {
	x, y := TileCounts(1920, 1080)
	assert.Equal(t, uint32(120), x)
	assert.Equal(t, uint32(68), y)
	assert.Equal(t, uint64(120*68*33*4), LightGridSize(x, y))
}

func TestMarshalLightData(t *testing.T) {
	buf := MarshalLightData(&DirectionalLight{Direction: common.Vec3{0, -1, 0}, Color: common.Vec3{1, 1, 1}, Intensity: 3}, 5, 10, 6)
	assert.Len(t, buf, GPULightDataSize)
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])))
	assert.Equal(t, float32(3), math.Float32frombits(binary.LittleEndian.Uint32(buf[28:32])))
	assert.Equal(t, uint32(5), binary.LittleEndian.Uint32(buf[48:52]))
	assert.Equal(t, uint32(TileSize), binary.LittleEndian.Uint32(buf[60:64]))

	none := MarshalLightData(nil, 0, 1, 1)
	assert.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(none[12:16])))
}

func TestMarshalPointLightsNeverEmpty(t *testing.T) {
	assert.Len(t, MarshalPointLights(nil), GPUPointLightSize)
	assert.Len(t, MarshalPointLights(make([]PointLight, 3)), 3*GPUPointLightSize)
}

func TestMarshalShadowData(t *testing.T) {
	var mats [MaxCascades]common.Mat4
	for i := range mats {
		mats[i] = common.Identity()
	}
	buf := MarshalShadowData(mats, [MaxCascades]float32{5, 10, 20, 40}, 4, 0.01, true)
	assert.Len(t, buf, GPUShadowDataSize)
	assert.Equal(t, float32(40), math.Float32frombits(binary.LittleEndian.Uint32(buf[268:272])))
	assert.Equal(t, float32(4), math.Float32frombits(binary.LittleEndian.Uint32(buf[272:276])))
	assert.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(buf[284:288])))
}
