package common

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func testFrustum() (Frustum, Mat4) {
	view := LookAt(Vec3{0, 0, 0}, Vec3{0, 0, -1}, Vec3{0, 1, 0})
	proj := Perspective(math32.Pi/2, 1, 1, 100)
	vp := proj.Mul(view)
	return ExtractFrustum(vp), vp
}

func TestFrustumAABB(t *testing.T) {
	f, _ := testFrustum()

	tests := []struct {
		name string
		box  AABB
		want bool
	}{
		{"fully inside", AABB{Min: Vec3{-1, -1, -11}, Max: Vec3{1, 1, -9}}, true},
		{"straddles near plane", AABB{Min: Vec3{-1, -1, -2}, Max: Vec3{1, 1, 0}}, true},
		{"straddles left plane", AABB{Min: Vec3{-20, -1, -11}, Max: Vec3{-9, 1, -9}}, true},
		{"behind camera", AABB{Min: Vec3{-1, -1, 1}, Max: Vec3{1, 1, 3}}, false},
		{"beyond far plane", AABB{Min: Vec3{-1, -1, -300}, Max: Vec3{1, 1, -200}}, false},
		{"left of frustum", AABB{Min: Vec3{-30, -1, -11}, Max: Vec3{-20, 1, -9}}, false},
		{"above frustum", AABB{Min: Vec3{-1, 20, -11}, Max: Vec3{1, 30, -9}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsAABB(tt.box))
		})
	}
}

func TestFrustumSphere(t *testing.T) {
	f, _ := testFrustum()

	assert.True(t, f.IntersectsSphere(Sphere{Center: Vec3{0, 0, -50}, Radius: 1}))
	assert.True(t, f.IntersectsSphere(Sphere{Center: Vec3{0, 0, -0.5}, Radius: 1}))
	assert.False(t, f.IntersectsSphere(Sphere{Center: Vec3{0, 0, 5}, Radius: 1}))
}

func TestFrustumCornersMatchPlanes(t *testing.T) {
	f, vp := testFrustum()
	inv, ok := vp.Inverse()
	assert.True(t, ok)

	corners := FrustumCorners(inv, 0, 1)
	for i, c := range corners {
		for p, pl := range f.Planes {
			assert.GreaterOrEqual(t, pl.SignedDistance(c), float32(-0.1), "corner %d plane %d", i, p)
		}
	}
	// near face sits one unit ahead of the camera
	assert.InDelta(t, -1, corners[0][2], 1e-2)
	assert.InDelta(t, -100, corners[7][2], 0.5)
}
