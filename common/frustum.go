package common

// Plane represents a plane in 3D space using the equation: n·p + d = 0.
// Points with a positive signed distance are on the inner side.
type Plane struct {
	Normal   Vec3
	Distance float32
}

// SignedDistance returns the signed distance from p to the plane.
func (pl Plane) SignedDistance(p Vec3) float32 {
	return pl.Normal.Dot(p) + pl.Distance
}

// Frustum holds the six inward-facing planes of a view volume.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// ExtractFrustum extracts normalized frustum planes from a view-projection matrix using the
// Gribb/Hartmann method. The near plane follows the WebGPU depth range [0, 1], so it is row 2
// alone rather than row 3 + row 2.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the combined projection * view matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustum(viewProj Mat4) Frustum {
	row := func(r int) Vec4 {
		return Vec4{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	planes := [6]Vec4{
		FrustumLeft:   {r3[0] + r0[0], r3[1] + r0[1], r3[2] + r0[2], r3[3] + r0[3]},
		FrustumRight:  {r3[0] - r0[0], r3[1] - r0[1], r3[2] - r0[2], r3[3] - r0[3]},
		FrustumBottom: {r3[0] + r1[0], r3[1] + r1[1], r3[2] + r1[2], r3[3] + r1[3]},
		FrustumTop:    {r3[0] - r1[0], r3[1] - r1[1], r3[2] - r1[2], r3[3] - r1[3]},
		FrustumNear:   r2,
		FrustumFar:    {r3[0] - r2[0], r3[1] - r2[1], r3[2] - r2[2], r3[3] - r2[3]},
	}

	var f Frustum
	for i, p := range planes {
		n := Vec3{p[0], p[1], p[2]}
		l := n.Length()
		if l > 0 {
			f.Planes[i] = Plane{Normal: n.Scale(1 / l), Distance: p[3] / l}
		} else {
			f.Planes[i] = Plane{Normal: n, Distance: p[3]}
		}
	}
	return f
}

// IntersectsAABB reports whether box is at least partially inside the frustum.
// A box is rejected only when it lies entirely on the outer side of a single plane.
//
// Parameters:
//   - box: the world-space bounding box to test
//
// Returns:
//   - bool: false if the box is fully outside any plane
func (f Frustum) IntersectsAABB(box AABB) bool {
	for _, pl := range f.Planes {
		// positive vertex: the corner furthest along the plane normal
		var pv Vec3
		for i := 0; i < 3; i++ {
			if pl.Normal[i] >= 0 {
				pv[i] = box.Max[i]
			} else {
				pv[i] = box.Min[i]
			}
		}
		if pl.SignedDistance(pv) < 0 {
			return false
		}
	}
	return true
}

// IntersectsSphere reports whether s is at least partially inside the frustum.
func (f Frustum) IntersectsSphere(s Sphere) bool {
	for _, pl := range f.Planes {
		if pl.SignedDistance(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// FrustumCorners back-projects the eight NDC corners of the depth slice [nearZ, farZ] through
// invViewProj into world space. nearZ and farZ are NDC depths in [0, 1].
//
// Parameters:
//   - invViewProj: the inverse of the view-projection matrix
//   - nearZ, farZ: the NDC depth range of the slice
//
// Returns:
//   - [8]Vec3: the world-space corners, near face first
func FrustumCorners(invViewProj Mat4, nearZ, farZ float32) [8]Vec3 {
	var out [8]Vec3
	i := 0
	for _, z := range [2]float32{nearZ, farZ} {
		for _, y := range [2]float32{-1, 1} {
			for _, x := range [2]float32{-1, 1} {
				out[i] = invViewProj.TransformPoint(Vec3{x, y, z})
				i++
			}
		}
	}
	return out
}
