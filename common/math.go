package common

import (
	"encoding/binary"

	"github.com/chewxy/math32"
)

// Vec3 is a three component float32 vector.
type Vec3 [3]float32

// Vec4 is a four component float32 vector, used for homogeneous coordinates.
type Vec4 [4]float32

// Mat4 is a 4x4 float32 matrix stored in column-major order (WebGPU convention).
// Element (row r, column c) lives at index c*4 + r.
type Mat4 [16]float32

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v multiplied by s.
func (v Vec3) Scale(s float32) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float32 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// Length returns the Euclidean length of v.
func (v Vec3) Length() float32 {
	return math32.Sqrt(v.Dot(v))
}

// Normalize returns v scaled to unit length. A zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Identity returns the 4x4 identity matrix.
//
// Returns:
//   - Mat4: the identity matrix
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns the matrix product m * o.
//
// Parameters:
//   - o: the right-hand matrix
//
// Returns:
//   - Mat4: the product m * o
func (m Mat4) Mul(o Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * o[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// MulVec4 returns m * v.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	var out Vec4
	for r := 0; r < 4; r++ {
		out[r] = m[r]*v[0] + m[4+r]*v[1] + m[8+r]*v[2] + m[12+r]*v[3]
	}
	return out
}

// TransformPoint transforms p by m with an implicit w of 1 and performs the perspective divide.
//
// Parameters:
//   - p: the point to transform
//
// Returns:
//   - Vec3: the transformed point
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	h := m.MulVec4(Vec4{p[0], p[1], p[2], 1})
	if h[3] != 0 && h[3] != 1 {
		inv := 1 / h[3]
		return Vec3{h[0] * inv, h[1] * inv, h[2] * inv}
	}
	return Vec3{h[0], h[1], h[2]}
}

// Translation returns the translation column of m.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// Inverse computes the inverse of m using cofactor expansion.
//
// Returns:
//   - Mat4: the inverse matrix, or the zero matrix if m is singular
//   - bool: false if m is singular
func (m Mat4) Inverse() (Mat4, bool) {
	s0 := m[0]*m[5] - m[4]*m[1]
	s1 := m[0]*m[6] - m[4]*m[2]
	s2 := m[0]*m[7] - m[4]*m[3]
	s3 := m[1]*m[6] - m[5]*m[2]
	s4 := m[1]*m[7] - m[5]*m[3]
	s5 := m[2]*m[7] - m[6]*m[3]

	c5 := m[10]*m[15] - m[14]*m[11]
	c4 := m[9]*m[15] - m[13]*m[11]
	c3 := m[9]*m[14] - m[13]*m[10]
	c2 := m[8]*m[15] - m[12]*m[11]
	c1 := m[8]*m[14] - m[12]*m[10]
	c0 := m[8]*m[13] - m[12]*m[9]

	det := s0*c5 - s1*c4 + s2*c3 + s3*c2 - s4*c1 + s5*c0
	if det == 0 {
		return Mat4{}, false
	}
	d := 1 / det

	return Mat4{
		(m[5]*c5 - m[6]*c4 + m[7]*c3) * d,
		(-m[1]*c5 + m[2]*c4 - m[3]*c3) * d,
		(m[13]*s5 - m[14]*s4 + m[15]*s3) * d,
		(-m[9]*s5 + m[10]*s4 - m[11]*s3) * d,

		(-m[4]*c5 + m[6]*c2 - m[7]*c1) * d,
		(m[0]*c5 - m[2]*c2 + m[3]*c1) * d,
		(-m[12]*s5 + m[14]*s2 - m[15]*s1) * d,
		(m[8]*s5 - m[10]*s2 + m[11]*s1) * d,

		(m[4]*c4 - m[5]*c2 + m[7]*c0) * d,
		(-m[0]*c4 + m[1]*c2 - m[3]*c0) * d,
		(m[12]*s4 - m[13]*s2 + m[15]*s0) * d,
		(-m[8]*s4 + m[9]*s2 - m[11]*s0) * d,

		(-m[4]*c3 + m[5]*c1 - m[6]*c0) * d,
		(m[0]*c3 - m[1]*c1 + m[2]*c0) * d,
		(-m[12]*s3 + m[13]*s1 - m[14]*s0) * d,
		(m[8]*s3 - m[9]*s1 + m[10]*s0) * d,
	}, true
}

// Perspective builds a right-handed perspective projection mapping view depth to the WebGPU
// clip range [0, 1].
//
// Parameters:
//   - fovY: vertical field of view in radians
//   - aspect: viewport aspect ratio (width/height)
//   - near: near plane distance, must be > 0
//   - far: far plane distance, must be > near
//
// Returns:
//   - Mat4: the projection matrix
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := 1 / math32.Tan(fovY/2)
	var out Mat4
	out[0] = f / aspect
	out[5] = f
	out[10] = far / (near - far)
	out[11] = -1
	out[14] = (near * far) / (near - far)
	return out
}

// Ortho builds a right-handed orthographic projection mapping view depth to [0, 1].
//
// Parameters:
//   - left, right, bottom, top: the view volume extents
//   - near, far: the depth range along -Z
//
// Returns:
//   - Mat4: the projection matrix
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	out := Identity()
	out[0] = 2 / (right - left)
	out[5] = 2 / (top - bottom)
	out[10] = -1 / (far - near)
	out[12] = -(right + left) / (right - left)
	out[13] = -(top + bottom) / (top - bottom)
	out[14] = -near / (far - near)
	return out
}

// LookAt builds a right-handed view matrix for an eye looking at center.
//
// Parameters:
//   - eye: the camera position
//   - center: the point the camera looks at
//   - up: the world up direction
//
// Returns:
//   - Mat4: the view matrix
func LookAt(eye, center, up Vec3) Mat4 {
	z := eye.Sub(center).Normalize()
	if z == (Vec3{}) {
		z = Vec3{0, 0, 1}
	}
	x := up.Cross(z).Normalize()
	if x == (Vec3{}) {
		// up is parallel to the view direction
		x = Vec3{0, 0, 1}.Cross(z).Normalize()
		if x == (Vec3{}) {
			x = Vec3{1, 0, 0}
		}
	}
	y := z.Cross(x)

	return Mat4{
		x[0], y[0], z[0], 0,
		x[1], y[1], z[1], 0,
		x[2], y[2], z[2], 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}
}

// Compose builds a model matrix from translation, Euler rotation (radians, applied Y*X*Z) and scale.
//
// Parameters:
//   - pos: translation
//   - rot: rotation angles around X, Y and Z
//   - scale: per-axis scale
//
// Returns:
//   - Mat4: the model matrix
func Compose(pos, rot, scale Vec3) Mat4 {
	sx, cx := math32.Sincos(rot[0])
	sy, cy := math32.Sincos(rot[1])
	sz, cz := math32.Sincos(rot[2])

	return Mat4{
		(cy*cz + sy*sx*sz) * scale[0], (cx * sz) * scale[0], (-sy*cz + cy*sx*sz) * scale[0], 0,
		(-cy*sz + sy*sx*cz) * scale[1], (cx * cz) * scale[1], (sy*sz + cy*sx*cz) * scale[1], 0,
		(sy * cx) * scale[2], (-sx) * scale[2], (cy * cx) * scale[2], 0,
		pos[0], pos[1], pos[2], 1,
	}
}

// AppendMat4 appends m to buf as 16 little-endian float32 values, the layout WGSL expects for mat4x4<f32>.
//
// Parameters:
//   - buf: the destination byte slice
//   - m: the matrix to append
//
// Returns:
//   - []byte: the extended slice
func AppendMat4(buf []byte, m Mat4) []byte {
	for _, v := range m {
		buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(v))
	}
	return buf
}

// AppendFloats appends each value to buf as a little-endian float32.
func AppendFloats(buf []byte, values ...float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math32.Float32bits(v))
	}
	return buf
}

// AppendUints appends each value to buf as a little-endian uint32.
func AppendUints(buf []byte, values ...uint32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf
}
