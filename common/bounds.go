package common

import "github.com/chewxy/math32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max Vec3
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec3
	Radius float32
}

// Center returns the midpoint of the box.
func (b AABB) Center() Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Extents returns the half-size of the box along each axis.
func (b AABB) Extents() Vec3 {
	return b.Max.Sub(b.Min).Scale(0.5)
}

// Transform returns the axis-aligned box enclosing b after transformation by m.
// Uses the absolute-matrix method so only the centre and extents are transformed.
//
// Parameters:
//   - m: an affine transform
//
// Returns:
//   - AABB: the enclosing world-space box
func (b AABB) Transform(m Mat4) AABB {
	c := m.TransformPoint(b.Center())
	e := b.Extents()

	var ne Vec3
	for r := 0; r < 3; r++ {
		ne[r] = math32.Abs(m[r])*e[0] + math32.Abs(m[4+r])*e[1] + math32.Abs(m[8+r])*e[2]
	}
	return AABB{Min: c.Sub(ne), Max: c.Add(ne)}
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]Vec3 {
	var out [8]Vec3
	for i := range out {
		for a := 0; a < 3; a++ {
			if i&(1<<a) != 0 {
				out[i][a] = b.Max[a]
			} else {
				out[i][a] = b.Min[a]
			}
		}
	}
	return out
}

// BoundingSphere returns a sphere centred on the centroid of points with a radius reaching the
// furthest point. The radius is rounded up to a multiple of 1/16 so that it stays stable while
// the points move slightly between frames.
//
// Parameters:
//   - points: the points to enclose, must not be empty
//
// Returns:
//   - Sphere: the enclosing sphere
func BoundingSphere(points []Vec3) Sphere {
	var c Vec3
	for _, p := range points {
		c = c.Add(p)
	}
	c = c.Scale(1 / float32(len(points)))

	var r float32
	for _, p := range points {
		r = max(r, p.Sub(c).Length())
	}
	r = math32.Ceil(r*16) / 16
	return Sphere{Center: c, Radius: r}
}
