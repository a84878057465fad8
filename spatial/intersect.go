// SPDX-License-Identifier: EPL-2.0

package spatial

import "gonum.org/v1/gonum/spatial/r3"

const epsilon = 1e-9

// SegmentCrossesPolygon reports whether the open segment a->b passes
// through the convex polygon poly (vertices in loop order).
// The polygon is fan-triangulated from its first vertex.
func SegmentCrossesPolygon(a, b Vector, poly []Vector, doubleSided bool) bool {
	if len(poly) < 3 {
		return false
	}
	for i := 1; i+1 < len(poly); i++ {
		if segmentCrossesTriangle(a, b, poly[0], poly[i], poly[i+1], doubleSided) {
			return true
		}
	}
	return false
}

// segmentCrossesTriangle is Möller-Trumbore restricted to 0 < t < 1.
// Single-sided triangles only block segments arriving from the side their
// normal (v1-v0)x(v2-v0) points to.
func segmentCrossesTriangle(a, b, v0, v1, v2 Vector, doubleSided bool) bool {
	dir := r3.Sub(b, a)
	e1 := r3.Sub(v1, v0)
	e2 := r3.Sub(v2, v0)

	p := r3.Cross(dir, e2)
	det := r3.Dot(e1, p)
	if det > -epsilon && det < epsilon {
		return false
	}
	if !doubleSided && det < 0 {
		return false
	}
	inv := 1 / det

	s := r3.Sub(a, v0)
	u := r3.Dot(s, p) * inv
	if u < 0 || u > 1 {
		return false
	}

	q := r3.Cross(s, e1)
	v := r3.Dot(dir, q) * inv
	if v < 0 || u+v > 1 {
		return false
	}

	t := r3.Dot(e2, q) * inv
	return t > epsilon && t < 1-epsilon
}
