// Package geom provides the small set of 3D geometry primitives used by the
// track reconstruction: squared distances, projections of points onto
// segments, and a weighted least-squares crossing-point solver for bundles of
// 3D lines.
package geom

import "gonum.org/v1/gonum/spatial/r3"

// Dist2 returns the squared Euclidean distance between two points.
func Dist2(a, b r3.Vec) float64 {
	return r3.Norm2(r3.Sub(a, b))
}

// SegmentProjFraction returns the fraction f such that the orthogonal
// projection of p onto the line through s0 and s1 is s0 + f*(s1-s0).
// Values in [0, 1] mean the projection falls between the endpoints; values
// outside that range mean it falls beyond s0 (f < 0) or beyond s1 (f > 1).
// A degenerate segment (s0 == s1) yields 0.
func SegmentProjFraction(p, s0, s1 r3.Vec) float64 {
	v := r3.Sub(s1, s0)
	l2 := r3.Norm2(v)
	if l2 <= 0 {
		return 0
	}
	return r3.Dot(r3.Sub(p, s0), v) / l2
}

// ProjectOnSegment returns the orthogonal projection of p onto the line
// through s0 and s1. The result is not clamped to the segment extent; use
// SegmentProjFraction to test whether it lies inside.
func ProjectOnSegment(p, s0, s1 r3.Vec) r3.Vec {
	f := SegmentProjFraction(p, s0, s1)
	return r3.Add(s0, r3.Scale(f, r3.Sub(s1, s0)))
}

// PointSegDist2 returns the squared distance from p to the segment [s0, s1],
// clamping the projection to the segment endpoints.
func PointSegDist2(p, s0, s1 r3.Vec) float64 {
	f := SegmentProjFraction(p, s0, s1)
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	q := r3.Add(s0, r3.Scale(f, r3.Sub(s1, s0)))
	return Dist2(p, q)
}

// PointLineDist2 returns the squared distance from p to the infinite line
// through s0 and s1. A degenerate segment yields the distance to s0.
func PointLineDist2(p, s0, s1 r3.Vec) float64 {
	return Dist2(p, ProjectOnSegment(p, s0, s1))
}
