// Package geo is the 3D geometry kernel behind the conflict scan: point
// and segment distance primitives on gonum r3 vectors. All functions are
// pure and total for finite inputs; malformed coordinates are rejected
// upstream at trajectory construction.
package geo

import (
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r3"

	"skylane/internal/domain"
)

// Tolerance absorbs floating-point noise in distance comparisons and
// degenerate-segment detection.
const Tolerance = 1e-9

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Distance is the Euclidean distance between two points.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// DistancePointToSegment returns the minimum distance from p to the
// segment [a,b]. A degenerate segment (a == b within tolerance) reduces to
// point distance; otherwise p is projected onto the carrying line and the
// projection parameter clamped to the segment.
func DistancePointToSegment(p, a, b r3.Vec) float64 {
	ab := r3.Sub(b, a)
	lenSq := r3.Norm2(ab)
	if scalar.EqualWithinAbs(lenSq, 0, Tolerance) {
		return Distance(p, a)
	}
	t := clamp01(r3.Dot(r3.Sub(p, a), ab) / lenSq)
	closest := r3.Add(a, r3.Scale(t, ab))
	return Distance(p, closest)
}

// SegmentDistance returns the exact minimum distance between segments
// [p1,q1] and [p2,q2], minimizing squared distance over both clamped
// parameters. Unlike an endpoint-only check this also catches close passes
// whose nearest points lie strictly inside both segments, such as
// near-parallel skew paths meeting at their midpoints.
func SegmentDistance(p1, q1, p2, q2 r3.Vec) float64 {
	d1 := r3.Sub(q1, p1)
	d2 := r3.Sub(q2, p2)
	r := r3.Sub(p1, p2)
	a := r3.Norm2(d1)
	e := r3.Norm2(d2)
	f := r3.Dot(d2, r)

	var s, t float64
	switch {
	case a <= Tolerance && e <= Tolerance:
		// both segments degenerate to points
	case a <= Tolerance:
		t = clamp01(f / e)
	default:
		c := r3.Dot(d1, r)
		if e <= Tolerance {
			s = clamp01(-c / a)
		} else {
			b := r3.Dot(d1, d2)
			denom := a*e - b*b
			if denom > Tolerance {
				s = clamp01((b*f - c*e) / denom)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	c1 := r3.Add(p1, r3.Scale(s, d1))
	c2 := r3.Add(p2, r3.Scale(t, d2))
	return Distance(c1, c2)
}

// SegmentsInProximity reports whether two path segments come closer than
// the safety buffer.
func SegmentsInProximity(a, b domain.Segment, buffer float64) bool {
	d := SegmentDistance(a.Start.Vec(), a.End.Vec(), b.Start.Vec(), b.End.Vec())
	return d < buffer-Tolerance
}
