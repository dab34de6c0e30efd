package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/spatial/r3"

	"skylane/internal/domain"
	"skylane/internal/geo"
)

func TestDistancePointToSegment(t *testing.T) {
	t.Run("degenerate segment reduces to point distance", func(t *testing.T) {
		p := r3.Vec{X: 3, Y: 4}
		a := r3.Vec{}
		assert.InDelta(t, 5.0, geo.DistancePointToSegment(p, a, a), geo.Tolerance)
	})

	t.Run("zero when point lies on the segment", func(t *testing.T) {
		a := r3.Vec{X: 0, Y: 0, Z: 0}
		b := r3.Vec{X: 10, Y: 0, Z: 0}
		p := r3.Vec{X: 4, Y: 0, Z: 0}
		assert.InDelta(t, 0.0, geo.DistancePointToSegment(p, a, b), geo.Tolerance)
	})

	t.Run("clamps beyond endpoints", func(t *testing.T) {
		a := r3.Vec{X: 0}
		b := r3.Vec{X: 10}
		p := r3.Vec{X: 14, Y: 3}
		assert.InDelta(t, 5.0, geo.DistancePointToSegment(p, a, b), geo.Tolerance)
	})

	t.Run("perpendicular interior projection", func(t *testing.T) {
		a := r3.Vec{X: 0}
		b := r3.Vec{X: 10}
		p := r3.Vec{X: 5, Y: 7}
		assert.InDelta(t, 7.0, geo.DistancePointToSegment(p, a, b), geo.Tolerance)
	})

	t.Run("never negative", func(t *testing.T) {
		pts := []r3.Vec{{X: -3, Y: 9, Z: 1}, {X: 0.5}, {Y: -0.25, Z: 8}}
		for _, p := range pts {
			assert.GreaterOrEqual(t, geo.DistancePointToSegment(p, r3.Vec{X: -1}, r3.Vec{X: 2, Z: 2}), 0.0)
		}
	})
}

func TestSegmentDistance(t *testing.T) {
	t.Run("crossing segments touch", func(t *testing.T) {
		d := geo.SegmentDistance(
			r3.Vec{X: 0, Y: 50}, r3.Vec{X: 100, Y: 50},
			r3.Vec{X: 50, Y: 0}, r3.Vec{X: 50, Y: 100},
		)
		assert.InDelta(t, 0.0, d, geo.Tolerance)
	})

	t.Run("parallel separated", func(t *testing.T) {
		d := geo.SegmentDistance(
			r3.Vec{X: 0, Y: 0, Z: 10}, r3.Vec{X: 200, Y: 0, Z: 10},
			r3.Vec{X: 0, Y: 8, Z: 12}, r3.Vec{X: 200, Y: 8, Z: 12},
		)
		assert.InDelta(t, 8.246211251235321, d, 1e-9)
	})

	t.Run("interior close pass missed by endpoint checks", func(t *testing.T) {
		// Skew segments whose closest points are both strictly interior:
		// every endpoint is far away, but the midpoints pass within 2.
		d := geo.SegmentDistance(
			r3.Vec{X: -100, Y: 0, Z: 0}, r3.Vec{X: 100, Y: 0, Z: 0},
			r3.Vec{X: 0, Y: -100, Z: 2}, r3.Vec{X: 0, Y: 100, Z: 2},
		)
		assert.InDelta(t, 2.0, d, geo.Tolerance)
	})

	t.Run("both segments degenerate", func(t *testing.T) {
		a := r3.Vec{X: 1, Y: 2, Z: 3}
		b := r3.Vec{X: 1, Y: 2, Z: 9}
		assert.InDelta(t, 6.0, geo.SegmentDistance(a, a, b, b), geo.Tolerance)
	})

	t.Run("one segment degenerate", func(t *testing.T) {
		p := r3.Vec{X: 5, Y: 3}
		d := geo.SegmentDistance(p, p, r3.Vec{X: 0}, r3.Vec{X: 10})
		assert.InDelta(t, 3.0, d, geo.Tolerance)
	})

	t.Run("symmetric in argument order", func(t *testing.T) {
		p1, q1 := r3.Vec{X: 1, Y: 1, Z: 4}, r3.Vec{X: 9, Y: 2, Z: 4}
		p2, q2 := r3.Vec{X: 3, Y: 7, Z: 1}, r3.Vec{X: 4, Y: -2, Z: 6}
		assert.InDelta(t, geo.SegmentDistance(p1, q1, p2, q2), geo.SegmentDistance(p2, q2, p1, q1), geo.Tolerance)
	})
}

func TestSegmentsInProximity(t *testing.T) {
	seg := func(x1, y1, z1, x2, y2, z2 float64) domain.Segment {
		return domain.Segment{
			Start: domain.TimedPoint{X: x1, Y: y1, Z: z1},
			End:   domain.TimedPoint{X: x2, Y: y2, Z: z2},
		}
	}
	a := seg(0, 0, 10, 200, 0, 10)
	b := seg(0, 8, 12, 200, 8, 12)
	assert.True(t, geo.SegmentsInProximity(a, b, 10))
	assert.False(t, geo.SegmentsInProximity(a, b, 5))
	// distance exactly equal to the buffer is not a breach
	c := seg(0, 10, 10, 200, 10, 10)
	assert.False(t, geo.SegmentsInProximity(a, c, 10))
}
