package deconflict_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"skylane/internal/deconflict"
	"skylane/internal/domain"
	"skylane/internal/schedule"
)

func TestIntervalsOverlap(t *testing.T) {
	// touching boundary counts as overlap
	assert.True(t, deconflict.IntervalsOverlap(0, 10, 10, 20))
	assert.False(t, deconflict.IntervalsOverlap(0, 10, 11, 20))
	assert.True(t, deconflict.IntervalsOverlap(5, 15, 0, 30))
	assert.True(t, deconflict.IntervalsOverlap(0, 30, 5, 15))
	assert.False(t, deconflict.IntervalsOverlap(20, 30, 0, 10))
}

func TestSameSpaceTime(t *testing.T) {
	p := domain.TimedPoint{X: 100, Y: 0, Z: 0, Minutes: 485}
	q := domain.TimedPoint{X: 100, Y: 0, Z: 0, Minutes: 485}
	assert.True(t, deconflict.SameSpaceTime(p, q))
	assert.Equal(t, deconflict.SameSpaceTime(p, q), deconflict.SameSpaceTime(q, p))

	minuteOff := q
	minuteOff.Minutes = 486
	assert.False(t, deconflict.SameSpaceTime(p, minuteOff))

	nudged := q
	nudged.X += 1e-6
	assert.False(t, deconflict.SameSpaceTime(p, nudged))
	assert.Equal(t, deconflict.SameSpaceTime(p, nudged), deconflict.SameSpaceTime(nudged, p))
}

func synthesized(t *testing.T, id string, points []r3.Vec, startHHMM, endHHMM int) domain.Trajectory {
	t.Helper()
	start, err := schedule.ParseHHMM(startHHMM)
	require.NoError(t, err)
	end, err := schedule.ParseHHMM(endHHMM)
	require.NoError(t, err)
	traj, err := schedule.Synthesize(id, points, start, end)
	require.NoError(t, err)
	return traj
}

func scheduled(t *testing.T, id string, points []domain.TimedPoint) domain.Trajectory {
	t.Helper()
	traj, err := domain.NewTrajectory(id, points)
	require.NoError(t, err)
	return traj
}

func at(t *testing.T, x, y, z float64, hhmm int) domain.TimedPoint {
	t.Helper()
	m, err := schedule.ParseHHMM(hhmm)
	require.NoError(t, err)
	return domain.TimedPoint{X: x, Y: y, Z: z, Minutes: m}
}

func TestFindConflictsClearWhenSeparated(t *testing.T) {
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0, Y: 0, Z: 20}, {X: 100, Y: 0, Z: 20}}, 1400, 1402)
	other := scheduled(t, "sim-1", []domain.TimedPoint{
		at(t, 0, 100, 30, 1400),
		at(t, 100, 100, 30, 1402),
	})
	report, err := deconflict.FindConflicts(primary, []domain.Trajectory{other}, 5)
	require.NoError(t, err)
	assert.False(t, report.ConflictFound)
	assert.Empty(t, report.Records)
}

func TestFindConflictsBufferBreach(t *testing.T) {
	// parallel paths 8 apart laterally, 2 apart vertically: 3D separation
	// sqrt(68) ~ 8.25 under a buffer of 10, with identical windows.
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0, Y: 0, Z: 10}, {X: 200, Y: 0, Z: 10}}, 1100, 1102)
	other := scheduled(t, "sim-1", []domain.TimedPoint{
		at(t, 0, 8, 12, 1100),
		at(t, 200, 8, 12, 1102),
	})
	report, err := deconflict.FindConflicts(primary, []domain.Trajectory{other}, 10)
	require.NoError(t, err)
	require.True(t, report.ConflictFound)
	require.Len(t, report.Records, 1)
	rec := report.Records[0]
	assert.Equal(t, domain.SegmentConflict, rec.Kind)
	assert.Equal(t, 0, rec.PrimaryIndex)
	assert.Equal(t, "sim-1", rec.OtherID)
	assert.Equal(t, 0, rec.OtherIndex)
	assert.Equal(t, 660, rec.WindowStart)
	assert.Equal(t, 662, rec.WindowEnd)
}

func TestFindConflictsWaypointCollision(t *testing.T) {
	// Two equal 100-unit legs over 08:00-08:10 put the middle waypoint at
	// minute 485; the simulated drone sits there at exactly 08:05.
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}, 800, 810)
	require.Equal(t, 485, primary.Points[1].Minutes)
	other := scheduled(t, "sim-1", []domain.TimedPoint{at(t, 100, 0, 0, 805)})

	report, err := deconflict.FindConflicts(primary, []domain.Trajectory{other}, 0)
	require.NoError(t, err)
	require.True(t, report.ConflictFound)
	require.Len(t, report.Records, 1)
	rec := report.Records[0]
	assert.Equal(t, domain.WaypointCollision, rec.Kind)
	assert.Equal(t, 1, rec.PrimaryIndex)
	assert.Equal(t, 0, rec.OtherIndex)
	assert.Equal(t, 485, rec.WindowStart)
	assert.Equal(t, 485, rec.WindowEnd)
}

func TestFindConflictsCrossingWithoutTemporalOverlap(t *testing.T) {
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0, Y: 50, Z: 15}, {X: 100, Y: 50, Z: 15}}, 900, 902)
	other := scheduled(t, "sim-1", []domain.TimedPoint{
		at(t, 50, 0, 15, 930),
		at(t, 50, 100, 15, 932),
	})
	report, err := deconflict.FindConflicts(primary, []domain.Trajectory{other}, 5)
	require.NoError(t, err)
	assert.False(t, report.ConflictFound)
}

func TestFindConflictsDeterministicOrdering(t *testing.T) {
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0, Y: 0, Z: 10}, {X: 200, Y: 0, Z: 10}}, 1000, 1010)
	others := []domain.Trajectory{
		scheduled(t, "sim-b", []domain.TimedPoint{at(t, 0, 4, 10, 1000), at(t, 200, 4, 10, 1010)}),
		scheduled(t, "sim-a", []domain.TimedPoint{at(t, 0, 2, 10, 1000), at(t, 200, 2, 10, 1010)}),
	}
	first, err := deconflict.FindConflicts(primary, others, 6)
	require.NoError(t, err)
	second, err := deconflict.FindConflicts(primary, others, 6)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	// input order of the others dictates record order
	require.Len(t, first.Records, 2)
	assert.Equal(t, "sim-b", first.Records[0].OtherID)
	assert.Equal(t, "sim-a", first.Records[1].OtherID)
}

func TestFindConflictsBufferMonotonicity(t *testing.T) {
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0, Y: 0, Z: 10}, {X: 200, Y: 0, Z: 10}}, 1000, 1010)
	others := []domain.Trajectory{
		scheduled(t, "sim-near", []domain.TimedPoint{at(t, 0, 3, 10, 1000), at(t, 200, 3, 10, 1010)}),
		scheduled(t, "sim-far", []domain.TimedPoint{at(t, 0, 40, 10, 1000), at(t, 200, 40, 10, 1010)}),
	}
	prev := 0
	for _, buffer := range []float64{1, 5, 10, 50} {
		report, err := deconflict.FindConflicts(primary, others, buffer)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(report.Records), prev, "buffer %g", buffer)
		prev = len(report.Records)
	}
}

func TestFindConflictsRejectsBadInput(t *testing.T) {
	primary := synthesized(t, "alpha", []r3.Vec{{X: 0}, {X: 10}}, 1000, 1010)

	_, err := deconflict.FindConflicts(primary, nil, -1)
	assert.ErrorIs(t, err, domain.ErrNegativeBuffer)
	_, err = deconflict.FindConflicts(primary, nil, math.NaN())
	assert.ErrorIs(t, err, domain.ErrNegativeBuffer)

	unordered := domain.Trajectory{ID: "sim-1", Points: []domain.TimedPoint{
		{X: 0, Minutes: 500},
		{X: 1, Minutes: 400},
	}}
	_, err = deconflict.FindConflicts(primary, []domain.Trajectory{unordered}, 5)
	assert.ErrorIs(t, err, domain.ErrUnorderedSegment)

	empty := domain.Trajectory{ID: "sim-2"}
	_, err = deconflict.FindConflicts(primary, []domain.Trajectory{empty}, 5)
	assert.ErrorIs(t, err, domain.ErrEmptyMission)
}
