package domain_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"skylane/internal/domain"
)

func TestNewTrajectory(t *testing.T) {
	tr, err := domain.NewTrajectory("alpha", []domain.TimedPoint{
		{X: 0, Y: 0, Z: 10, Minutes: 480},
		{X: 50, Y: 0, Z: 10, Minutes: 485},
		{X: 100, Y: 0, Z: 10, Minutes: 490},
	})
	require.NoError(t, err)
	require.Equal(t, "alpha", tr.ID)
	require.Len(t, tr.Points, 3)

	start, end := tr.Window()
	require.Equal(t, 480, start)
	require.Equal(t, 490, end)

	segs := tr.Segments()
	require.Len(t, segs, 2)
	require.Equal(t, 485, segs[1].Start.Minutes)
}

func TestNewTrajectoryRejectsEmpty(t *testing.T) {
	_, err := domain.NewTrajectory("alpha", nil)
	require.ErrorIs(t, err, domain.ErrEmptyMission)
}

func TestNewTrajectoryRejectsUnordered(t *testing.T) {
	_, err := domain.NewTrajectory("alpha", []domain.TimedPoint{
		{Minutes: 490},
		{X: 10, Minutes: 480},
	})
	require.ErrorIs(t, err, domain.ErrUnorderedSegment)
}

func TestNewTrajectoryRejectsBadWaypoints(t *testing.T) {
	cases := []struct {
		name string
		p    domain.TimedPoint
	}{
		{"nan coordinate", domain.TimedPoint{X: math.NaN(), Minutes: 480}},
		{"infinite coordinate", domain.TimedPoint{Z: math.Inf(-1), Minutes: 480}},
		{"negative minute", domain.TimedPoint{Minutes: -1}},
		{"minute past midnight", domain.TimedPoint{Minutes: domain.MinutesPerDay}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.NewTrajectory("alpha", []domain.TimedPoint{tc.p})
			require.ErrorIs(t, err, domain.ErrMalformedWaypoint)
		})
	}
}

func TestSingleWaypointTrajectory(t *testing.T) {
	tr, err := domain.NewTrajectory("hover", []domain.TimedPoint{{X: 1, Y: 2, Z: 3, Minutes: 600}})
	require.NoError(t, err)
	require.Empty(t, tr.Segments())
	start, end := tr.Window()
	require.Equal(t, 600, start)
	require.Equal(t, 600, end)
}
