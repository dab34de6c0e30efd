// Package schedule converts mission-file HHMM clock values to minutes
// since midnight and synthesizes per-waypoint timestamps for a mission
// that is only given a global start/end window.
package schedule

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"skylane/internal/domain"
	"skylane/internal/geo"
)

// ParseHHMM converts an integer clock value (HHMM, e.g. 1435 for 14:35) to
// minutes since midnight. Values outside [0,2359] or with a minutes
// component above 59 fail with ErrInvalidTimeFormat.
func ParseHHMM(v int) (int, error) {
	if v < 0 || v > 2359 {
		return 0, fmt.Errorf("%w: %d not in [0,2359]", domain.ErrInvalidTimeFormat, v)
	}
	hour, minute := v/100, v%100
	if minute > 59 {
		return 0, fmt.Errorf("%w: %d has minutes component %d", domain.ErrInvalidTimeFormat, v, minute)
	}
	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as HH:MM for reports.
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Synthesize assigns a timestamp to every raw waypoint of the primary
// mission, assuming constant speed proportional to 3D arc length between
// startMin and endMin. The first point departs at startMin; the last point
// is pinned to endMin exactly so that per-segment rounding cannot drift
// the arrival time. The result is chronologically ordered by construction.
func Synthesize(id string, points []r3.Vec, startMin, endMin int) (domain.Trajectory, error) {
	if len(points) == 0 {
		return domain.Trajectory{}, fmt.Errorf("%w: drone %s", domain.ErrEmptyMission, id)
	}
	if startMin < 0 || endMin >= domain.MinutesPerDay || startMin >= endMin {
		return domain.Trajectory{}, fmt.Errorf("%w: drone %s window [%d,%d]", domain.ErrInvalidMissionWindow, id, startMin, endMin)
	}
	for i, p := range points {
		if !finite(p) {
			return domain.Trajectory{}, fmt.Errorf("%w: drone %s waypoint %d", domain.ErrMalformedWaypoint, id, i)
		}
	}

	timed := make([]domain.TimedPoint, 0, len(points))
	at := func(p r3.Vec, minutes int) domain.TimedPoint {
		return domain.TimedPoint{X: p.X, Y: p.Y, Z: p.Z, Minutes: minutes}
	}
	if len(points) == 1 {
		timed = append(timed, at(points[0], startMin))
		return domain.NewTrajectory(id, timed)
	}

	total := 0.0
	for i := 0; i < len(points)-1; i++ {
		total += geo.Distance(points[i], points[i+1])
	}
	if total < geo.Tolerance {
		// Stationary multi-point path: everything happens at departure.
		for _, p := range points {
			timed = append(timed, at(p, startMin))
		}
		return domain.NewTrajectory(id, timed)
	}

	speed := total / float64(endMin-startMin)
	elapsed := float64(startMin)
	timed = append(timed, at(points[0], startMin))
	for i := 1; i < len(points); i++ {
		elapsed += geo.Distance(points[i-1], points[i]) / speed
		minutes := int(math.Round(elapsed))
		if minutes > endMin {
			minutes = endMin
		}
		timed = append(timed, at(points[i], minutes))
	}
	timed[len(timed)-1].Minutes = endMin
	return domain.NewTrajectory(id, timed)
}

func finite(p r3.Vec) bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
