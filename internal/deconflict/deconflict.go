// Package deconflict drives the exhaustive spatio-temporal conflict scan
// between a primary trajectory and any number of pre-scheduled ones. The
// scan is pure and deterministic: identical inputs always yield the same
// ordered report, and no conflict is ever dropped by an early exit.
package deconflict

import (
	"fmt"
	"math"

	"skylane/internal/domain"
	"skylane/internal/geo"
	"skylane/internal/schedule"
)

// IntervalsOverlap reports whether two closed minute intervals intersect.
// Touching endpoints count as overlapping.
func IntervalsOverlap(s1, e1, s2, e2 int) bool {
	return s1 <= e2 && s2 <= e1
}

// SameSpaceTime reports whether two waypoints occupy the identical 3D
// location (within tolerance) at the identical minute.
func SameSpaceTime(p, q domain.TimedPoint) bool {
	if p.Minutes != q.Minutes {
		return false
	}
	return math.Abs(p.X-q.X) < geo.Tolerance &&
		math.Abs(p.Y-q.Y) < geo.Tolerance &&
		math.Abs(p.Z-q.Z) < geo.Tolerance
}

// FindConflicts compares the primary trajectory against every other
// trajectory in input order and returns all segment conflicts (buffer
// breach with overlapping occupancy windows) and waypoint collisions.
// Inputs are validated eagerly; nothing partial is ever reported.
func FindConflicts(primary domain.Trajectory, others []domain.Trajectory, buffer float64) (domain.Report, error) {
	if buffer < 0 || math.IsNaN(buffer) {
		return domain.Report{}, fmt.Errorf("%w: %v", domain.ErrNegativeBuffer, buffer)
	}
	if _, err := domain.NewTrajectory(primary.ID, primary.Points); err != nil {
		return domain.Report{}, fmt.Errorf("primary trajectory: %w", err)
	}
	for _, o := range others {
		if _, err := domain.NewTrajectory(o.ID, o.Points); err != nil {
			return domain.Report{}, fmt.Errorf("other trajectory: %w", err)
		}
	}

	var records []domain.ConflictRecord
	pSegs := primary.Segments()
	for _, other := range others {
		oSegs := other.Segments()
		for i, ps := range pSegs {
			ps1, pe1 := ps.Window()
			for j, os := range oSegs {
				os2, oe2 := os.Window()
				if !geo.SegmentsInProximity(ps, os, buffer) {
					continue
				}
				if !IntervalsOverlap(ps1, pe1, os2, oe2) {
					continue
				}
				ws, we := max(ps1, os2), min(pe1, oe2)
				records = append(records, domain.ConflictRecord{
					Kind:         domain.SegmentConflict,
					PrimaryIndex: i,
					OtherID:      other.ID,
					OtherIndex:   j,
					WindowStart:  ws,
					WindowEnd:    we,
					Description: fmt.Sprintf("primary segment %d (%s-%s) breaches the safety buffer against drone %s segment %d (%s-%s)",
						i, schedule.FormatMinutes(ps1), schedule.FormatMinutes(pe1),
						other.ID, j, schedule.FormatMinutes(os2), schedule.FormatMinutes(oe2)),
				})
			}
		}
		for i, pw := range primary.Points {
			for j, ow := range other.Points {
				if !SameSpaceTime(pw, ow) {
					continue
				}
				records = append(records, domain.ConflictRecord{
					Kind:         domain.WaypointCollision,
					PrimaryIndex: i,
					OtherID:      other.ID,
					OtherIndex:   j,
					WindowStart:  pw.Minutes,
					WindowEnd:    pw.Minutes,
					Description: fmt.Sprintf("primary waypoint %d and drone %s waypoint %d coincide at (%g,%g,%g) at %s",
						i, other.ID, j, pw.X, pw.Y, pw.Z, schedule.FormatMinutes(pw.Minutes)),
				})
			}
		}
	}
	return domain.Report{ConflictFound: len(records) > 0, Records: records}, nil
}
