package domain

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Error kinds shared by the loader, synthesizer and orchestrator. They are
// always wrapped with context via %w so callers can match with errors.Is.
var (
	ErrInvalidTimeFormat    = errors.New("invalid HHMM time")
	ErrInvalidMissionWindow = errors.New("mission start must precede end")
	ErrEmptyMission         = errors.New("mission has no waypoints")
	ErrMalformedWaypoint    = errors.New("malformed waypoint")
	ErrUnorderedSegment     = errors.New("waypoints out of chronological order")
	ErrNegativeBuffer       = errors.New("safety buffer must be non-negative")
)

// MinutesPerDay bounds a waypoint timestamp (minutes since midnight).
const MinutesPerDay = 1440

// TimedPoint is a 3D position occupied at a given minute of the day.
type TimedPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	Minutes int     `json:"minutes"`
}

// Vec returns the spatial component as a gonum vector.
func (p TimedPoint) Vec() r3.Vec {
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}
}

// Finite reports whether all three coordinates are finite numbers.
func (p TimedPoint) Finite() bool {
	for _, c := range []float64{p.X, p.Y, p.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Trajectory is an ordered, chronologically non-decreasing sequence of
// timed waypoints flown by one drone. Construct via NewTrajectory; the
// value is never mutated afterwards.
type Trajectory struct {
	ID     string       `json:"drone_id"`
	Points []TimedPoint `json:"points"`
}

// NewTrajectory validates id, point count, coordinate finiteness, timestamp
// bounds and chronological order. Out-of-order points are rejected rather
// than silently producing inverted time intervals.
func NewTrajectory(id string, points []TimedPoint) (Trajectory, error) {
	if id == "" {
		return Trajectory{}, fmt.Errorf("%w: empty drone id", ErrMalformedWaypoint)
	}
	if len(points) == 0 {
		return Trajectory{}, fmt.Errorf("%w: drone %s", ErrEmptyMission, id)
	}
	for i, p := range points {
		if !p.Finite() {
			return Trajectory{}, fmt.Errorf("%w: drone %s waypoint %d has non-finite coordinate", ErrMalformedWaypoint, id, i)
		}
		if p.Minutes < 0 || p.Minutes >= MinutesPerDay {
			return Trajectory{}, fmt.Errorf("%w: drone %s waypoint %d minute %d outside [0,%d)", ErrMalformedWaypoint, id, i, p.Minutes, MinutesPerDay)
		}
		if i > 0 && p.Minutes < points[i-1].Minutes {
			return Trajectory{}, fmt.Errorf("%w: drone %s waypoint %d (minute %d) before waypoint %d (minute %d)",
				ErrUnorderedSegment, id, i, p.Minutes, i-1, points[i-1].Minutes)
		}
	}
	pts := make([]TimedPoint, len(points))
	copy(pts, points)
	return Trajectory{ID: id, Points: pts}, nil
}

// Segment is a non-owning view of two consecutive waypoints.
type Segment struct {
	Start TimedPoint
	End   TimedPoint
}

// Window returns the occupancy interval of the segment in minutes.
// Start <= End holds by trajectory construction.
func (s Segment) Window() (int, int) {
	return s.Start.Minutes, s.End.Minutes
}

// Window returns the first and last waypoint minute of the trajectory.
func (t Trajectory) Window() (int, int) {
	return t.Points[0].Minutes, t.Points[len(t.Points)-1].Minutes
}

// Segments derives the n-1 adjacent-pair segments of the trajectory.
// A single-point (stationary) mission yields none.
func (t Trajectory) Segments() []Segment {
	if len(t.Points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(t.Points)-1)
	for i := 0; i < len(t.Points)-1; i++ {
		segs = append(segs, Segment{Start: t.Points[i], End: t.Points[i+1]})
	}
	return segs
}

// ConflictKind discriminates the two conflict record variants.
type ConflictKind string

const (
	SegmentConflict   ConflictKind = "segment"
	WaypointCollision ConflictKind = "waypoint"
)

// ConflictRecord describes one detected conflict between the primary
// trajectory and one other trajectory. Records are produced fresh per scan
// and owned by the caller.
type ConflictRecord struct {
	Kind         ConflictKind `json:"kind" enum:"segment,waypoint"`
	PrimaryIndex int          `json:"primary_index"`
	OtherID      string       `json:"other_id"`
	OtherIndex   int          `json:"other_index"`
	WindowStart  int          `json:"window_start"`
	WindowEnd    int          `json:"window_end"`
	Description  string       `json:"description"`
}

// Report is the outcome of one full conflict scan.
type Report struct {
	ConflictFound bool             `json:"conflict_found"`
	Records       []ConflictRecord `json:"records,omitempty"`
}

// Mission is a stored mission set document (raw JSON payload as imported).
type Mission struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Payload   string `json:"payload_json"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// CheckRun is a persisted conflict check and its verdict.
type CheckRun struct {
	ID            string           `json:"id"`
	MissionID     *string          `json:"mission_id,omitempty"`
	PrimaryID     string           `json:"primary_id"`
	Buffer        float64          `json:"buffer"`
	ConflictFound bool             `json:"conflict_found"`
	CreatedAt     string           `json:"created_at" format:"date-time"`
	Records       []ConflictRecord `json:"records,omitempty"`
}

// Event is one entry of the append-only workspace event log.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload_json"`
}
