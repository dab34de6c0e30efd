// Package mission parses mission-set documents into trajectories ready
// for the conflict scan. The primary mission carries bare waypoints plus a
// global HHMM window and gets its timeline synthesized; other missions
// carry explicit per-waypoint HHMM timestamps.
package mission

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"skylane/internal/domain"
	"skylane/internal/schedule"
)

// Set is a fully materialized mission set: the synthesized primary
// trajectory and the pre-scheduled others.
type Set struct {
	Primary domain.Trajectory
	Others  []domain.Trajectory
}

type waypointDoc struct {
	X         *float64 `json:"x"`
	Y         *float64 `json:"y"`
	Z         *float64 `json:"z"`
	Timestamp *int     `json:"timestamp"`
}

type primaryDoc struct {
	DroneID   string        `json:"drone_id"`
	Waypoints []waypointDoc `json:"waypoints"`
	StartTime *int          `json:"start_time"`
	EndTime   *int          `json:"end_time"`
}

type simulatedDoc struct {
	DroneID   string        `json:"drone_id"`
	Waypoints []waypointDoc `json:"waypoints"`
}

type document struct {
	Primary   *primaryDoc    `json:"primary_mission"`
	Simulated []simulatedDoc `json:"simulated_missions"`
}

// Load reads and parses a mission-set file.
func Load(path string) (Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Set{}, fmt.Errorf("read mission file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Set from a raw mission-set JSON document. All validation
// failures use the shared error kinds so callers can classify them.
func Parse(data []byte) (Set, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Set{}, fmt.Errorf("parse mission document: %w", err)
	}
	if doc.Primary == nil {
		return Set{}, fmt.Errorf("%w: missing primary_mission", domain.ErrEmptyMission)
	}
	primary, err := parsePrimary(*doc.Primary)
	if err != nil {
		return Set{}, err
	}
	others := make([]domain.Trajectory, 0, len(doc.Simulated))
	for _, sim := range doc.Simulated {
		t, err := parseSimulated(sim)
		if err != nil {
			return Set{}, err
		}
		others = append(others, t)
	}
	return Set{Primary: primary, Others: others}, nil
}

func parsePrimary(doc primaryDoc) (domain.Trajectory, error) {
	if doc.DroneID == "" {
		return domain.Trajectory{}, fmt.Errorf("%w: primary mission missing drone_id", domain.ErrMalformedWaypoint)
	}
	if len(doc.Waypoints) == 0 {
		return domain.Trajectory{}, fmt.Errorf("%w: drone %s", domain.ErrEmptyMission, doc.DroneID)
	}
	if doc.StartTime == nil || doc.EndTime == nil {
		return domain.Trajectory{}, fmt.Errorf("%w: drone %s missing start_time or end_time", domain.ErrInvalidTimeFormat, doc.DroneID)
	}
	points := make([]r3.Vec, 0, len(doc.Waypoints))
	for i, wp := range doc.Waypoints {
		if wp.Timestamp != nil {
			return domain.Trajectory{}, fmt.Errorf("%w: drone %s waypoint %d carries a timestamp; the primary timeline is synthesized from the mission window",
				domain.ErrMalformedWaypoint, doc.DroneID, i)
		}
		v, err := coords(doc.DroneID, i, wp)
		if err != nil {
			return domain.Trajectory{}, err
		}
		points = append(points, v)
	}
	startMin, err := schedule.ParseHHMM(*doc.StartTime)
	if err != nil {
		return domain.Trajectory{}, fmt.Errorf("drone %s start_time: %w", doc.DroneID, err)
	}
	endMin, err := schedule.ParseHHMM(*doc.EndTime)
	if err != nil {
		return domain.Trajectory{}, fmt.Errorf("drone %s end_time: %w", doc.DroneID, err)
	}
	return schedule.Synthesize(doc.DroneID, points, startMin, endMin)
}

func parseSimulated(doc simulatedDoc) (domain.Trajectory, error) {
	if doc.DroneID == "" {
		return domain.Trajectory{}, fmt.Errorf("%w: simulated mission missing drone_id", domain.ErrMalformedWaypoint)
	}
	if len(doc.Waypoints) == 0 {
		return domain.Trajectory{}, fmt.Errorf("%w: drone %s", domain.ErrEmptyMission, doc.DroneID)
	}
	points := make([]domain.TimedPoint, 0, len(doc.Waypoints))
	for i, wp := range doc.Waypoints {
		v, err := coords(doc.DroneID, i, wp)
		if err != nil {
			return domain.Trajectory{}, err
		}
		if wp.Timestamp == nil {
			return domain.Trajectory{}, fmt.Errorf("%w: drone %s waypoint %d missing timestamp", domain.ErrMalformedWaypoint, doc.DroneID, i)
		}
		minutes, err := schedule.ParseHHMM(*wp.Timestamp)
		if err != nil {
			return domain.Trajectory{}, fmt.Errorf("drone %s waypoint %d: %w", doc.DroneID, i, err)
		}
		points = append(points, domain.TimedPoint{X: v.X, Y: v.Y, Z: v.Z, Minutes: minutes})
	}
	// Pre-scheduled waypoints may arrive unsorted in the document.
	sort.SliceStable(points, func(i, j int) bool { return points[i].Minutes < points[j].Minutes })
	return domain.NewTrajectory(doc.DroneID, points)
}

// coords validates one waypoint's spatial fields. Altitude defaults to
// zero for legacy 2D mission files.
func coords(droneID string, idx int, wp waypointDoc) (r3.Vec, error) {
	if wp.X == nil || wp.Y == nil {
		return r3.Vec{}, fmt.Errorf("%w: drone %s waypoint %d missing x or y", domain.ErrMalformedWaypoint, droneID, idx)
	}
	v := r3.Vec{X: *wp.X, Y: *wp.Y}
	if wp.Z != nil {
		v.Z = *wp.Z
	}
	return v, nil
}
