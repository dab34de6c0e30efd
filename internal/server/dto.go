package server

import (
	"skylane/internal/domain"
)

// Request payloads

type ImportMissionRequest struct {
	Name    string         `json:"name,omitempty"`
	Mission map[string]any `json:"mission"`
}

type RunCheckRequest struct {
	MissionID *string        `json:"mission_id,omitempty"`
	Mission   map[string]any `json:"mission,omitempty"`
	Buffer    *float64       `json:"buffer,omitempty" minimum:"0"`
}

// Response payloads

type MissionResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type ConflictRecordResponse struct {
	Kind         string `json:"kind" enum:"segment,waypoint"`
	PrimaryIndex int    `json:"primary_index"`
	OtherID      string `json:"other_id"`
	OtherIndex   int    `json:"other_index"`
	WindowStart  int    `json:"window_start"`
	WindowEnd    int    `json:"window_end"`
	Description  string `json:"description"`
}

type CheckRunResponse struct {
	ID            string                   `json:"id"`
	MissionID     *string                  `json:"mission_id,omitempty"`
	PrimaryID     string                   `json:"primary_id"`
	Buffer        float64                  `json:"buffer"`
	ConflictFound bool                     `json:"conflict_found"`
	CreatedAt     string                   `json:"created_at" format:"date-time"`
	Records       []ConflictRecordResponse `json:"records,omitempty"`
}

type EventResponse struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload"`
}

func missionResponse(m domain.Mission) MissionResponse {
	return MissionResponse{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

func mapMissions(in []domain.Mission) []MissionResponse {
	out := make([]MissionResponse, 0, len(in))
	for _, m := range in {
		out = append(out, missionResponse(m))
	}
	return out
}

func checkRunResponse(run domain.CheckRun) CheckRunResponse {
	return CheckRunResponse{
		ID:            run.ID,
		MissionID:     run.MissionID,
		PrimaryID:     run.PrimaryID,
		Buffer:        run.Buffer,
		ConflictFound: run.ConflictFound,
		CreatedAt:     run.CreatedAt,
		Records:       mapRecords(run.Records),
	}
}

func mapCheckRuns(in []domain.CheckRun) []CheckRunResponse {
	out := make([]CheckRunResponse, 0, len(in))
	for _, run := range in {
		out = append(out, checkRunResponse(run))
	}
	return out
}

func mapRecords(in []domain.ConflictRecord) []ConflictRecordResponse {
	out := make([]ConflictRecordResponse, 0, len(in))
	for _, rec := range in {
		out = append(out, ConflictRecordResponse{
			Kind:         string(rec.Kind),
			PrimaryIndex: rec.PrimaryIndex,
			OtherID:      rec.OtherID,
			OtherIndex:   rec.OtherIndex,
			WindowStart:  rec.WindowStart,
			WindowEnd:    rec.WindowEnd,
			Description:  rec.Description,
		})
	}
	return out
}

func mapEvents(in []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(in))
	for _, e := range in {
		out = append(out, EventResponse{
			ID:         e.ID,
			TS:         e.TS,
			Type:       e.Type,
			EntityKind: e.EntityKind,
			EntityID:   e.EntityID,
			ActorID:    e.ActorID,
			Payload:    e.Payload,
		})
	}
	return out
}
