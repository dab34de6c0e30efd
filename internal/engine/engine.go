package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"skylane/internal/config"
	"skylane/internal/deconflict"
	"skylane/internal/domain"
	"skylane/internal/events"
	"skylane/internal/mission"
	"skylane/internal/repo"
)

type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// ImportMission validates and stores a mission set document. The raw JSON is
// kept verbatim so later checks replay exactly what was imported.
func (e Engine) ImportMission(ctx context.Context, name string, payload []byte, actorID string) (domain.Mission, error) {
	set, err := mission.Parse(payload)
	if err != nil {
		return domain.Mission{}, err
	}
	m := domain.Mission{
		ID:        uuid.New().String(),
		Name:      name,
		Payload:   string(payload),
		CreatedAt: e.now().UTC().Format(time.RFC3339),
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Mission{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertMission(ctx, tx, m); err != nil {
		return domain.Mission{}, fmt.Errorf("insert mission: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "mission.imported", "mission", m.ID, actorID, events.EventPayload{
		"name":       m.Name,
		"primary_id": set.Primary.ID,
		"others":     len(set.Others),
	}); err != nil {
		return domain.Mission{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Mission{}, err
	}
	return m, nil
}

func (e Engine) GetMission(ctx context.Context, id string) (domain.Mission, error) {
	return e.Repo.GetMission(ctx, id)
}

func (e Engine) ListMissions(ctx context.Context) ([]domain.Mission, error) {
	return e.Repo.ListMissions(ctx)
}

func (e Engine) DeleteMission(ctx context.Context, id, actorID string) error {
	if err := e.Repo.DeleteMission(ctx, id); err != nil {
		return err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := e.Events.Append(ctx, tx, "mission.deleted", "mission", id, actorID, events.EventPayload{}); err != nil {
		return err
	}
	return tx.Commit()
}

// RunCheckOptions are parameters for a conflict check. Exactly one of
// MissionID and Payload must be set; Buffer nil means the configured default.
type RunCheckOptions struct {
	MissionID string
	Payload   []byte
	Buffer    *float64
	ActorID   string
}

// RunCheck performs a full conflict scan of the mission and persists the run
// with its records in one transaction.
func (e Engine) RunCheck(ctx context.Context, opts RunCheckOptions) (domain.CheckRun, error) {
	if e.Config == nil {
		return domain.CheckRun{}, errors.New("config not loaded")
	}
	if (opts.MissionID == "") == (len(opts.Payload) == 0) {
		return domain.CheckRun{}, errors.New("exactly one of mission id and payload required")
	}
	payload := opts.Payload
	var missionID *string
	if opts.MissionID != "" {
		m, err := e.Repo.GetMission(ctx, opts.MissionID)
		if err != nil {
			return domain.CheckRun{}, err
		}
		payload = []byte(m.Payload)
		missionID = &m.ID
	}
	set, err := mission.Parse(payload)
	if err != nil {
		return domain.CheckRun{}, err
	}
	buffer := e.Config.Deconfliction.SafetyBuffer
	if opts.Buffer != nil {
		buffer = *opts.Buffer
	}
	if math.IsNaN(buffer) || buffer < 0 {
		return domain.CheckRun{}, fmt.Errorf("%w: %v", domain.ErrNegativeBuffer, buffer)
	}
	report, err := deconflict.FindConflicts(set.Primary, set.Others, buffer)
	if err != nil {
		return domain.CheckRun{}, err
	}
	run := domain.CheckRun{
		ID:            uuid.New().String(),
		MissionID:     missionID,
		PrimaryID:     set.Primary.ID,
		Buffer:        buffer,
		ConflictFound: report.ConflictFound,
		CreatedAt:     e.now().UTC().Format(time.RFC3339),
		Records:       report.Records,
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.CheckRun{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertCheckRun(ctx, tx, run); err != nil {
		return domain.CheckRun{}, err
	}
	if err := e.Events.Append(ctx, tx, "check.completed", "check", run.ID, opts.ActorID, events.EventPayload{
		"primary_id":     run.PrimaryID,
		"buffer":         run.Buffer,
		"conflict_found": run.ConflictFound,
		"records":        len(run.Records),
	}); err != nil {
		return domain.CheckRun{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.CheckRun{}, err
	}
	return run, nil
}

func (e Engine) GetCheckRun(ctx context.Context, id string) (domain.CheckRun, error) {
	return e.Repo.GetCheckRun(ctx, id)
}

func (e Engine) ListCheckRuns(ctx context.Context, limit int) ([]domain.CheckRun, error) {
	return e.Repo.ListCheckRuns(ctx, limit)
}

// ResolveSet parses the mission set behind a stored run or mission, for
// rendering charts against the exact imported geometry.
func (e Engine) ResolveSet(ctx context.Context, missionID string) (mission.Set, error) {
	m, err := e.Repo.GetMission(ctx, missionID)
	if err != nil {
		return mission.Set{}, err
	}
	return mission.Parse([]byte(m.Payload))
}
