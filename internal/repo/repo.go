package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"skylane/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var ErrNotFound = errors.New("not found")

// --- missions ---

func (r Repo) InsertMission(ctx context.Context, tx *sql.Tx, m domain.Mission) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO missions(id,name,payload_json,created_at) VALUES (?,?,?,?)`,
		m.ID, nullable(m.Name), m.Payload, m.CreatedAt)
	return err
}

func (r Repo) GetMission(ctx context.Context, id string) (domain.Mission, error) {
	var m domain.Mission
	var name sql.NullString
	err := r.DB.QueryRowContext(ctx, `SELECT id,name,payload_json,created_at FROM missions WHERE id=?`, id).
		Scan(&m.ID, &name, &m.Payload, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if name.Valid {
		m.Name = name.String
	}
	return m, err
}

func (r Repo) ListMissions(ctx context.Context) ([]domain.Mission, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,COALESCE(name,'') AS name,payload_json,created_at FROM missions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Mission
	for rows.Next() {
		var m domain.Mission
		if err := rows.Scan(&m.ID, &m.Name, &m.Payload, &m.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r Repo) DeleteMission(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM missions WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- check runs ---

func (r Repo) InsertCheckRun(ctx context.Context, tx *sql.Tx, run domain.CheckRun) error {
	var missionID any
	if run.MissionID != nil {
		missionID = *run.MissionID
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO check_runs(id,mission_id,primary_id,buffer,conflict_found,created_at) VALUES (?,?,?,?,?,?)`,
		run.ID, missionID, run.PrimaryID, run.Buffer, boolInt(run.ConflictFound), run.CreatedAt); err != nil {
		return fmt.Errorf("insert check run: %w", err)
	}
	for seq, rec := range run.Records {
		if _, err := tx.ExecContext(ctx, `INSERT INTO conflicts(run_id,seq,kind,primary_idx,other_id,other_idx,window_start,window_end,description) VALUES (?,?,?,?,?,?,?,?,?)`,
			run.ID, seq, string(rec.Kind), rec.PrimaryIndex, rec.OtherID, rec.OtherIndex, rec.WindowStart, rec.WindowEnd, rec.Description); err != nil {
			return fmt.Errorf("insert conflict %d: %w", seq, err)
		}
	}
	return nil
}

func (r Repo) GetCheckRun(ctx context.Context, id string) (domain.CheckRun, error) {
	var run domain.CheckRun
	var missionID sql.NullString
	var found int
	err := r.DB.QueryRowContext(ctx, `SELECT id,mission_id,primary_id,buffer,conflict_found,created_at FROM check_runs WHERE id=?`, id).
		Scan(&run.ID, &missionID, &run.PrimaryID, &run.Buffer, &found, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	if err != nil {
		return run, err
	}
	if missionID.Valid {
		run.MissionID = &missionID.String
	}
	run.ConflictFound = found != 0
	run.Records, err = r.listConflicts(ctx, id)
	return run, err
}

func (r Repo) listConflicts(ctx context.Context, runID string) ([]domain.ConflictRecord, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT kind,primary_idx,other_id,other_idx,window_start,window_end,description FROM conflicts WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var recs []domain.ConflictRecord
	for rows.Next() {
		var rec domain.ConflictRecord
		var kind string
		if err := rows.Scan(&kind, &rec.PrimaryIndex, &rec.OtherID, &rec.OtherIndex, &rec.WindowStart, &rec.WindowEnd, &rec.Description); err != nil {
			return nil, err
		}
		rec.Kind = domain.ConflictKind(kind)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r Repo) ListCheckRuns(ctx context.Context, limit int) ([]domain.CheckRun, error) {
	query := `SELECT id,mission_id,primary_id,buffer,conflict_found,created_at FROM check_runs ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.CheckRun
	for rows.Next() {
		var run domain.CheckRun
		var missionID sql.NullString
		var found int
		if err := rows.Scan(&run.ID, &missionID, &run.PrimaryID, &run.Buffer, &found, &run.CreatedAt); err != nil {
			return nil, err
		}
		if missionID.Valid {
			run.MissionID = &missionID.String
		}
		run.ConflictFound = found != 0
		res = append(res, run)
	}
	return res, rows.Err()
}

// --- events ---

func (r Repo) LatestEvents(ctx context.Context, n int, evtType, entityKind, entityID string) ([]domain.Event, error) {
	query := `SELECT id,ts,type,entity_kind,COALESCE(entity_id,'') AS entity_id,actor_id,payload_json FROM events`
	var clauses []string
	var args []any
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	if entityKind != "" {
		clauses = append(clauses, "entity_kind=?")
		args = append(args, entityKind)
	}
	if entityID != "" {
		clauses = append(clauses, "entity_id=?")
		args = append(args, entityID)
	}
	for i, c := range clauses {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	query += ` ORDER BY id DESC`
	if n > 0 {
		query += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// EventsAfter returns up to limit events with id greater than cursor, in
// ascending id order. Used by the webhook dispatcher.
func (r Repo) EventsAfter(ctx context.Context, limit int, cursor int64) ([]domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id,ts,type,entity_kind,COALESCE(entity_id,'') AS entity_id,actor_id,payload_json FROM events WHERE id>? ORDER BY id ASC LIMIT ?`,
		cursor, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.EntityKind, &e.EntityID, &e.ActorID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// LatestEventID returns the id of the newest event, or 0 when the log is
// empty.
func (r Repo) LatestEventID(ctx context.Context) (int64, error) {
	var id sql.NullInt64
	if err := r.DB.QueryRowContext(ctx, `SELECT MAX(id) FROM events`).Scan(&id); err != nil {
		return 0, err
	}
	if !id.Valid {
		return 0, nil
	}
	return id.Int64, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
