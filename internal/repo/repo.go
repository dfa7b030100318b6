package repo

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"humanping/internal/domain"
)

type Repo struct {
	DB *sql.DB
}

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict reports that an insert lost against the store's uniqueness
	// constraint. Callers distinguish it from other store failures; the
	// assignment engine recovers from it by re-reading.
	ErrConflict = errors.New("conflict")
)

const missionColumns = `id,user_id,title,description,category,difficulty,location,date,completed,created_at`

func scanMission(scan func(dest ...any) error) (domain.Mission, error) {
	var m domain.Mission
	var completed int
	err := scan(&m.ID, &m.UserID, &m.Title, &m.Description, &m.Category, &m.Difficulty, &m.Location, &m.Date, &completed, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return m, ErrNotFound
	}
	if err != nil {
		return m, err
	}
	m.Completed = completed != 0
	return m, nil
}

// FindMissionByUserAndDate returns the mission for (userID, date) or ErrNotFound.
func (r Repo) FindMissionByUserAndDate(ctx context.Context, userID, date string) (domain.Mission, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE user_id=? AND date=?`, userID, date)
	return scanMission(row.Scan)
}

func (r Repo) FindMissionByUserAndDateTx(ctx context.Context, tx *sql.Tx, userID, date string) (domain.Mission, error) {
	row := tx.QueryRowContext(ctx, `SELECT `+missionColumns+` FROM missions WHERE user_id=? AND date=?`, userID, date)
	return scanMission(row.Scan)
}

// InsertMissionIfAbsentTx inserts m under the UNIQUE(user_id, date) index.
// When a record for (user_id, date) already exists the statement affects no
// rows and ErrConflict is returned. The constraint itself is the arbiter, so
// two racing inserts can never both succeed.
func (r Repo) InsertMissionIfAbsentTx(ctx context.Context, tx *sql.Tx, m domain.Mission) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO missions(`+missionColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(user_id, date) DO NOTHING`,
		m.ID, m.UserID, m.Title, m.Description, m.Category, m.Difficulty, m.Location, m.Date, boolInt(m.Completed), m.CreatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// SetMissionCompletedTx marks a mission completed. The predicate keeps the
// transition one-way: a completed mission is never rewritten.
func (r Repo) SetMissionCompletedTx(ctx context.Context, tx *sql.Tx, missionID string) error {
	res, err := tx.ExecContext(ctx, `UPDATE missions SET completed=1 WHERE id=? AND completed=0`, missionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type MissionFilters struct {
	UserID    string
	Completed *bool
	Limit     int
}

// ListMissions returns a user's mission history, newest first.
func (r Repo) ListMissions(ctx context.Context, f MissionFilters) ([]domain.Mission, error) {
	clauses := []string{"user_id=?"}
	args := []any{f.UserID}
	if f.Completed != nil {
		clauses = append(clauses, "completed=?")
		args = append(args, boolInt(*f.Completed))
	}
	query := `SELECT ` + missionColumns + ` FROM missions WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY date DESC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Mission
	for rows.Next() {
		m, err := scanMission(rows.Scan)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// CountCompletedMissions returns how many missions a user has completed.
func (r Repo) CountCompletedMissions(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM missions WHERE user_id=? AND completed=1`, userID).Scan(&n)
	return n, err
}

// LatestEvents returns events newest first, optionally filtered by user.
func (r Repo) LatestEvents(ctx context.Context, limit int, userID, evtType string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if userID != "" {
		clauses = append(clauses, "user_id=?")
		args = append(args, userID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	query := `SELECT id,ts,type,COALESCE(user_id,''),entity_kind,COALESCE(entity_id,''),payload_json FROM events WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.Event
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &e.UserID, &e.EntityKind, &e.EntityID, &e.Payload); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
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
