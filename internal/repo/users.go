package repo

import (
	"context"
	"database/sql"

	"humanping/internal/domain"
)

// InsertUserIfAbsentTx inserts a user; a duplicate email yields ErrConflict.
func (r Repo) InsertUserIfAbsentTx(ctx context.Context, tx *sql.Tx, u domain.User) error {
	res, err := tx.ExecContext(ctx, `INSERT INTO users(id,email,name,created_at) VALUES (?,?,?,?)
ON CONFLICT(email) DO NOTHING`, u.ID, u.Email, u.Name, u.CreatedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

func (r Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	err := r.DB.QueryRowContext(ctx, `SELECT id,email,name,created_at FROM users WHERE id=?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

func (r Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.DB.QueryRowContext(ctx, `SELECT id,email,name,created_at FROM users WHERE email=?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

func (r Repo) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id,email,name,created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

// InsertProfileTx seeds the zero-valued profile created at registration.
func (r Repo) InsertProfileTx(ctx context.Context, tx *sql.Tx, p domain.Profile) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO profiles(user_id,name,email,streak,total_missions,longest_streak,updated_at) VALUES (?,?,?,?,?,?,?)`,
		p.UserID, p.Name, p.Email, p.Streak, p.TotalMissions, p.LongestStreak, p.UpdatedAt)
	return err
}

func scanProfile(row *sql.Row) (domain.Profile, error) {
	var p domain.Profile
	err := row.Scan(&p.UserID, &p.Name, &p.Email, &p.Streak, &p.TotalMissions, &p.LongestStreak, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

const profileColumns = `user_id,name,email,streak,total_missions,longest_streak,updated_at`

func (r Repo) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id=?`, userID))
}

func (r Repo) GetProfileTx(ctx context.Context, tx *sql.Tx, userID string) (domain.Profile, error) {
	return scanProfile(tx.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE user_id=?`, userID))
}

// UpdateProfileName updates only the display name.
func (r Repo) UpdateProfileName(ctx context.Context, userID, name, updatedAt string) (domain.Profile, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE profiles SET name=?, updated_at=? WHERE user_id=?`, name, updatedAt, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.Profile{}, ErrNotFound
	}
	return r.GetProfile(ctx, userID)
}

// UpdateProfileCountersTx rewrites the streak counters after a completion.
func (r Repo) UpdateProfileCountersTx(ctx context.Context, tx *sql.Tx, p domain.Profile) error {
	res, err := tx.ExecContext(ctx, `UPDATE profiles SET streak=?, total_missions=?, longest_streak=?, updated_at=? WHERE user_id=?`,
		p.Streak, p.TotalMissions, p.LongestStreak, p.UpdatedAt, p.UserID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
