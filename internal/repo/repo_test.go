package repo_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"humanping/internal/db"
	"humanping/internal/domain"
	"humanping/internal/migrate"
	"humanping/internal/repo"
)

func newTestRepo(t *testing.T) (repo.Repo, context.Context) {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn}, context.Background()
}

func inTx(t *testing.T, r repo.Repo, ctx context.Context, fn func(tx *sql.Tx) error) error {
	t.Helper()
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return nil
}

func seedUser(t *testing.T, r repo.Repo, ctx context.Context, id, email string) {
	t.Helper()
	err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		u := domain.User{ID: id, Email: email, Name: "u", CreatedAt: "2025-12-27T00:00:00Z"}
		if err := r.InsertUserIfAbsentTx(ctx, tx, u); err != nil {
			return err
		}
		return r.InsertProfileTx(ctx, tx, domain.Profile{UserID: id, Name: "u", Email: email, UpdatedAt: u.CreatedAt})
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func mission(id, userID, date string) domain.Mission {
	return domain.Mission{
		ID:         id,
		UserID:     userID,
		Title:      "Say hi",
		Difficulty: domain.DifficultyEasy,
		Location:   domain.LocationSafe,
		Date:       date,
		CreatedAt:  "2025-12-27T09:00:00Z",
	}
}

func TestInsertMissionIfAbsentConflict(t *testing.T) {
	r, ctx := newTestRepo(t)
	seedUser(t, r, ctx, "u1", "u1@example.com")

	if err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertMissionIfAbsentTx(ctx, tx, mission("m1", "u1", "2025-12-27"))
	}); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertMissionIfAbsentTx(ctx, tx, mission("m2", "u1", "2025-12-27"))
	})
	if !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("second insert: got %v, want ErrConflict", err)
	}

	// a different date is not a conflict
	if err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertMissionIfAbsentTx(ctx, tx, mission("m3", "u1", "2025-12-28"))
	}); err != nil {
		t.Fatalf("different date: %v", err)
	}

	// the loser's row never landed
	got, err := r.FindMissionByUserAndDate(ctx, "u1", "2025-12-27")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "m1" {
		t.Fatalf("expected winner m1, got %s", got.ID)
	}
}

func TestInsertMissionInvalidDifficultyRejected(t *testing.T) {
	r, ctx := newTestRepo(t)
	seedUser(t, r, ctx, "u1", "u1@example.com")
	m := mission("m1", "u1", "2025-12-27")
	m.Difficulty = "impossible"
	err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertMissionIfAbsentTx(ctx, tx, m)
	})
	if err == nil || errors.Is(err, repo.ErrConflict) {
		t.Fatalf("got %v, want a constraint error distinct from ErrConflict", err)
	}
}

func TestSetMissionCompletedOneWay(t *testing.T) {
	r, ctx := newTestRepo(t)
	seedUser(t, r, ctx, "u1", "u1@example.com")
	if err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertMissionIfAbsentTx(ctx, tx, mission("m1", "u1", "2025-12-27"))
	}); err != nil {
		t.Fatal(err)
	}
	if err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.SetMissionCompletedTx(ctx, tx, "m1")
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.SetMissionCompletedTx(ctx, tx, "m1")
	})
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("repeat complete: got %v, want ErrNotFound", err)
	}
}

func TestListMissionsFilters(t *testing.T) {
	r, ctx := newTestRepo(t)
	seedUser(t, r, ctx, "u1", "u1@example.com")
	for _, d := range []string{"2025-12-25", "2025-12-26", "2025-12-27"} {
		if err := inTx(t, r, ctx, func(tx *sql.Tx) error {
			return r.InsertMissionIfAbsentTx(ctx, tx, mission("m-"+d, "u1", d))
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.SetMissionCompletedTx(ctx, tx, "m-2025-12-25")
	}); err != nil {
		t.Fatal(err)
	}

	all, err := r.ListMissions(ctx, repo.MissionFilters{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Date != "2025-12-27" {
		t.Fatalf("expected 3 missions newest first, got %+v", all)
	}

	done := true
	completed, err := r.ListMissions(ctx, repo.MissionFilters{UserID: "u1", Completed: &done})
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 1 || completed[0].ID != "m-2025-12-25" {
		t.Fatalf("expected one completed mission, got %+v", completed)
	}

	limited, err := r.ListMissions(ctx, repo.MissionFilters{UserID: "u1", Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Fatalf("expected limit 2, got %d", len(limited))
	}

	n, err := r.CountCompletedMissions(ctx, "u1")
	if err != nil || n != 1 {
		t.Fatalf("count completed: n=%d err=%v", n, err)
	}
}

func TestInsertUserDuplicateEmail(t *testing.T) {
	r, ctx := newTestRepo(t)
	seedUser(t, r, ctx, "u1", "dup@example.com")
	err := inTx(t, r, ctx, func(tx *sql.Tx) error {
		return r.InsertUserIfAbsentTx(ctx, tx, domain.User{ID: "u2", Email: "dup@example.com", Name: "x", CreatedAt: "2025-12-27T00:00:00Z"})
	})
	if !errors.Is(err, repo.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestAPIKeyRoundTrip(t *testing.T) {
	r, ctx := newTestRepo(t)
	seedUser(t, r, ctx, "u1", "u1@example.com")
	raw := "hp_testkey"
	key := domain.APIKey{ID: "k1", UserID: "u1", Name: "test", KeyHash: repo.HashAPIKey(raw)}
	if err := r.InsertAPIKey(ctx, nil, key); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, err := r.GetAPIKeyByHash(ctx, repo.HashAPIKey(raw))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.UserID != "u1" {
		t.Fatalf("unexpected key owner %s", got.UserID)
	}
	if _, err := r.GetAPIKeyByHash(ctx, repo.HashAPIKey("hp_wrong")); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("wrong key: got %v, want ErrNotFound", err)
	}
	if err := r.DeleteAPIKey(ctx, "k1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.DeleteAPIKey(ctx, "k1"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}
