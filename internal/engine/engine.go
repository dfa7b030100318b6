package engine

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	mathrand "math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"humanping/internal/catalog"
	"humanping/internal/domain"
	"humanping/internal/events"
	"humanping/internal/repo"
)

const dateLayout = "2006-01-02"

var (
	// ErrInvalidInput marks malformed caller input (user id, date, fields).
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmailTaken reports a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")
)

type Engine struct {
	DB      *sql.DB
	Repo    repo.Repo
	Events  events.Writer
	Catalog *catalog.Catalog
	Now     func() time.Time
	// Pick selects an index in [0,n). Injected so tests can pin the choice;
	// the default is uniform.
	Pick func(n int) int
}

func New(db *sql.DB, cat *catalog.Catalog) Engine {
	return Engine{
		DB:      db,
		Repo:    repo.Repo{DB: db},
		Events:  events.Writer{DB: db},
		Catalog: cat,
		Now:     time.Now,
		Pick:    mathrand.IntN,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) pick(n int) int {
	if e.Pick != nil {
		return e.Pick(n)
	}
	return mathrand.IntN(n)
}

// ValidDate reports whether date is a strict YYYY-MM-DD calendar date.
func ValidDate(date string) bool {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return false
	}
	return t.Format(dateLayout) == date
}

func validateUserDate(userID, date string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if !ValidDate(date) {
		return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrInvalidInput, date)
	}
	return nil
}

// EnsureTodayMission returns the user's mission for the given calendar date,
// creating one when none exists. Repeated and concurrent calls for the same
// (user, date) converge on a single stored record: the insert runs under the
// store's UNIQUE(user_id, date) index and a lost race is recovered by
// re-reading the winner's row, never surfaced as an error.
func (e Engine) EnsureTodayMission(ctx context.Context, userID, date string) (domain.Mission, error) {
	if err := validateUserDate(userID, date); err != nil {
		return domain.Mission{}, err
	}
	m, err := e.Repo.FindMissionByUserAndDate(ctx, userID, date)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return domain.Mission{}, fmt.Errorf("find mission: %w", err)
	}

	profile, err := e.Repo.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return domain.Mission{}, fmt.Errorf("user %s: %w", userID, repo.ErrNotFound)
		}
		return domain.Mission{}, fmt.Errorf("load profile: %w", err)
	}

	tier := TierFor(profile.TotalMissions)
	candidates, err := e.Catalog.TemplatesFor(tier)
	if err != nil {
		return domain.Mission{}, err
	}
	if len(candidates) == 0 {
		// Catalog construction rejects empty tiers, so this cannot happen
		// with a validated config.
		return domain.Mission{}, fmt.Errorf("no templates for tier %s", tier)
	}
	tpl := candidates[e.pick(len(candidates))]

	m = domain.Mission{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       tpl.Title,
		Description: tpl.Description,
		Category:    tpl.Category,
		Difficulty:  tpl.Difficulty,
		Location:    tpl.Location,
		Date:        date,
		Completed:   false,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Mission{}, err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertMissionIfAbsentTx(ctx, tx, m); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			// A concurrent call won between our read and this insert. The
			// constraint is the source of truth; return its record. Release
			// the tx first so the re-read can take a connection.
			tx.Rollback()
			return e.Repo.FindMissionByUserAndDate(ctx, userID, date)
		}
		return domain.Mission{}, fmt.Errorf("insert mission: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "mission.assigned", userID, "mission", m.ID, events.EventPayload{
		"date":       m.Date,
		"difficulty": m.Difficulty,
		"title":      m.Title,
	}); err != nil {
		return domain.Mission{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Mission{}, err
	}
	return m, nil
}

// CompleteMission marks the (user, date) mission completed and updates the
// profile counters. Completion is one-way; completing an already completed
// mission is a no-op returning the stored record.
func (e Engine) CompleteMission(ctx context.Context, userID, date string) (domain.Mission, error) {
	if err := validateUserDate(userID, date); err != nil {
		return domain.Mission{}, err
	}
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Mission{}, err
	}
	defer tx.Rollback()

	m, err := e.Repo.FindMissionByUserAndDateTx(ctx, tx, userID, date)
	if err != nil {
		return domain.Mission{}, err
	}
	if m.Completed {
		return m, nil
	}
	if err := e.Repo.SetMissionCompletedTx(ctx, tx, m.ID); err != nil {
		return domain.Mission{}, fmt.Errorf("complete mission: %w", err)
	}
	m.Completed = true

	profile, err := e.Repo.GetProfileTx(ctx, tx, userID)
	if err != nil {
		return domain.Mission{}, fmt.Errorf("load profile: %w", err)
	}
	profile.TotalMissions++
	newStreak := 1
	if prev, err := e.Repo.FindMissionByUserAndDateTx(ctx, tx, userID, previousDay(date)); err == nil && prev.Completed {
		newStreak = profile.Streak + 1
	} else if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return domain.Mission{}, err
	}
	profile.Streak = newStreak
	if profile.Streak > profile.LongestStreak {
		profile.LongestStreak = profile.Streak
	}
	profile.UpdatedAt = e.now().UTC().Format(time.RFC3339)
	if err := e.Repo.UpdateProfileCountersTx(ctx, tx, profile); err != nil {
		return domain.Mission{}, fmt.Errorf("update profile: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "mission.completed", userID, "mission", m.ID, events.EventPayload{
		"date":   m.Date,
		"streak": profile.Streak,
	}); err != nil {
		return domain.Mission{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Mission{}, err
	}
	return m, nil
}

func previousDay(date string) string {
	t, _ := time.Parse(dateLayout, date)
	return t.AddDate(0, 0, -1).Format(dateLayout)
}

// RegisterOptions are parameters for creating a user.
type RegisterOptions struct {
	Name     string
	Email    string
	Password string
}

func (o RegisterOptions) validate() error {
	if strings.TrimSpace(o.Name) == "" || strings.TrimSpace(o.Email) == "" || o.Password == "" {
		return fmt.Errorf("%w: email, password, and name are required", ErrInvalidInput)
	}
	if !strings.Contains(o.Email, "@") {
		return fmt.Errorf("%w: email is malformed", ErrInvalidInput)
	}
	if len(o.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters long", ErrInvalidInput)
	}
	return nil
}

// RegisterUser creates the user, its zero-valued profile, and an API key
// credential in one transaction. The raw key is returned once and only its
// hash is stored.
func (e Engine) RegisterUser(ctx context.Context, opts RegisterOptions) (domain.User, string, error) {
	if err := opts.validate(); err != nil {
		return domain.User{}, "", err
	}
	now := e.now().UTC().Format(time.RFC3339)
	u := domain.User{
		ID:        uuid.New().String(),
		Email:     strings.ToLower(strings.TrimSpace(opts.Email)),
		Name:      strings.TrimSpace(opts.Name),
		CreatedAt: now,
	}
	rawKey, err := newAPIKey()
	if err != nil {
		return domain.User{}, "", err
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, "", err
	}
	defer tx.Rollback()

	if err := e.Repo.InsertUserIfAbsentTx(ctx, tx, u); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return domain.User{}, "", ErrEmailTaken
		}
		return domain.User{}, "", fmt.Errorf("insert user: %w", err)
	}
	if err := e.Repo.InsertProfileTx(ctx, tx, domain.Profile{
		UserID:    u.ID,
		Name:      u.Name,
		Email:     u.Email,
		UpdatedAt: now,
	}); err != nil {
		return domain.User{}, "", fmt.Errorf("insert profile: %w", err)
	}
	if err := e.Repo.InsertAPIKey(ctx, tx, domain.APIKey{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		Name:      "registration",
		KeyHash:   repo.HashAPIKey(rawKey),
		CreatedAt: now,
	}); err != nil {
		return domain.User{}, "", fmt.Errorf("insert api key: %w", err)
	}
	if err := e.Events.Append(ctx, tx, "user.registered", u.ID, "user", u.ID, events.EventPayload{"email": u.Email}); err != nil {
		return domain.User{}, "", err
	}
	if err := tx.Commit(); err != nil {
		return domain.User{}, "", err
	}
	return u, rawKey, nil
}

// UpdateProfileName sets the profile display name.
func (e Engine) UpdateProfileName(ctx context.Context, userID, name string) (domain.Profile, error) {
	if strings.TrimSpace(userID) == "" {
		return domain.Profile{}, fmt.Errorf("%w: user id required", ErrInvalidInput)
	}
	if strings.TrimSpace(name) == "" {
		return domain.Profile{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	return e.Repo.UpdateProfileName(ctx, userID, strings.TrimSpace(name), e.now().UTC().Format(time.RFC3339))
}

func newAPIKey() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "hp_" + hex.EncodeToString(buf), nil
}
