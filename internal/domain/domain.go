package domain

// Difficulty is a mission difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Difficulties lists every tier the catalog must cover.
var Difficulties = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

// Valid reports whether d is a known tier.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Location constrains where a mission can be attempted.
type Location string

const (
	LocationSafe     Location = "safe"
	LocationAnywhere Location = "anywhere"
)

func (l Location) Valid() bool {
	return l == LocationSafe || l == LocationAnywhere
}

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type Profile struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Streak        int    `json:"streak"`
	TotalMissions int    `json:"total_missions"`
	LongestStreak int    `json:"longest_streak"`
	UpdatedAt     string `json:"updated_at" format:"date-time"`
}

// MissionTemplate is an immutable catalog entry daily missions are stamped from.
type MissionTemplate struct {
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category" yaml:"category"`
	Difficulty  Difficulty `json:"difficulty" yaml:"difficulty" enum:"easy,medium,hard"`
	Location    Location   `json:"location" yaml:"location" enum:"safe,anywhere"`
}

// Mission is the daily record. At most one exists per (user_id, date);
// the missions table enforces that with a uniqueness constraint.
type Mission struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Difficulty  Difficulty `json:"difficulty" enum:"easy,medium,hard"`
	Location    Location   `json:"location" enum:"safe,anywhere"`
	Date        string     `json:"date"`
	Completed   bool       `json:"completed"`
	CreatedAt   string     `json:"created_at" format:"date-time"`
}

type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts" format:"date-time"`
	Type       string `json:"type"`
	UserID     string `json:"user_id,omitempty"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	Payload    string `json:"payload_json"`
}

type APIKey struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	KeyHash   string `json:"key_hash"`
	CreatedAt string `json:"created_at" format:"date-time"`
}
