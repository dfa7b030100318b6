package server

import (
	"humanping/internal/domain"
)

// Request payloads

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" format:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	APIKey string `json:"api_key"`
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

// Response payloads

type RegisterResponse struct {
	User   UserResponse `json:"user"`
	APIKey string       `json:"api_key"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

type ProfileResponse struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Streak        int    `json:"streak"`
	TotalMissions int    `json:"total_missions"`
	LongestStreak int    `json:"longest_streak"`
	UpdatedAt     string `json:"updated_at" format:"date-time"`
}

type MissionResponse struct {
	ID          string            `json:"id"`
	UserID      string            `json:"user_id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Difficulty  domain.Difficulty `json:"difficulty" enum:"easy,medium,hard"`
	Location    domain.Location   `json:"location" enum:"safe,anywhere"`
	Date        string            `json:"date"`
	Completed   bool              `json:"completed"`
	CreatedAt   string            `json:"created_at" format:"date-time"`
	Display     MissionDisplay    `json:"display"`
}

// MissionDisplay carries the card copy the clients show for a mission state.
type MissionDisplay struct {
	Status   string `json:"status"`
	Headline string `json:"headline"`
	Subtext  string `json:"subtext"`
}

func userResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}

func profileResponse(p domain.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:        p.UserID,
		Name:          p.Name,
		Email:         p.Email,
		Streak:        p.Streak,
		TotalMissions: p.TotalMissions,
		LongestStreak: p.LongestStreak,
		UpdatedAt:     p.UpdatedAt,
	}
}

func missionResponse(m domain.Mission) MissionResponse {
	return MissionResponse{
		ID:          m.ID,
		UserID:      m.UserID,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		Difficulty:  m.Difficulty,
		Location:    m.Location,
		Date:        m.Date,
		Completed:   m.Completed,
		CreatedAt:   m.CreatedAt,
		Display:     displayFor(&m),
	}
}

func missionResponses(ms []domain.Mission) []MissionResponse {
	res := make([]MissionResponse, 0, len(ms))
	for _, m := range ms {
		res = append(res, missionResponse(m))
	}
	return res
}

func displayFor(m *domain.Mission) MissionDisplay {
	if m == nil {
		return MissionDisplay{
			Status:   "Getting started",
			Headline: "Start your journey",
			Subtext:  "Begin with your first mission to build confidence.",
		}
	}
	if m.Completed {
		return MissionDisplay{
			Status:   "✓ Completed",
			Headline: "Mission completed!",
			Subtext:  "Great job! Come back tomorrow for your next mission.",
		}
	}
	return MissionDisplay{
		Status:   "Ready for you",
		Headline: "Today's mission is ready",
		Subtext:  "A small action to build connection and confidence.",
	}
}
