package humanpingsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal HumanPing HTTP API client.
type Client struct {
	BaseURL     string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// User represents the API user model.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Profile represents a user's profile and counters.
type Profile struct {
	UserID        string `json:"user_id"`
	Name          string `json:"name"`
	Streak        int    `json:"streak"`
	TotalMissions int    `json:"total_missions"`
	LongestStreak int    `json:"longest_streak"`
	UpdatedAt     string `json:"updated_at"`
}

// Mission represents a daily mission record.
type Mission struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	Date        string         `json:"date"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Difficulty  string         `json:"difficulty"`
	Location    string         `json:"location"`
	Completed   bool           `json:"completed"`
	CreatedAt   string         `json:"created_at"`
	Display     MissionDisplay `json:"display"`
}

// MissionDisplay carries the presentation strings for a mission card.
type MissionDisplay struct {
	Headline string `json:"headline"`
	Subtext  string `json:"subtext"`
	Status   string `json:"status"`
}

// RegisterResult is returned once at registration; APIKey is shown only here.
type RegisterResult struct {
	User   User   `json:"user"`
	APIKey string `json:"api_key"`
}

// LoginResult carries a bearer token exchanged for an API key.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Register creates a user. The returned API key is not retrievable later.
func (c *Client) Register(ctx context.Context, name, email, password string) (RegisterResult, error) {
	body := map[string]any{
		"name":     name,
		"email":    email,
		"password": password,
	}
	var resp RegisterResult
	err := c.do(ctx, http.MethodPost, "v1/users", body, &resp)
	return resp, err
}

// Login exchanges an API key for a bearer token and stores it on the client.
func (c *Client) Login(ctx context.Context, apiKey string) (LoginResult, error) {
	body := map[string]any{"api_key": apiKey}
	var resp LoginResult
	if err := c.do(ctx, http.MethodPost, "v1/auth/login", body, &resp); err != nil {
		return resp, err
	}
	c.BearerToken = resp.Token
	return resp, nil
}

// Profile returns the profile for a user.
func (c *Client) Profile(ctx context.Context, userID string) (Profile, error) {
	var resp Profile
	err := c.do(ctx, http.MethodGet, c.userPath(userID, "profile"), nil, &resp)
	return resp, err
}

// SetProfileName updates the display name on a profile.
func (c *Client) SetProfileName(ctx context.Context, userID, name string) (Profile, error) {
	body := map[string]any{"name": name}
	var resp Profile
	err := c.do(ctx, http.MethodPatch, c.userPath(userID, "profile"), body, &resp)
	return resp, err
}

// TodayMission returns the mission for a date, assigning one if none exists.
// An empty date means the server's current UTC date.
func (c *Client) TodayMission(ctx context.Context, userID, date string) (Mission, error) {
	endpoint := c.userPath(userID, "missions/today")
	if date != "" {
		endpoint = fmt.Sprintf("%s?date=%s", endpoint, url.QueryEscape(date))
	}
	var resp Mission
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CompleteMission marks the mission for a date as completed.
func (c *Client) CompleteMission(ctx context.Context, userID, date string) (Mission, error) {
	endpoint := c.userPath(userID, fmt.Sprintf("missions/%s/complete", url.PathEscape(date)))
	var resp Mission
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Missions lists a user's missions, newest first.
func (c *Client) Missions(ctx context.Context, userID string, limit int) ([]Mission, error) {
	endpoint := c.userPath(userID, "missions")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Mission
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) userPath(userID, p string) string {
	return fmt.Sprintf("v1/users/%s/%s", url.PathEscape(userID), strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
