package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"testing"

	"humanping/internal/catalog"
	"humanping/internal/db"
	"humanping/internal/engine"
	"humanping/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	e := engine.New(conn, catalog.Default())
	handler, err := New(Config{Engine: e, BasePath: "/v1", Auth: AuthConfig{JWTSecret: "test-secret"}})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func registerTestUser(t *testing.T, srv *testServer) (userID, apiKey string) {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/users", map[string]any{
		"name":     "Tester",
		"email":    "tester@example.com",
		"password": "secret1",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status %d: %s", res.StatusCode, string(data))
	}
	var created RegisterResponse
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal register: %v", err)
	}
	if created.APIKey == "" {
		t.Fatalf("expected api key in register response")
	}
	return created.User.ID, created.APIKey
}

func loginTestUser(t *testing.T, srv *testServer, apiKey string) string {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/auth/login", map[string]any{
		"api_key": apiKey,
	}, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %s", res.StatusCode, string(data))
	}
	var login LoginResponse
	if err := json.Unmarshal(data, &login); err != nil {
		t.Fatalf("unmarshal login: %v", err)
	}
	return login.Token
}

func TestMissionLifecycle(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()
	userID, apiKey := registerTestUser(t, srv)
	token := loginTestUser(t, srv, apiKey)
	auth := map[string]string{"Authorization": "Bearer " + token}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/v1/users/"+userID+"/missions/today?date=2025-12-27", nil, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("today status %d: %s", res.StatusCode, string(data))
	}
	var first MissionResponse
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("unmarshal mission: %v", err)
	}
	if first.Completed {
		t.Fatalf("new mission must be incomplete")
	}
	if first.Difficulty != "easy" {
		t.Fatalf("fresh user should get easy mission, got %s", first.Difficulty)
	}
	if first.Display.Status != "Ready for you" {
		t.Fatalf("unexpected display status %q", first.Display.Status)
	}

	// repeated fetch returns the same record
	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/users/"+userID+"/missions/today?date=2025-12-27", nil, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("refetch status %d: %s", res.StatusCode, string(data))
	}
	var again MissionResponse
	_ = json.Unmarshal(data, &again)
	if again.ID != first.ID {
		t.Fatalf("expected same mission on refetch")
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/v1/users/"+userID+"/missions/2025-12-27/complete", nil, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("complete status %d: %s", res.StatusCode, string(data))
	}
	var done MissionResponse
	_ = json.Unmarshal(data, &done)
	if !done.Completed || done.Display.Status != "✓ Completed" {
		t.Fatalf("unexpected completed mission: %+v", done)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/users/"+userID+"/profile", nil, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("profile status %d: %s", res.StatusCode, string(data))
	}
	var profile ProfileResponse
	_ = json.Unmarshal(data, &profile)
	if profile.TotalMissions != 1 || profile.Streak != 1 {
		t.Fatalf("unexpected counters: %+v", profile)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/v1/users/"+userID+"/missions?limit=10", nil, auth)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var missions []MissionResponse
	if err := json.Unmarshal(data, &missions); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if len(missions) != 1 {
		t.Fatalf("expected one mission, got %d", len(missions))
	}
}

func TestAPIKeyHeaderAuth(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	userID, apiKey := registerTestUser(t, srv)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/users/"+userID+"/profile", nil, map[string]string{"X-Api-Key": apiKey})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("profile via api key status %d: %s", res.StatusCode, string(data))
	}
}

func TestAuthRequired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	userID, apiKey := registerTestUser(t, srv)

	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/users/"+userID+"/profile", nil, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", res.StatusCode)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/users/"+userID+"/profile", nil, map[string]string{"X-Api-Key": "hp_bogus"})
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad api key, got %d", res.StatusCode)
	}

	res, _ = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/users/other-user/profile", nil, map[string]string{"X-Api-Key": apiKey})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for another user's profile, got %d", res.StatusCode)
	}
}

func TestInvalidDateRejected(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	userID, apiKey := registerTestUser(t, srv)
	headers := map[string]string{"X-Api-Key": apiKey}

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/users/"+userID+"/missions/today?date=not-a-date", nil, headers)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", res.StatusCode, string(data))
	}
	var apiErr struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &apiErr); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if apiErr.Error.Code != "bad_request" {
		t.Fatalf("expected bad_request code, got %q", apiErr.Error.Code)
	}
}

func TestRegisterValidationAndConflict(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	registerTestUser(t, srv)

	res, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/users", map[string]any{
		"name":     "Short",
		"email":    "short@example.com",
		"password": "nope",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", res.StatusCode)
	}

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/users", map[string]any{
		"name":     "Dup",
		"email":    "tester@example.com",
		"password": "secret1",
	}, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate email, got %d: %s", res.StatusCode, string(data))
	}
}

func TestLoginRejectsUnknownKey(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	registerTestUser(t, srv)
	res, _ := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/v1/auth/login", map[string]any{
		"api_key": "hp_bogus",
	}, nil)
	if res.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.StatusCode)
	}
}

func TestUpdateProfileName(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	userID, apiKey := registerTestUser(t, srv)
	headers := map[string]string{"X-Api-Key": apiKey}

	res, data := doJSON(t, srv.Client(), http.MethodPatch, srv.URL+"/v1/users/"+userID+"/profile", map[string]any{
		"name": "Renamed",
	}, headers)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("patch status %d: %s", res.StatusCode, string(data))
	}
	var profile ProfileResponse
	_ = json.Unmarshal(data, &profile)
	if profile.Name != "Renamed" {
		t.Fatalf("expected renamed profile, got %q", profile.Name)
	}
}

func TestHealthOpen(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/v1/health", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", res.StatusCode, string(data))
	}
}
