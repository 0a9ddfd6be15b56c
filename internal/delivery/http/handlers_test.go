package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/mmuslimabdulj/gelly-pet/internal/delivery/ws"
	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
	"github.com/mmuslimabdulj/gelly-pet/internal/identity"
	"github.com/mmuslimabdulj/gelly-pet/internal/repository"
	"github.com/mmuslimabdulj/gelly-pet/internal/usecase"
)

const testSecret = "test-secret"

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type fakeBalances struct {
	amount int64
	err    error
}

func (f fakeBalances) Balance(_ context.Context, id domain.Identity) (usecase.Balance, error) {
	if f.err != nil {
		return usecase.Balance{}, f.err
	}
	return usecase.Balance{UserID: id.UserID, Login: id.Login, Balance: f.amount}, nil
}

type failingInteractor struct{}

func (failingInteractor) Interact(context.Context, usecase.InteractRequest) (domain.PetState, error) {
	return domain.PetState{}, &domain.UpstreamError{Op: "store.upsert", Err: errors.New("connection refused")}
}

func (failingInteractor) GetState(context.Context, string) (domain.PetState, bool, error) {
	return domain.PetState{}, false, &domain.UpstreamError{Op: "store.get", Err: errors.New("timeout")}
}

func (failingInteractor) Leaderboard(int) []domain.LeaderboardEntry {
	return []domain.LeaderboardEntry{}
}

type testEnv struct {
	router   http.Handler
	hub      *ws.Hub
	resolver *identity.JWTResolver
}

func setupTestHandler(t *testing.T, balances BalanceLookup) *testEnv {
	t.Helper()

	ranker := usecase.NewRanker(usecase.MetricPoints)
	hub := ws.NewHub(ranker, ws.HubConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	svc := usecase.NewInteractionService(usecase.ServiceDeps{
		Repo:      repository.NewMemoryPetRepo(),
		Engine:    usecase.NewEngine(usecase.DefaultEngineConfig()),
		Cooldowns: usecase.NewCooldownGuard(repository.NewMemoryCooldownStore(0), usecase.DefaultCooldowns()),
		Ranker:    ranker,
		Hub:       hub,
		Now:       func() time.Time { return t0 },
	})

	resolver := identity.NewJWTResolver(testSecret, "gelly-auth")
	h := NewHandler(svc, hub, resolver, balances, nil, HandlerConfig{
		AllowedOrigins:  []string{"http://localhost:8080"},
		LeaderboardSize: 10,
	})

	return &testEnv{
		router:   NewRouter(RouterDeps{Handler: h}),
		hub:      hub,
		resolver: resolver,
	}
}

func (e *testEnv) token(t *testing.T, id domain.Identity) string {
	t.Helper()

	tok, err := e.resolver.Sign(id, jwt.RegisteredClaims{})
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, body, bearer string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var res map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
			t.Fatalf("Decode: %v", err)
		}
	}
	return w, res
}

// === SECURITY TESTS ===

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Normal name", "Gelly Fan", "Gelly Fan"},
		{"Empty stays empty", "", ""},
		{"Whitespace only", "   ", ""},
		{"HTML tags stripped", "<b>Gel</b>", "Gel"},
		{"Script removed", "<script>alert('xss')</script>Gel", "Gel"},
		{"Entities kept readable", "Tom & Jerry", "Tom & Jerry"},
		{"Long name truncated", strings.Repeat("a", 100), strings.Repeat("a", 50)},
		{"Trim whitespace", "  Gel  ", "Gel"},
		{"Control chars removed", "Gel\x00ly\x1F", "Gelly"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := sanitizeLabel(tc.input)
			if result != tc.expected {
				t.Errorf("Expected '%s', got '%s'", tc.expected, result)
			}
		})
	}
}

func TestIsOriginAllowed(t *testing.T) {
	h := NewHandler(nil, nil, nil, nil, nil, HandlerConfig{
		AllowedOrigins: []string{"http://localhost:8080", "http://localhost:3000"},
	})

	tests := []struct {
		origin   string
		expected bool
	}{
		{"http://localhost:8080", true},
		{"http://localhost:3000", true},
		{"", true}, // Empty origin allowed (same-origin)
		{"http://evil.com", false},
		{"https://attacker.com", false},
	}

	for _, tc := range tests {
		if result := h.isOriginAllowed(tc.origin); result != tc.expected {
			t.Errorf("isOriginAllowed(%s) = %v, expected %v", tc.origin, result, tc.expected)
		}
	}
}

func TestSecurityHeadersOnRoutes(t *testing.T) {
	env := setupTestHandler(t, nil)

	w, _ := env.do(t, "GET", "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("Expected security headers on the viewer page")
	}
	if !strings.Contains(w.Body.String(), "Leaderboard") {
		t.Error("Expected viewer page body")
	}
}

// === INTERACT ===

func TestHandleInteract_Success(t *testing.T) {
	env := setupTestHandler(t, nil)

	w, res := env.do(t, "POST", "/v1/interact", `{"user":"u1","action":"feed"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", w.Code, res)
	}
	if res["success"] != true {
		t.Errorf("Expected success, got %v", res)
	}
	state := res["state"].(map[string]any)
	if state["points"] != float64(10) || state["stage"] != "blob" {
		t.Errorf("Unexpected state: %v", state)
	}
}

func TestHandleInteract_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"bad json", `{"user":`, http.StatusBadRequest, codeBadRequest},
		{"missing user", `{"user":"","action":"feed"}`, http.StatusBadRequest, "missing_user"},
		{"unknown action", `{"user":"u1","action":"dance"}`, http.StatusBadRequest, "unknown_action"},
		{"invalid color", `{"user":"u1","action":"color:orange"}`, http.StatusBadRequest, "invalid_color"},
	}

	env := setupTestHandler(t, nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w, res := env.do(t, "POST", "/v1/interact", tc.body, "")
			if w.Code != tc.status {
				t.Errorf("Expected %d, got %d", tc.status, w.Code)
			}
			if res["success"] != false || res["code"] != tc.code {
				t.Errorf("Expected code %s, got %v", tc.code, res)
			}
		})
	}
}

func TestHandleInteract_Cooldown(t *testing.T) {
	env := setupTestHandler(t, nil)

	env.do(t, "POST", "/v1/interact", `{"user":"u1","action":"feed"}`, "")
	w, res := env.do(t, "POST", "/v1/interact", `{"user":"u1","action":"feed"}`, "")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Expected Retry-After 30, got %q", got)
	}
	if res["retryAfterMs"] != float64(30000) {
		t.Errorf("Expected retryAfterMs 30000, got %v", res["retryAfterMs"])
	}
}

func TestHandleInteract_BearerIdentity(t *testing.T) {
	env := setupTestHandler(t, nil)
	tok := env.token(t, domain.Identity{UserID: "sub-1", Login: "gelfan", DisplayName: "<i>Gel</i> Fan"})

	w, res := env.do(t, "POST", "/v1/interact", `{"user":"someone-else","action":"play"}`, tok)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %v", w.Code, res)
	}

	state := res["state"].(map[string]any)
	if state["userId"] != "sub-1" || state["loginName"] != "gelfan" || state["displayName"] != "Gel Fan" {
		t.Errorf("Expected resolved and sanitized identity, got %v", state)
	}
}

func TestHandleInteract_BadToken(t *testing.T) {
	env := setupTestHandler(t, nil)

	w, res := env.do(t, "POST", "/v1/interact", `{"user":"u1","action":"feed"}`, "not-a-jwt")
	if w.Code != http.StatusUnauthorized || res["code"] != codeUnauthorized {
		t.Errorf("Expected 401 unauthorized, got %d %v", w.Code, res)
	}

	req := httptest.NewRequest("POST", "/v1/interact", strings.NewReader(`{"user":"u1","action":"feed"}`))
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for non-bearer scheme, got %d", rec.Code)
	}
}

func TestHandleInteract_Upstream(t *testing.T) {
	hub := ws.NewHub(usecase.NewRanker(usecase.MetricPoints), ws.HubConfig{})
	h := NewHandler(failingInteractor{}, hub, nil, nil, nil, HandlerConfig{})
	router := NewRouter(RouterDeps{Handler: h})

	req := httptest.NewRequest("POST", "/v1/interact", strings.NewReader(`{"user":"u1","action":"feed"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("Expected upstream detail to stay out of the response")
	}

	req = httptest.NewRequest("GET", "/v1/state/u1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for state, got %d", w.Code)
	}
}

// === READS ===

func TestHandleState(t *testing.T) {
	env := setupTestHandler(t, nil)

	w, res := env.do(t, "GET", "/v1/state/u1", "", "")
	if w.Code != http.StatusOK || res["found"] != false {
		t.Fatalf("Expected found=false, got %d %v", w.Code, res)
	}
	if state := res["state"].(map[string]any); state["energy"] != float64(100) || state["stage"] != "egg" {
		t.Errorf("Expected defaults, got %v", state)
	}

	env.do(t, "POST", "/v1/interact", `{"user":"u1","action":"clean"}`, "")

	_, res = env.do(t, "GET", "/v1/state/u1", "", "")
	if res["found"] != true {
		t.Errorf("Expected found=true after an interaction, got %v", res)
	}
}

func TestHandleLeaderboard(t *testing.T) {
	env := setupTestHandler(t, nil)

	for _, u := range []string{"a", "b", "c"} {
		env.do(t, "POST", "/v1/interact", `{"user":"`+u+`","action":"clean"}`, "")
	}

	_, res := env.do(t, "GET", "/v1/leaderboard?limit=2", "", "")
	entries := res["entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	first := entries[0].(map[string]any)
	if first["rank"] != float64(1) || first["userId"] != "a" {
		t.Errorf("Expected a at rank 1 on ties, got %v", first)
	}

	w, _ := env.do(t, "GET", "/v1/leaderboard?limit=zero", "", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad limit, got %d", w.Code)
	}

	_, res = env.do(t, "GET", "/v1/leaderboard", "", "")
	if len(res["entries"].([]any)) != 3 {
		t.Errorf("Expected all entries, got %v", res["entries"])
	}
}

func TestHandleBalance(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		env := setupTestHandler(t, nil)
		w, _ := env.do(t, "GET", "/v1/balance", "", "")
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", w.Code)
		}
	})

	t.Run("no token", func(t *testing.T) {
		env := setupTestHandler(t, fakeBalances{amount: 5})
		w, _ := env.do(t, "GET", "/v1/balance", "", "")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", w.Code)
		}
	})

	t.Run("ok", func(t *testing.T) {
		env := setupTestHandler(t, fakeBalances{amount: 1200})
		tok := env.token(t, domain.Identity{UserID: "sub-1", Login: "gelfan"})

		w, res := env.do(t, "GET", "/v1/balance", "", tok)
		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", w.Code)
		}
		if res["balance"] != float64(1200) || res["login"] != "gelfan" || res["userId"] != "sub-1" {
			t.Errorf("Unexpected balance body: %v", res)
		}
	})

	t.Run("provider down", func(t *testing.T) {
		env := setupTestHandler(t, fakeBalances{err: &domain.UpstreamError{Op: "points.balance", Err: errors.New("502")}})
		tok := env.token(t, domain.Identity{UserID: "sub-1", Login: "gelfan"})

		w, _ := env.do(t, "GET", "/v1/balance", "", tok)
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected 503, got %d", w.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	env := setupTestHandler(t, nil)

	w, res := env.do(t, "GET", "/healthz", "", "")
	if w.Code != http.StatusOK || res["status"] != "ok" {
		t.Errorf("Expected ok, got %d %v", w.Code, res)
	}
}

// === LIVE CHANNEL ===

func readEvent(t *testing.T, conn *websocket.Conn) domain.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt domain.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return evt
}

func TestLiveChannel_EndToEnd(t *testing.T) {
	env := setupTestHandler(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=u1"
	tab1, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer tab1.Close()
	tab2, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer tab2.Close()

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		if evt := readEvent(t, conn); evt.Type != domain.EventTypeLeaderboard {
			t.Fatalf("Expected initial leaderboard, got %s", evt.Type)
		}
	}

	resp, err := http.Post(srv.URL+"/v1/interact", "application/json", strings.NewReader(`{"user":"u1","action":"feed"}`))
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		evt := readEvent(t, conn)
		if evt.Type != domain.EventTypeUpdate || evt.State == nil || evt.State.Stage != domain.StageBlob {
			t.Errorf("Expected update with the hatched pet, got %+v", evt)
		}
		evt = readEvent(t, conn)
		if evt.Type != domain.EventTypeLeaderboard || len(evt.Entries) != 1 || evt.Entries[0].Points != 10 {
			t.Errorf("Expected leaderboard with u1, got %+v", evt)
		}
	}
}

func TestLiveChannel_RejectsForeignOrigin(t *testing.T) {
	env := setupTestHandler(t, nil)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	header := http.Header{}
	header.Set("Origin", "http://evil.com")
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?userId=u1"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		t.Fatal("Expected handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %v", resp)
	}
}
