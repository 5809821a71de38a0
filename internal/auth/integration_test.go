package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *testEnv, *recordingAudit) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := setupTestService(t)
	audit := &recordingAudit{}

	cfg := testAuthConfig()
	cfg.MaxLoginAttempts = 3
	cfg.RateLimitWindow = time.Minute
	cfg.LockoutDuration = time.Minute

	controller := NewAuthController(env.service, NewMiddleware(env.service, audit), audit, cfg)
	t.Cleanup(controller.Stop)

	router := gin.New()
	controller.RegisterRoutes(router)
	return router, env, audit
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeToken(t *testing.T, w *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var resp TokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON %s: %v", w.Body.String(), err)
	}
	return resp
}

func TestIntegration_SignupLoginMe(t *testing.T) {
	router, _, audit := setupTestRouter(t)

	w := postJSON(router, "/signup", `{"full_name":"Alice","email":"alice@example.com","password":"Secr3t!"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", w.Header().Get("Cache-Control"))
	}
	signup := decodeToken(t, w)
	if signup.AccessToken == "" || signup.TokenType != "bearer" {
		t.Errorf("signup response = %+v", signup)
	}
	if strings.Contains(w.Body.String(), "$2a$") || strings.Contains(w.Body.String(), "password") {
		t.Errorf("signup response leaks the password hash: %s", w.Body.String())
	}

	w = postJSON(router, "/login", `{"email":"alice@example.com","password":"Secr3t!"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body=%s", w.Code, w.Body.String())
	}
	login := decodeToken(t, w)
	if login.User.ID != signup.User.ID {
		t.Errorf("login user id = %d, want %d", login.User.ID, signup.User.ID)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body=%s", w.Code, w.Body.String())
	}
	var me UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil {
		t.Fatal(err)
	}
	if me.FullName != "Alice" || me.Email != "alice@example.com" {
		t.Errorf("me = %+v", me)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("me Cache-Control = %q, want no-store", got)
	}

	actions := map[string]bool{}
	for _, r := range audit.all() {
		if r.success {
			actions[r.action] = true
		}
	}
	if !actions["signup"] || !actions["login"] {
		t.Errorf("audit actions = %v, want signup and login", actions)
	}
}

func TestIntegration_SignupUsernameFallback(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := postJSON(router, "/signup", `{"username":"bob","email":"bob@example.com","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body=%s", w.Code, w.Body.String())
	}
	if resp := decodeToken(t, w); resp.User.FullName != "bob" {
		t.Errorf("fullName = %q, want bob", resp.User.FullName)
	}
}

func TestIntegration_SignupErrors(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	if w := postJSON(router, "/signup", `{"full_name":"Alice","email":"alice@example.com","password":"Secr3t!"}`); w.Code != http.StatusOK {
		t.Fatalf("first signup status = %d", w.Code)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"duplicate email", `{"full_name":"A","email":"ALICE@example.com","password":"Secr3t!"}`, http.StatusConflict},
		{"short password", `{"full_name":"A","email":"a@example.com","password":"abc"}`, http.StatusBadRequest},
		{"bad email", `{"full_name":"A","email":"nope","password":"Secr3t!"}`, http.StatusBadRequest},
		{"missing name", `{"email":"b@example.com","password":"Secr3t!"}`, http.StatusBadRequest},
		{"missing fields", `{}`, http.StatusBadRequest},
		{"not json", `full_name=A`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(router, "/signup", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestIntegration_LoginFailuresShareResponse(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	postJSON(router, "/signup", `{"full_name":"Alice","email":"alice@example.com","password":"Secr3t!"}`)

	wrong := postJSON(router, "/login", `{"email":"alice@example.com","password":"wrong-pass"}`)
	unknown := postJSON(router, "/login", `{"email":"ghost@example.com","password":"Secr3t!"}`)

	if wrong.Code != http.StatusUnauthorized || unknown.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d; want 401", wrong.Code, unknown.Code)
	}
	if wrong.Body.String() != unknown.Body.String() {
		t.Errorf("bodies differ: %s vs %s", wrong.Body.String(), unknown.Body.String())
	}
	if !strings.Contains(wrong.Body.String(), "invalid email or password") {
		t.Errorf("body = %s", wrong.Body.String())
	}
}

func TestIntegration_LoginRateLimit(t *testing.T) {
	router, _, _ := setupTestRouter(t)
	postJSON(router, "/signup", `{"full_name":"Alice","email":"alice@example.com","password":"Secr3t!"}`)

	for i := 0; i < 3; i++ {
		w := postJSON(router, "/login", `{"email":"alice@example.com","password":"wrong-pass"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want 401", i+1, w.Code)
		}
	}

	// Locked out even with the right password.
	w := postJSON(router, "/login", `{"email":"alice@example.com","password":"Secr3t!"}`)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// A different email from the same client is unaffected.
	w = postJSON(router, "/login", `{"email":"other@example.com","password":"whatever"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("other email status = %d, want 401", w.Code)
	}
}

func TestIntegration_MeRequiresToken(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
