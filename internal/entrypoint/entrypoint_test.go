package entrypoint

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/heartcheck/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return &config.Config{
		Global:   config.Global{ShutdownTimeoutInSeconds: 1},
		Database: config.Database{Path: filepath.Join(t.TempDir(), "app.db")},
		Auth: config.Auth{
			SecretKey:        "entrypoint-secret",
			Algorithm:        "HS256",
			TokenTTL:         30 * time.Minute,
			BcryptCost:       4,
			MaxLoginAttempts: 5,
			RateLimitWindow:  time.Minute,
			LockoutDuration:  time.Minute,
		},
		Model: config.Model{Path: filepath.Join("..", "..", "model", "heart_disease_lr.json")},
		Audit: config.Audit{RetentionDays: 30},
	}
}

func TestNewApp_ServesRequests(t *testing.T) {
	app, err := NewApp(testConfig(t), "test")
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "heart-disease-lr")

	body := `{"full_name":"Alice","email":"alice@example.com","password":"Secr3t!"}`
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "access_token")
}

func TestNewApp_MissingModelStillStarts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.Path = filepath.Join(t.TempDir(), "absent.json")

	app, err := NewApp(cfg, "test")
	require.NoError(t, err)
	defer app.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewApp_RejectsInvalidAuthConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing secret", func(c *config.Config) { c.Auth.SecretKey = "" }},
		{"unsupported algorithm", func(c *config.Config) { c.Auth.Algorithm = "RS256" }},
		{"zero lifetime", func(c *config.Config) { c.Auth.TokenTTL = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			app, err := NewApp(cfg, "test")
			assert.Nil(t, app)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}
