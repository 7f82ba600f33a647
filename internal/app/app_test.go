package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learning_streak_backend/internal/config"
	"learning_streak_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func memoryConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "0", Mode: "test"},
		Database:  config.DatabaseConfig{Driver: config.DriverMemory},
		JWT:       config.JWTConfig{Secret: testSecret},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
		Streak: config.StreakConfig{
			HistoryDefaultDays: 90,
			HistoryMaxDays:     366,
			LockTTLSeconds:     10,
			LockWaitMillis:     1000,
			CacheSize:          16,
		},
	}
}

func serve(a *App, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestNewWithMemoryStore(t *testing.T) {
	a, err := New(memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	assert.Nil(t, a.Redis)

	w := serve(a, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"memory"`)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)

	w = serve(a, http.MethodGet, "/api/streaks/badges", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(a, http.MethodPost, "/api/streaks/update", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := util.GenerateJWT(11, "student", "s@example.com", testSecret, time.Hour)
	require.NoError(t, err)

	w = serve(a, http.MethodPost, "/api/streaks/update", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"started"`)

	w = serve(a, http.MethodGet, "/api/streaks/my-streak", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"currentStreak":1`)

	w = serve(a, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "streak_updates_total")
}

func TestConfigReloadUpdatesWindowLimits(t *testing.T) {
	a, err := New(memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 90, a.services.query.DefaultWindow())

	reloaded := memoryConfig()
	reloaded.Streak.HistoryDefaultDays = 30
	reloaded.Streak.HistoryMaxDays = 60
	a.applyConfig(reloaded)

	assert.Equal(t, 30, a.services.query.DefaultWindow())
	w, err := a.services.query.ResolveWindow(365)
	require.NoError(t, err)
	assert.Equal(t, 60, w)
}

func TestMigrateOnlySkipsServer(t *testing.T) {
	cfg := memoryConfig()
	cfg.MigrateOnly = true

	a, err := New(cfg)
	require.NoError(t, err)
	assert.Nil(t, a.Router)
}
