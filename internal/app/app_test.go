package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SwetabhSingh17/APMS-sub001/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Address:        ":0",
			RequestTimeout: 5 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Database: config.DatabaseConfig{Driver: "memory"},
		Session:  config.SessionConfig{Name: "portal_session", Secret: "test", MaxAge: 3600},
		Portal:   config.PortalConfig{MaxGroupSize: 4, CurrentTerm: "2024-fall"},
		Admin: config.AdminConfig{
			Username: "admin",
			Email:    "admin@portal.local",
			Password: "admin12345",
			FullName: "Portal Administrator",
		},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
}

func TestNew_MemoryStore(t *testing.T) {
	a, err := New(context.Background(), memoryConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/topics/approved", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestRetry(t *testing.T) {
	calls := 0
	got, err := retry(3, time.Millisecond, zerolog.Nop(), func() (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("connection refused")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = retry(2, time.Millisecond, zerolog.Nop(), func() (int, error) {
		calls++
		return 0, errors.New("connection refused")
	})
	assert.Error(t, err)
	assert.Equal(t, 2, calls)
}
