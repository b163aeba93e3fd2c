package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/readhabit/readhabit-web/internal/cache"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthConfig() config.Config {
	return config.Config{
		IdP:     config.IdPConfig{IdentityProviders: map[string]string{"google": "Google"}},
		Backend: config.BackendConfig{URL: "http://backend.internal"},
		Cache:   config.CacheConfig{Type: "memory"},
	}
}

func TestHealthy(t *testing.T) {
	c := cache.NewMemoryCache(0)
	defer c.Close()

	h := NewHealthHandler(healthConfig(), c, &fakeReadingAPI{}, testLogger())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "connected", resp.Cache.Status)
	assert.Equal(t, "reachable", resp.Backend.Status)
	assert.Equal(t, map[string]string{"google": "Google"}, resp.Providers)

	_, err := c.Get(t.Context(), "health:check")
	assert.ErrorIs(t, err, cache.ErrNotFound)
}

func TestDegraded(t *testing.T) {
	tests := []struct {
		name    string
		cache   cache.Cache
		pingErr error
	}{
		{name: "cache down", cache: brokenCache{}},
		{name: "backend down", cache: cache.NewMemoryCache(0), pingErr: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(healthConfig(), tt.cache, &fakeReadingAPI{pingErr: tt.pingErr}, testLogger())
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "degraded", resp.Status)
		})
	}
}
