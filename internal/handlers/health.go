package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/readhabit/readhabit-web/internal/cache"
	"github.com/readhabit/readhabit-web/internal/config"
)

type HealthHandler struct {
	cfg       config.Config
	cache     cache.Cache
	backend   ReadingAPI
	logger    *slog.Logger
	startTime time.Time
}

func NewHealthHandler(cfg config.Config, cache cache.Cache, api ReadingAPI, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		cfg:       cfg,
		cache:     cache,
		backend:   api,
		logger:    logger,
		startTime: time.Now(),
	}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Uptime    string            `json:"uptime"`
	Cache     CacheHealth       `json:"cache"`
	Backend   BackendHealth     `json:"backend"`
	Providers map[string]string `json:"providers"`
}

type CacheHealth struct {
	Type   string `json:"type"`
	Status string `json:"status"`
}

type BackendHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Providers: h.cfg.IdP.IdentityProviders,
	}

	response.Cache.Type = h.cfg.Cache.Type
	if err := h.checkCache(ctx); err != nil {
		h.logger.Warn("cache health check failed", "error", err)
		response.Cache.Status = "error"
		response.Status = "degraded"
	} else {
		response.Cache.Status = "connected"
	}

	response.Backend.URL = h.cfg.Backend.URL
	if err := h.backend.Ping(ctx); err != nil {
		h.logger.Warn("backend health check failed", "error", err)
		response.Backend.Status = "unreachable"
		response.Status = "degraded"
	} else {
		response.Backend.Status = "reachable"
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) checkCache(ctx context.Context) error {
	if err := h.cache.Set(ctx, "health:check", []byte("ok"), time.Minute); err != nil {
		return err
	}
	if _, err := h.cache.Get(ctx, "health:check"); err != nil {
		return err
	}
	return h.cache.Delete(ctx, "health:check")
}
