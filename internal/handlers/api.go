package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/readhabit/readhabit-web/internal/backend"
	"github.com/readhabit/readhabit-web/internal/session"
)

const (
	errUnauthorized = "unauthorized"
	errInvalidPages = "invalid_pages"

	minPages = 1
	maxPages = 999
)

// ReadingAPI is the part of the backend client the handlers use.
type ReadingAPI interface {
	Do(ctx context.Context, method, path, token string, body any) (json.RawMessage, error)
	Me(ctx context.Context, token string) (*backend.Me, error)
	Ping(ctx context.Context) error
}

// APIHandler forwards the browser's JSON calls to the reading backend,
// authenticating them with the session's ID token.
type APIHandler struct {
	backend ReadingAPI
	store   *session.Store
	logger  *slog.Logger
}

func NewAPIHandler(api ReadingAPI, store *session.Store, logger *slog.Logger) *APIHandler {
	return &APIHandler{
		backend: api,
		store:   store,
		logger:  logger,
	}
}

type pagesRequest struct {
	Pages json.Number `json:"pages"`
}

func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, http.MethodGet, "/v1/me", nil)
}

func (h *APIHandler) Progress(w http.ResponseWriter, r *http.Request) {
	h.forward(w, r, http.MethodGet, "/v1/reading/progress", nil)
}

func (h *APIHandler) SetGoal(w http.ResponseWriter, r *http.Request) {
	pages, ok := readPages(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, errInvalidPages)
		return
	}
	h.forward(w, r, http.MethodPut, "/v1/reading/goal", map[string]int64{"pages": pages})
}

func (h *APIHandler) RegisterReading(w http.ResponseWriter, r *http.Request) {
	pages, ok := readPages(r)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, errInvalidPages)
		return
	}
	h.forward(w, r, http.MethodPost, "/v1/reading", map[string]int64{"pages": pages})
}

func (h *APIHandler) forward(w http.ResponseWriter, r *http.Request, method, path string, body any) {
	token := h.store.IDToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, errUnauthorized)
		return
	}

	payload, err := h.backend.Do(r.Context(), method, path, token, body)
	if err != nil {
		h.writeBackendError(w, path, err)
		return
	}

	if payload == nil {
		writeJSON(w, http.StatusOK, okResponse{OK: true})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *APIHandler) writeBackendError(w http.ResponseWriter, path string, err error) {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		h.logger.Error("backend request failed", "path", path, "error", err)
		writeError(w, http.StatusBadGateway, errUpstream)
		return
	}

	if apiErr.StatusCode == http.StatusUnauthorized {
		h.logger.Info("backend rejected session token", "path", path)
		h.store.ClearTokens(w)
	} else {
		h.logger.Warn("backend returned an error", "path", path, "status", apiErr.StatusCode)
	}

	if apiErr.Body == nil {
		writeError(w, apiErr.StatusCode, errUpstream)
		return
	}
	writeJSON(w, apiErr.StatusCode, apiErr.Body)
}

func readPages(r *http.Request) (int64, bool) {
	var req pagesRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, false
	}

	pages, err := req.Pages.Int64()
	if err != nil || pages < minPages || pages > maxPages {
		return 0, false
	}
	return pages, true
}
