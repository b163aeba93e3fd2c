package handlers

import (
	"log/slog"
	"net/http"

	"github.com/readhabit/readhabit-web/internal/session"
)

type LogoutHandler struct {
	store  *session.Store
	logger *slog.Logger
}

func NewLogoutHandler(store *session.Store, logger *slog.Logger) *LogoutHandler {
	return &LogoutHandler{
		store:  store,
		logger: logger,
	}
}

// ServeHTTP drops the session cookies. Tokens are not revoked upstream.
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.store.ClearTokens(w)

	h.logger.Info("user logged out")

	writeJSON(w, http.StatusOK, okResponse{OK: true, RedirectTo: loginPath})
}
