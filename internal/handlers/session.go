package handlers

import (
	"log/slog"
	"net/http"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/session"
)

// SessionHandler reports who is signed in, for rendering only.
type SessionHandler struct {
	store   *session.Store
	decoder auth.ClaimsDecoder
	logger  *slog.Logger
}

func NewSessionHandler(store *session.Store, decoder auth.ClaimsDecoder, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		store:   store,
		decoder: decoder,
		logger:  logger,
	}
}

type sessionResponse struct {
	Authenticated bool         `json:"authenticated"`
	User          *auth.Claims `json:"user,omitempty"`
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rawIDToken := h.store.IDToken(r)
	if rawIDToken == "" {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	claims, err := h.decoder.Decode(r.Context(), rawIDToken)
	if err != nil {
		h.logger.Debug("id token not usable for display", "error", err)
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, User: claims})
}
