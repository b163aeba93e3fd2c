package handlers

import (
	"log/slog"
	"net/http"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/session"
)

// AuthorizeHandler starts the authorization-code flow for one of the
// configured upstream identity providers.
type AuthorizeHandler struct {
	flow      auth.CodeFlow
	store     *session.Store
	providers map[string]string
	logger    *slog.Logger
}

func NewAuthorizeHandler(flow auth.CodeFlow, store *session.Store, providers map[string]string, logger *slog.Logger) *AuthorizeHandler {
	return &AuthorizeHandler{
		flow:      flow,
		store:     store,
		providers: providers,
		logger:    logger,
	}
}

func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	alias := r.PathValue("provider")

	hint, ok := h.providers[alias]
	if !ok {
		http.NotFound(w, r)
		return
	}

	authRedirect, err := h.flow.InitiateAuth(hint)
	if err != nil {
		h.logger.Error("failed to initiate auth", "provider", alias, "error", err)
		http.Error(w, "Failed to initiate authentication", http.StatusInternalServerError)
		return
	}

	h.store.SavePKCE(w, authRedirect.Handshake)

	h.logger.Debug("redirecting to identity provider", "provider", alias)
	http.Redirect(w, r, authRedirect.URL, http.StatusFound)
}
