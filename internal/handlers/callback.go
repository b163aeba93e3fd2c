package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/session"
)

const (
	errMissingCode         = "missing_code"
	errStateMismatch       = "state_mismatch"
	errTokenExchangeFailed = "token_exchange_failed"
	errNoTokensReturned    = "no_tokens_returned"
	errSessionStore        = "session_store_unavailable"
)

type CallbackHandler struct {
	flow   auth.CodeFlow
	store  *session.Store
	replay *auth.ReplayGuard
	logger *slog.Logger
}

func NewCallbackHandler(flow auth.CodeFlow, store *session.Store, replay *auth.ReplayGuard, logger *slog.Logger) *CallbackHandler {
	return &CallbackHandler{
		flow:   flow,
		store:  store,
		replay: replay,
		logger: logger,
	}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if providerErr := query.Get("error"); providerErr != "" {
		h.logger.Warn("identity provider returned an error", "error", providerErr)
		http.Redirect(w, r, loginError(providerErr, "desc", query.Get("error_description")), http.StatusFound)
		return
	}

	// The handshake is single-use: whatever happens below, it is gone.
	handshake, stored := h.store.PKCE(r)
	h.store.ClearPKCE(w)

	code, state := query.Get("code"), query.Get("state")
	if code == "" || state == "" {
		http.Redirect(w, r, loginError(errMissingCode), http.StatusFound)
		return
	}

	if !stored || subtle.ConstantTimeCompare([]byte(handshake.State), []byte(state)) != 1 {
		h.logger.Warn("callback state mismatch", "stored", stored)
		http.Redirect(w, r, loginError(errStateMismatch), http.StatusFound)
		return
	}

	if err := h.replay.Consume(r.Context(), "oauth_state", state, auth.PKCELifetime); err != nil {
		if errors.Is(err, auth.ErrReplayed) {
			h.logger.Warn("callback state replayed")
			http.Redirect(w, r, loginError(errStateMismatch), http.StatusFound)
			return
		}
		h.logger.Error("failed to record callback state", "error", err)
		http.Redirect(w, r, loginError(errSessionStore), http.StatusFound)
		return
	}

	tokens, err := h.flow.Exchange(r.Context(), code, handshake)
	if err != nil {
		var exchangeErr *auth.ExchangeError
		switch {
		case errors.As(err, &exchangeErr):
			h.logger.Error("token exchange rejected", "status", exchangeErr.StatusCode)
			http.Redirect(w, r, loginError(errTokenExchangeFailed, "detail", exchangeErr.Body), http.StatusFound)
		case errors.Is(err, auth.ErrNoTokens):
			h.logger.Error("token endpoint returned no token pair")
			http.Redirect(w, r, loginError(errNoTokensReturned), http.StatusFound)
		default:
			h.logger.Error("token exchange failed", "error", err)
			http.Redirect(w, r, loginError(errTokenExchangeFailed), http.StatusFound)
		}
		return
	}

	if err := h.store.SaveTokens(w, tokens); err != nil {
		h.logger.Error("refusing to store incomplete token set", "error", err)
		http.Redirect(w, r, loginError(errNoTokensReturned), http.StatusFound)
		return
	}

	h.logger.Info("authentication successful", "method", "authorization_code")
	http.Redirect(w, r, landingPath, http.StatusFound)
}
