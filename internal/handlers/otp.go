package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/auth/otp"
	"github.com/readhabit/readhabit-web/internal/session"
)

const (
	errMissingEmail      = "missing_email"
	errInvalidEmail      = "invalid_email"
	errMissingOTPSession = "missing_otp_session"
	errInvalidCode       = "invalid_code"
	errUpstream          = "upstream_error"
)

type OTPHandler struct {
	flow   auth.OTPFlow
	store  *session.Store
	replay *auth.ReplayGuard
	logger *slog.Logger
}

func NewOTPHandler(flow auth.OTPFlow, store *session.Store, replay *auth.ReplayGuard, logger *slog.Logger) *OTPHandler {
	return &OTPHandler{
		flow:   flow,
		store:  store,
		replay: replay,
		logger: logger,
	}
}

type otpStartRequest struct {
	Email string `json:"email"`
}

type otpVerifyRequest struct {
	Code     string `json:"code"`
	ReturnTo string `json:"returnTo"`
}

func (h *OTPHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req otpStartRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Debug("unreadable otp start body", "error", err)
	}

	email := otp.NormalizeEmail(req.Email)
	if email == "" {
		writeError(w, http.StatusBadRequest, errMissingEmail)
		return
	}
	if !validEmail(email) {
		writeError(w, http.StatusBadRequest, errInvalidEmail)
		return
	}

	handshake, err := h.flow.Start(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to start otp challenge", "error", err)
		writeError(w, http.StatusBadGateway, errUpstream)
		return
	}

	h.store.SaveOTP(w, *handshake)

	h.logger.Info("otp challenge sent")
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Debug("unreadable otp verify body", "error", err)
	}

	code := strings.TrimSpace(req.Code)
	if code == "" {
		writeError(w, http.StatusBadRequest, errMissingCode)
		return
	}

	handshake, ok := h.store.OTP(r)
	if !ok {
		writeError(w, http.StatusBadRequest, errMissingOTPSession)
		return
	}

	// One verify attempt per challenge, whatever the outcome.
	h.store.ClearOTP(w)

	if err := h.replay.Consume(r.Context(), "otp_session", handshake.Session, auth.OTPLifetime); err != nil {
		if errors.Is(err, auth.ErrReplayed) {
			h.logger.Warn("otp session replayed")
			writeError(w, http.StatusBadRequest, errMissingOTPSession)
			return
		}
		h.logger.Error("failed to record otp session", "error", err)
		writeError(w, http.StatusServiceUnavailable, errSessionStore)
		return
	}

	tokens, err := h.flow.Verify(r.Context(), handshake, code)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrNoTokens):
			h.logger.Warn("otp verify returned no token pair")
			writeError(w, http.StatusUnauthorized, errNoTokensReturned)
		case errors.Is(err, auth.ErrInvalidCode):
			h.logger.Info("otp code rejected")
			writeError(w, http.StatusUnauthorized, errInvalidCode)
		default:
			h.logger.Error("otp verify failed", "error", err)
			writeError(w, http.StatusBadGateway, errUpstream)
		}
		return
	}

	if err := h.store.SaveTokens(w, tokens); err != nil {
		writeError(w, http.StatusUnauthorized, errNoTokensReturned)
		return
	}

	h.logger.Info("authentication successful", "method", "email_otp")
	writeJSON(w, http.StatusOK, okResponse{OK: true, RedirectTo: localPath(req.ReturnTo, feedPath)})
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}

	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	return at > 0 && strings.Contains(domain, ".") && !strings.HasSuffix(domain, ".")
}
