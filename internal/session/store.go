// Package session is the cookie jar holding handshake records and the
// session token set. Every cookie is http-only, same-site=lax, scoped to "/",
// and secure in production.
package session

import (
	"net/http"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/readhabit/readhabit-web/pkg/security"
)

const (
	PKCEVerifierCookie = "pkce_verifier"
	OAuthStateCookie   = "oauth_state"
	OTPSessionCookie   = "otp_session"
	OTPEmailCookie     = "otp_email"
	AccessTokenCookie  = "access_token"
	IDTokenCookie      = "id_token"
	RefreshTokenCookie = "refresh_token"
)

type Store struct {
	opts security.CookieOptions
}

func NewStore(cfg config.ServerConfig) *Store {
	return &Store{
		opts: security.CookieOptions{
			Secure: cfg.SecureCookies(),
			Domain: cfg.CookieDomain,
		},
	}
}

func (s *Store) SavePKCE(w http.ResponseWriter, handshake auth.PKCEHandshake) {
	http.SetCookie(w, security.NewCookie(s.opts, PKCEVerifierCookie, handshake.CodeVerifier, auth.PKCELifetime))
	http.SetCookie(w, security.NewCookie(s.opts, OAuthStateCookie, handshake.State, auth.PKCELifetime))
}

// PKCE returns the stored handshake; ok is false unless both halves exist.
func (s *Store) PKCE(r *http.Request) (auth.PKCEHandshake, bool) {
	handshake := auth.PKCEHandshake{
		CodeVerifier: security.CookieValue(r, PKCEVerifierCookie),
		State:        security.CookieValue(r, OAuthStateCookie),
	}
	return handshake, handshake.CodeVerifier != "" && handshake.State != ""
}

func (s *Store) ClearPKCE(w http.ResponseWriter) {
	http.SetCookie(w, security.ExpireCookie(s.opts, PKCEVerifierCookie))
	http.SetCookie(w, security.ExpireCookie(s.opts, OAuthStateCookie))
}

func (s *Store) SaveOTP(w http.ResponseWriter, handshake auth.OTPHandshake) {
	http.SetCookie(w, security.NewCookie(s.opts, OTPSessionCookie, handshake.Session, auth.OTPLifetime))
	http.SetCookie(w, security.NewCookie(s.opts, OTPEmailCookie, handshake.Email, auth.OTPLifetime))
}

func (s *Store) OTP(r *http.Request) (auth.OTPHandshake, bool) {
	handshake := auth.OTPHandshake{
		Session: security.CookieValue(r, OTPSessionCookie),
		Email:   security.CookieValue(r, OTPEmailCookie),
	}
	return handshake, handshake.Session != "" && handshake.Email != ""
}

func (s *Store) ClearOTP(w http.ResponseWriter) {
	http.SetCookie(w, security.ExpireCookie(s.opts, OTPSessionCookie))
	http.SetCookie(w, security.ExpireCookie(s.opts, OTPEmailCookie))
}

// SaveTokens writes the whole token set or nothing.
func (s *Store) SaveTokens(w http.ResponseWriter, tokens *auth.TokenSet) error {
	if err := tokens.Validate(); err != nil {
		return err
	}

	lifetime := tokens.Lifetime()
	http.SetCookie(w, security.NewCookie(s.opts, AccessTokenCookie, tokens.AccessToken, lifetime))
	http.SetCookie(w, security.NewCookie(s.opts, IDTokenCookie, tokens.IDToken, lifetime))
	if tokens.RefreshToken != "" {
		http.SetCookie(w, security.NewCookie(s.opts, RefreshTokenCookie, tokens.RefreshToken, auth.RefreshTokenLifetime))
	}

	return nil
}

func (s *Store) AccessToken(r *http.Request) string {
	return security.CookieValue(r, AccessTokenCookie)
}

func (s *Store) IDToken(r *http.Request) string {
	return security.CookieValue(r, IDTokenCookie)
}

func (s *Store) ClearTokens(w http.ResponseWriter) {
	http.SetCookie(w, security.ExpireCookie(s.opts, AccessTokenCookie))
	http.SetCookie(w, security.ExpireCookie(s.opts, IDTokenCookie))
	http.SetCookie(w, security.ExpireCookie(s.opts, RefreshTokenCookie))
}
