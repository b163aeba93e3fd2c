package auth

import "time"

const (
	// DefaultTokenLifetime applies when the provider omits expires_in.
	DefaultTokenLifetime = time.Hour
	// RefreshTokenLifetime is fixed regardless of the access token lifetime.
	RefreshTokenLifetime = 30 * 24 * time.Hour

	PKCELifetime = 10 * time.Minute
	OTPLifetime  = 3 * time.Minute
)

// TokenSet is the result of a completed handshake. It is only persisted when
// Validate succeeds, so a partial set never reaches the browser.
type TokenSet struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	// ExpiresIn is the access/ID token lifetime in seconds as reported by the
	// provider; zero means unknown.
	ExpiresIn int64
}

func (t *TokenSet) Validate() error {
	if t == nil || t.AccessToken == "" || t.IDToken == "" {
		return ErrNoTokens
	}
	return nil
}

// Lifetime is the cookie lifetime of the access and ID tokens.
func (t *TokenSet) Lifetime() time.Duration {
	if t.ExpiresIn <= 0 {
		return DefaultTokenLifetime
	}
	return time.Duration(t.ExpiresIn) * time.Second
}

// PKCEHandshake is generated per authorize attempt and consumed by exactly one
// callback.
type PKCEHandshake struct {
	CodeVerifier string
	State        string
}

// OTPHandshake is the provider session awaiting an email code.
type OTPHandshake struct {
	Session string
	Email   string
}

// AuthRedirect is where the browser is sent to start an authorization-code
// flow, together with the handshake that must be stored until the callback.
type AuthRedirect struct {
	URL       string
	Handshake PKCEHandshake
}
