package auth

import "context"

// CodeFlow is the authorization-code + PKCE exchange with the hosted login.
type CodeFlow interface {
	// InitiateAuth builds the authorize URL for the given upstream identity
	// provider hint (e.g. "Google") with a fresh handshake.
	InitiateAuth(identityProvider string) (*AuthRedirect, error)
	// Exchange trades code for tokens using the stored verifier.
	Exchange(ctx context.Context, code string, handshake PKCEHandshake) (*TokenSet, error)
}

// OTPFlow is the passwordless email challenge.
type OTPFlow interface {
	Start(ctx context.Context, email string) (*OTPHandshake, error)
	Verify(ctx context.Context, handshake OTPHandshake, code string) (*TokenSet, error)
}

// ClaimsDecoder extracts display claims from a raw ID token.
type ClaimsDecoder interface {
	Decode(ctx context.Context, rawIDToken string) (*Claims, error)
}
