package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are identity attributes read from an ID token. They are meant for
// rendering only and must never drive an authorization decision; the backend
// API validates tokens on every call.
type Claims struct {
	Subject string `json:"sub,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// ClaimsFromMap picks the display attributes out of a raw claim set.
func ClaimsFromMap(m map[string]any) *Claims {
	str := func(key string) string {
		s, _ := m[key].(string)
		return s
	}

	name := str("name")
	if name == "" && str("given_name") != "" {
		name = str("given_name")
		if family := str("family_name"); family != "" {
			name += " " + family
		}
	}

	return &Claims{
		Subject: str("sub"),
		Email:   str("email"),
		Name:    name,
		Picture: str("picture"),
	}
}

// DecodeClaims reads the ID token payload without checking its signature.
func DecodeClaims(rawIDToken string) (*Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(rawIDToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode id token: %w", err)
	}
	return ClaimsFromMap(claims), nil
}

// UnverifiedDecoder is the ClaimsDecoder used when no issuer is configured.
type UnverifiedDecoder struct{}

func (UnverifiedDecoder) Decode(_ context.Context, rawIDToken string) (*Claims, error) {
	return DecodeClaims(rawIDToken)
}
