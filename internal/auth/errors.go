package auth

import (
	"errors"
	"fmt"
)

var (
	ErrNoTokens    = errors.New("provider returned no access and id token")
	ErrInvalidCode = errors.New("invalid or expired code")
	ErrReplayed    = errors.New("handshake value already consumed")
)

// ExchangeError is a non-2xx answer from the token endpoint. Body is kept for
// diagnostics.
type ExchangeError struct {
	StatusCode int
	Body       string
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token endpoint returned status %d", e.StatusCode)
}

// UpstreamError wraps any other failure talking to the identity provider.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("identity provider %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
