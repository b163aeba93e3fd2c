package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/backend"
	"github.com/readhabit/readhabit-web/internal/cache"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/readhabit/readhabit-web/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCodeFlow struct {
	mock.Mock
}

func (m *MockCodeFlow) InitiateAuth(identityProvider string) (*auth.AuthRedirect, error) {
	args := m.Called(identityProvider)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.AuthRedirect), args.Error(1)
}

func (m *MockCodeFlow) Exchange(ctx context.Context, code string, handshake auth.PKCEHandshake) (*auth.TokenSet, error) {
	args := m.Called(ctx, code, handshake)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenSet), args.Error(1)
}

type MockOTPFlow struct {
	mock.Mock
}

func (m *MockOTPFlow) Start(ctx context.Context, email string) (*auth.OTPHandshake, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.OTPHandshake), args.Error(1)
}

func (m *MockOTPFlow) Verify(ctx context.Context, handshake auth.OTPHandshake, code string) (*auth.TokenSet, error) {
	args := m.Called(ctx, handshake, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.TokenSet), args.Error(1)
}

type brokenCache struct{ cache.Cache }

func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) SetNX(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errors.New("connection refused")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testStore() *session.Store {
	return session.NewStore(config.ServerConfig{})
}

func testReplayGuard(t *testing.T) *auth.ReplayGuard {
	t.Helper()
	c := cache.NewMemoryCache(0)
	t.Cleanup(func() { c.Close() })
	return auth.NewReplayGuard(c)
}

func validTokens() *auth.TokenSet {
	return &auth.TokenSet{
		AccessToken:  "access",
		IDToken:      "id",
		RefreshToken: "refresh",
		ExpiresIn:    1800,
	}
}

// responseCookies indexes the Set-Cookie headers of rec by name.
func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	cookies := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	return cookies
}

func assertCleared(t *testing.T, cookies map[string]*http.Cookie, names ...string) {
	t.Helper()
	for _, name := range names {
		c, ok := cookies[name]
		if assert.True(t, ok, "cookie %s not set", name) {
			assert.Empty(t, c.Value, name)
			assert.Less(t, c.MaxAge, 0, name)
		}
	}
}

func assertNoTokenCookies(t *testing.T, cookies map[string]*http.Cookie) {
	t.Helper()
	for _, name := range []string{session.AccessTokenCookie, session.IDTokenCookie, session.RefreshTokenCookie} {
		_, ok := cookies[name]
		assert.False(t, ok, "cookie %s must not be set", name)
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type fakeReadingAPI struct {
	payload json.RawMessage
	err     error
	me      *backend.Me
	pingErr error

	gotMethod string
	gotPath   string
	gotToken  string
	gotBody   any
}

func (f *fakeReadingAPI) Do(_ context.Context, method, path, token string, body any) (json.RawMessage, error) {
	f.gotMethod, f.gotPath, f.gotToken, f.gotBody = method, path, token, body
	return f.payload, f.err
}

func (f *fakeReadingAPI) Me(_ context.Context, token string) (*backend.Me, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.me, nil
}

func (f *fakeReadingAPI) Ping(context.Context) error {
	return f.pingErr
}

func TestLoginError(t *testing.T) {
	assert.Equal(t, "/login?error=state_mismatch", loginError("state_mismatch"))
	assert.Equal(t, "/login?error=access_denied&desc=User%20cancelled", loginError("access_denied", "desc", "User cancelled"))
	assert.Equal(t, "/login?error=token_exchange_failed&detail=%7B%22error%22%3A%22invalid_grant%22%7D",
		loginError("token_exchange_failed", "detail", `{"error":"invalid_grant"}`))
}

func TestLocalPath(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{target: "/group/abc", want: "/group/abc"},
		{target: "/feed?tab=1", want: "/feed?tab=1"},
		{target: "", want: "/feed"},
		{target: "https://evil.example.com", want: "/feed"},
		{target: "//evil.example.com", want: "/feed"},
		{target: "/\\evil.example.com", want: "/feed"},
		{target: "feed", want: "/feed"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, localPath(tt.target, "/feed"), tt.target)
	}
}
