package oidc

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedirect = "https://app.example.com/auth/callback"

func newTestProvider(t *testing.T, domain string) *Provider {
	t.Helper()
	p, err := NewProvider(config.IdPConfig{
		Domain:   domain,
		ClientID: "client-123",
		Scopes:   []string{"openid", "email", "profile"},
		Timeout:  2 * time.Second,
	}, testRedirect)
	require.NoError(t, err)
	return p
}

func TestNewProviderRequiresConfig(t *testing.T) {
	_, err := NewProvider(config.IdPConfig{ClientID: "c"}, testRedirect)
	assert.Error(t, err)

	_, err = NewProvider(config.IdPConfig{Domain: "auth.example.com"}, testRedirect)
	assert.Error(t, err)

	_, err = NewProvider(config.IdPConfig{Domain: "auth.example.com", ClientID: "c"}, "")
	assert.Error(t, err)
}

func TestInitiateAuth(t *testing.T) {
	p := newTestProvider(t, "auth.example.com")

	redirect, err := p.InitiateAuth("Google")
	require.NoError(t, err)

	u, err := url.Parse(redirect.URL)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "auth.example.com", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "client-123", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Equal(t, testRedirect, q.Get("redirect_uri"))
	assert.Equal(t, "Google", q.Get("identity_provider"))
	assert.Equal(t, redirect.Handshake.State, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))

	sum := sha256.Sum256([]byte(redirect.Handshake.CodeVerifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(sum[:]), q.Get("code_challenge"))

	// 32 bytes of entropy for the verifier, 16 for the state.
	assert.GreaterOrEqual(t, len(redirect.Handshake.CodeVerifier), 43)
	assert.Len(t, redirect.Handshake.State, 32)
}

func TestInitiateAuthIsFreshEachTime(t *testing.T) {
	p := newTestProvider(t, "auth.example.com")

	a, err := p.InitiateAuth("")
	require.NoError(t, err)
	b, err := p.InitiateAuth("")
	require.NoError(t, err)

	assert.NotEqual(t, a.Handshake.State, b.Handshake.State)
	assert.NotEqual(t, a.Handshake.CodeVerifier, b.Handshake.CodeVerifier)

	u, err := url.Parse(a.URL)
	require.NoError(t, err)
	assert.False(t, u.Query().Has("identity_provider"))
}

func TestExchange(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth2/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","id_token":"it","refresh_token":"rt","expires_in":900,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)

	tokens, err := p.Exchange(context.Background(), "the-code", auth.PKCEHandshake{CodeVerifier: "verifier", State: "s"})
	require.NoError(t, err)

	assert.Equal(t, &auth.TokenSet{AccessToken: "at", IDToken: "it", RefreshToken: "rt", ExpiresIn: 900}, tokens)

	assert.Equal(t, "authorization_code", form.Get("grant_type"))
	assert.Equal(t, "client-123", form.Get("client_id"))
	assert.Equal(t, "the-code", form.Get("code"))
	assert.Equal(t, testRedirect, form.Get("redirect_uri"))
	assert.Equal(t, "verifier", form.Get("code_verifier"))
	assert.False(t, form.Has("client_secret"))
}

func TestExchangeWithoutExpiresIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","id_token":"it","token_type":"Bearer"}`))
	}))
	defer srv.Close()

	tokens, err := newTestProvider(t, srv.URL).Exchange(context.Background(), "c", auth.PKCEHandshake{CodeVerifier: "v"})
	require.NoError(t, err)
	assert.Zero(t, tokens.ExpiresIn)
	assert.Equal(t, time.Hour, tokens.Lifetime())
	assert.Empty(t, tokens.RefreshToken)
}

func TestExchangeMissingIDToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","expires_in":3600}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv.URL).Exchange(context.Background(), "c", auth.PKCEHandshake{CodeVerifier: "v"})
	assert.ErrorIs(t, err, auth.ErrNoTokens)
}

func TestExchangeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	_, err := newTestProvider(t, srv.URL).Exchange(context.Background(), "c", auth.PKCEHandshake{CodeVerifier: "v"})

	var exchangeErr *auth.ExchangeError
	require.True(t, errors.As(err, &exchangeErr))
	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Equal(t, `{"error":"invalid_grant"}`, exchangeErr.Body)
}

func TestExchangeTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestProvider(t, srv.URL).Exchange(context.Background(), "c", auth.PKCEHandshake{CodeVerifier: "v"})

	var upstreamErr *auth.UpstreamError
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, "token exchange", upstreamErr.Op)
}

func TestExchangeTimesOut(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	p, err := NewProvider(config.IdPConfig{Domain: srv.URL, ClientID: "c", Timeout: 50 * time.Millisecond}, testRedirect)
	require.NoError(t, err)

	_, err = p.Exchange(context.Background(), "c", auth.PKCEHandshake{CodeVerifier: "v"})
	var upstreamErr *auth.UpstreamError
	assert.True(t, errors.As(err, &upstreamErr))
}
