package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/readhabit/readhabit-web/pkg/security"
	"golang.org/x/oauth2"
)

const stateEntropyBytes = 16

// Provider drives the authorization-code + PKCE flow against the user pool's
// hosted login (/oauth2/authorize, /oauth2/token).
type Provider struct {
	oauth2Config oauth2.Config
	httpClient   *http.Client
}

func NewProvider(cfg config.IdPConfig, redirectURL string) (*Provider, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("identity provider domain is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("identity provider client id is required")
	}
	if redirectURL == "" {
		return nil, fmt.Errorf("redirect url is required")
	}

	base := cfg.BaseURL()

	return &Provider{
		oauth2Config: oauth2.Config{
			ClientID: cfg.ClientID,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth2/authorize",
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			RedirectURL: redirectURL,
			Scopes:      cfg.Scopes,
		},
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (p *Provider) InitiateAuth(identityProvider string) (*auth.AuthRedirect, error) {
	codeVerifier := oauth2.GenerateVerifier()

	state, err := security.GenerateState(stateEntropyBytes)
	if err != nil {
		return nil, err
	}

	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(codeVerifier)}
	if identityProvider != "" {
		opts = append(opts, oauth2.SetAuthURLParam("identity_provider", identityProvider))
	}

	return &auth.AuthRedirect{
		URL: p.oauth2Config.AuthCodeURL(state, opts...),
		Handshake: auth.PKCEHandshake{
			CodeVerifier: codeVerifier,
			State:        state,
		},
	}, nil
}

func (p *Provider) Exchange(ctx context.Context, code string, handshake auth.PKCEHandshake) (*auth.TokenSet, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	oauth2Token, err := p.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(handshake.CodeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			status := 0
			if retrieveErr.Response != nil {
				status = retrieveErr.Response.StatusCode
			}
			return nil, &auth.ExchangeError{StatusCode: status, Body: string(retrieveErr.Body)}
		}
		return nil, &auth.UpstreamError{Op: "token exchange", Err: err}
	}

	rawIDToken, _ := oauth2Token.Extra("id_token").(string)

	tokens := &auth.TokenSet{
		AccessToken:  oauth2Token.AccessToken,
		IDToken:      rawIDToken,
		RefreshToken: oauth2Token.RefreshToken,
		ExpiresIn:    expiresIn(oauth2Token),
	}
	if err := tokens.Validate(); err != nil {
		return nil, err
	}

	return tokens, nil
}

func expiresIn(token *oauth2.Token) int64 {
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}

	if !token.Expiry.IsZero() {
		return int64(time.Until(token.Expiry).Round(time.Second).Seconds())
	}
	return 0
}
