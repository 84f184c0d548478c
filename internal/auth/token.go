// Package auth handles the identity provider's OAuth flow and the stored
// token, including the ID token used to build the session identity.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"golang.org/x/oauth2"

	"taskdeck/internal/config"
)

// ErrNotLoggedIn is returned when no usable token is stored.
var ErrNotLoggedIn = errors.New("not logged in (run: taskdeck login)")

// storedToken is the token file layout: the OAuth token plus the ID token
// the provider returned alongside it.
type storedToken struct {
	oauth2.Token
	IDToken string `json:"id_token,omitempty"`
}

// OAuthConfig returns the OAuth client for the provider's hosted login.
// The client is public: PKCE, no secret.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	if err := cfg.RequireAuth(); err != nil {
		return nil, err
	}
	return &oauth2.Config{
		ClientID: cfg.Auth.ClientID,
		Scopes:   cfg.Auth.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   cfg.Auth.AuthURL,
			TokenURL:  cfg.Auth.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, nil
}

// LoadToken reads the token file. It returns ErrNotLoggedIn when the file
// is missing or has no refresh token.
func LoadToken(path string) (*oauth2.Token, string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotLoggedIn
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to read token: %w", err)
	}
	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, "", fmt.Errorf("invalid token file: %w", err)
	}
	if st.RefreshToken == "" {
		return nil, "", ErrNotLoggedIn
	}
	tok := st.Token
	return &tok, st.IDToken, nil
}

// SaveToken writes tok to path with mode 0600. The ID token is taken from
// the token response; fallback is kept when the response has none, as on
// some refreshes.
func SaveToken(path string, tok *oauth2.Token, fallback string) (string, error) {
	idToken := IDTokenFrom(tok)
	if idToken == "" {
		idToken = fallback
	}
	data, err := json.MarshalIndent(storedToken{Token: *tok, IDToken: idToken}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", err
	}
	return idToken, nil
}

// IDTokenFrom returns the id_token field of a token response, if any.
func IDTokenFrom(tok *oauth2.Token) string {
	if tok == nil {
		return ""
	}
	if v, ok := tok.Extra("id_token").(string); ok {
		return v
	}
	return ""
}

// persistingSource saves every newly issued token back to the token file.
type persistingSource struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	path    string
	last    string
	idToken string
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if tok.AccessToken != s.last {
		id, err := SaveToken(s.path, tok, s.idToken)
		if err != nil {
			return nil, fmt.Errorf("failed to save refreshed token: %w", err)
		}
		s.last = tok.AccessToken
		s.idToken = id
	}
	return tok, nil
}

func (s *persistingSource) currentIDToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idToken
}

// Credentials is an authorized HTTP client plus the current ID token.
type Credentials struct {
	HTTPClient *http.Client
	src        *persistingSource
}

// NewCredentials loads the stored token and returns credentials that
// refresh and persist it as needed.
func NewCredentials(ctx context.Context, cfg *config.Config) (*Credentials, error) {
	oauthCfg, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	tok, idToken, err := LoadToken(cfg.TokenPath())
	if err != nil {
		return nil, err
	}
	src := &persistingSource{
		base:    oauthCfg.TokenSource(ctx, tok),
		path:    cfg.TokenPath(),
		last:    tok.AccessToken,
		idToken: idToken,
	}
	return &Credentials{
		HTTPClient: oauth2.NewClient(ctx, src),
		src:        src,
	}, nil
}

// IDToken returns a current ID token, refreshing the session first if the
// access token has expired.
func (c *Credentials) IDToken() (string, error) {
	if _, err := c.src.Token(); err != nil {
		return "", fmt.Errorf("token refresh failed: %w", err)
	}
	id := c.src.currentIDToken()
	if id == "" {
		return "", ErrNotLoggedIn
	}
	return id, nil
}
