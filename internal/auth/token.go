package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/config"
)

const (
	// TokenSecretName is the secret the Google token is stored under.
	TokenSecretName = "google-token"

	// ExpiryLeeway is how long before expiry an access token is refreshed.
	ExpiryLeeway = 5 * time.Second

	// DefaultLifetime applies when the token endpoint omits expires_in.
	DefaultLifetime = time.Hour
)

var (
	// ErrNotAuthenticated is returned when no token has been stored.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrNoRefreshToken is returned when an expired token cannot be renewed.
	ErrNoRefreshToken = errors.New("no refresh token, sign in again")
)

// Token is the persisted form of a Google token, including the OpenID
// identity token that names the account.
type Token struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	TokenType    string    `json:"tokenType,omitempty"`
	Expiry       time.Time `json:"expiresAt"`
	IDToken      string    `json:"idToken,omitempty"`
}

// FromOAuth2 converts an exchanged token, stamping a default lifetime when
// the server gave none.
func FromOAuth2(tok *oauth2.Token, now time.Time) Token {
	out := Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Expiry:       tok.Expiry,
	}
	if out.Expiry.IsZero() {
		out.Expiry = now.Add(DefaultLifetime)
	}
	if id, ok := tok.Extra("id_token").(string); ok {
		out.IDToken = id
	}
	return out
}

// OAuth2 returns the token in the form the oauth2 package expects.
func (t Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

// ValidAt reports whether the access token is usable at now.
func (t Token) ValidAt(now time.Time) bool {
	return t.AccessToken != "" && !t.Expiry.IsZero() && now.Before(t.Expiry.Add(-ExpiryLeeway))
}

// Subject returns the account id carried by the identity token. The token
// came straight from the token endpoint over TLS, so its signature is not
// checked.
func (t Token) Subject() string {
	if t.IDToken == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(t.IDToken, claims); err != nil {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

// Store persists the token through the secret store.
type Store struct {
	Secrets config.Secrets
}

// Load returns the stored token or ErrNotAuthenticated.
func (s Store) Load() (Token, error) {
	raw, err := s.Secrets.GetSecret(TokenSecretName)
	if err != nil {
		if errors.Is(err, config.ErrNoSecret) {
			return Token{}, ErrNotAuthenticated
		}
		return Token{}, err
	}
	var tok Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return Token{}, fmt.Errorf("failed to parse stored token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return Token{}, ErrNotAuthenticated
	}
	return tok, nil
}

// Save stores tok.
func (s Store) Save(tok Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return s.Secrets.SaveSecret(TokenSecretName, string(data))
}

// Clear removes the stored token.
func (s Store) Clear() error {
	return s.Secrets.ClearSecret(TokenSecretName)
}

// Source hands out access tokens, refreshing them when they are about to
// expire. Concurrent refreshes share one request.
type Source struct {
	conf   *oauth2.Config
	store  Store
	clock  clock.Clock
	logger *zap.Logger

	mu    sync.Mutex
	tok   *Token
	group singleflight.Group
}

// NewSource returns a Source primed with the stored token, if any.
func NewSource(conf *oauth2.Config, store Store, c clock.Clock, logger *zap.Logger) *Source {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Source{conf: conf, store: store, clock: c, logger: logger}
	if tok, err := store.Load(); err == nil {
		s.tok = &tok
	} else if !errors.Is(err, ErrNotAuthenticated) {
		logger.Warn("failed to load stored token", zap.Error(err))
	}
	return s
}

// Authenticated reports whether a token is held.
func (s *Source) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tok != nil
}

// Current returns a copy of the held token.
func (s *Source) Current() (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		return Token{}, false
	}
	return *s.tok, true
}

// Set replaces the held token after a sign-in and persists it.
func (s *Source) Set(tok Token) error {
	s.mu.Lock()
	s.tok = &tok
	s.mu.Unlock()
	if err := s.store.Save(tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// Clear forgets the token in memory and in storage.
func (s *Source) Clear() error {
	s.mu.Lock()
	s.tok = nil
	s.mu.Unlock()
	return s.store.Clear()
}

// AccessToken returns a valid access token, refreshing it first when needed.
func (s *Source) AccessToken(ctx context.Context) (string, error) {
	tok, err := s.valid(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Token implements oauth2.TokenSource.
func (s *Source) Token() (*oauth2.Token, error) {
	tok, err := s.valid(context.Background())
	if err != nil {
		return nil, err
	}
	return tok.OAuth2(), nil
}

func (s *Source) valid(ctx context.Context) (Token, error) {
	s.mu.Lock()
	if s.tok == nil {
		s.mu.Unlock()
		return Token{}, ErrNotAuthenticated
	}
	current := *s.tok
	s.mu.Unlock()

	if current.ValidAt(s.clock.Now()) {
		return current, nil
	}
	return s.Refresh(ctx)
}

// Refresh trades the refresh token for a new access token.
func (s *Source) Refresh(ctx context.Context) (Token, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		s.mu.Lock()
		if s.tok == nil {
			s.mu.Unlock()
			return Token{}, ErrNotAuthenticated
		}
		current := *s.tok
		s.mu.Unlock()

		// Another caller may have refreshed while this one waited.
		if current.ValidAt(s.clock.Now()) {
			return current, nil
		}
		if current.RefreshToken == "" {
			return Token{}, ErrNoRefreshToken
		}

		fresh, err := s.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: current.RefreshToken}).Token()
		if err != nil {
			return Token{}, fmt.Errorf("failed to refresh token: %w", err)
		}

		next := FromOAuth2(fresh, s.clock.Now())
		if next.RefreshToken == "" {
			next.RefreshToken = current.RefreshToken
		}
		if next.IDToken == "" {
			next.IDToken = current.IDToken
		}
		if err := s.Set(next); err != nil {
			s.logger.Warn("failed to persist refreshed token", zap.Error(err))
		}
		s.logger.Debug("access token refreshed", zap.Time("expires_at", next.Expiry))
		return next, nil
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// SignIn returns a func that runs flow and stores the resulting token in
// source. It matches the signIn argument of the sync manager's Login.
func SignIn(flow *Flow, source *Source) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		tok, err := flow.Run(ctx)
		if err != nil {
			return err
		}
		return source.Set(FromOAuth2(tok, source.clock.Now()))
	}
}
