// Package session holds the client's access/refresh token pair and
// answers expiry questions before each API call.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSession = errors.New("no active session")

// Store is the in-memory token holder. Tokens never touch disk; the
// caller provides them at startup and replaces them on refresh.
type Store struct {
	mu        sync.Mutex
	token     string
	refresh   string
	expiresAt time.Time
}

func New(token, refreshToken string) *Store {
	s := &Store{}
	s.Set(token, refreshToken)
	return s
}

// Set replaces the token pair. The access token's exp claim is parsed
// without signature verification; only the server can verify it, the
// client just needs to know when to refresh.
func (s *Store) Set(token, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.refresh = refreshToken
	s.expiresAt = tokenExpiry(token)
}

func (s *Store) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", ErrNoSession
	}
	return s.token, nil
}

func (s *Store) RefreshToken() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refresh == "" {
		return "", ErrNoSession
	}
	return s.refresh, nil
}

// NeedsRefresh reports whether the access token is expired or about to
// expire. A token with no parseable exp claim is used as-is until the
// server rejects it.
func (s *Store) NeedsRefresh(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return false
	}
	if s.expiresAt.IsZero() {
		return false
	}
	return !now.Add(30 * time.Second).Before(s.expiresAt)
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refresh = ""
	s.expiresAt = time.Time{}
}

func tokenExpiry(token string) time.Time {
	if token == "" {
		return time.Time{}
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
