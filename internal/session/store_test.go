package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	out, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return out
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		exp  time.Time
		want bool
	}{
		{"fresh token", now.Add(time.Hour), false},
		{"expired token", now.Add(-time.Minute), true},
		{"expiring within the grace window", now.Add(10 * time.Second), true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(signedToken(t, tc.exp), "refresh-1")
			if got := s.NeedsRefresh(now); got != tc.want {
				t.Fatalf("NeedsRefresh = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOpaqueTokenIsUsedAsIs(t *testing.T) {
	s := New("not-a-jwt", "refresh-1")
	if s.NeedsRefresh(time.Now()) {
		t.Fatal("token without parseable exp should not trigger refresh")
	}
	token, err := s.Token()
	if err != nil || token != "not-a-jwt" {
		t.Fatalf("Token() = %q, %v", token, err)
	}
}

func TestClear(t *testing.T) {
	s := New(signedToken(t, time.Now().Add(time.Hour)), "refresh-1")
	s.Clear()
	if _, err := s.Token(); err != ErrNoSession {
		t.Fatalf("Token after Clear: %v, want ErrNoSession", err)
	}
	if s.NeedsRefresh(time.Now()) {
		t.Fatal("empty session should not ask for refresh")
	}
}

func TestSetReplacesPair(t *testing.T) {
	s := New(signedToken(t, time.Now().Add(-time.Hour)), "refresh-1")
	if !s.NeedsRefresh(time.Now()) {
		t.Fatal("expired token should need refresh")
	}
	s.Set(signedToken(t, time.Now().Add(time.Hour)), "refresh-2")
	if s.NeedsRefresh(time.Now()) {
		t.Fatal("replaced token should be fresh")
	}
	refresh, err := s.RefreshToken()
	if err != nil || refresh != "refresh-2" {
		t.Fatalf("RefreshToken = %q, %v", refresh, err)
	}
}
