package token

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token is the composite access/refresh credential pair. It is an immutable
// value: a refresh replaces the whole pair.
type Token struct {
	// AccessToken authenticates requests.
	AccessToken string
	// RefreshToken obtains the next pair.
	RefreshToken string
}

// Storage persists the current token pair. Implementations must be safe for
// concurrent use. Get returns (nil, nil) when no token is stored.
type Storage interface {
	Get(ctx context.Context) (*Token, error)
	Set(ctx context.Context, t *Token) error
	Remove(ctx context.Context) error
}

// MemoryStorage is the in-memory reference Storage.
type MemoryStorage struct {
	mu    sync.RWMutex
	token *Token
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Get returns the stored token, or nil when none is set.
func (s *MemoryStorage) Get(_ context.Context) (*Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

// Set stores a token pair.
func (s *MemoryStorage) Set(_ context.Context, t *Token) error {
	s.mu.Lock()
	s.token = t
	s.mu.Unlock()
	return nil
}

// Remove clears the stored token.
func (s *MemoryStorage) Remove(_ context.Context) error {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
	return nil
}

// Expiry extracts the expiry time from a JWT access token without verifying
// its signature. Verification is the issuer's concern; the client only needs
// the timestamp to decide whether a refresh is due.
func Expiry(accessToken string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether a JWT access token is expired or expires within
// leeway. Opaque tokens (not parseable as JWT) and tokens without an exp
// claim report false: their lifetime is unknowable here and expiry is left
// to the server's 401.
func Expired(accessToken string, leeway time.Duration) bool {
	exp, err := Expiry(accessToken)
	if err != nil || exp.IsZero() {
		return false
	}
	return time.Now().Add(leeway).After(exp)
}
