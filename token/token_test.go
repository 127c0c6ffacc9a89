package token

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, err := Expiry(signedToken(t, exp))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(exp) {
		t.Errorf("expiry = %v, want %v", got, exp)
	}
}

func TestExpired(t *testing.T) {
	future := signedToken(t, time.Now().Add(time.Hour))
	past := signedToken(t, time.Now().Add(-time.Hour))

	if Expired(future, 0) {
		t.Error("future token reported expired")
	}
	if !Expired(past, 0) {
		t.Error("past token not reported expired")
	}
	// Leeway larger than the remaining lifetime counts as expired.
	if !Expired(future, 2*time.Hour) {
		t.Error("token within leeway not reported expired")
	}
	// Opaque tokens defer expiry to the server.
	if Expired("not-a-jwt", 0) {
		t.Error("opaque token reported expired")
	}
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	got, err := s.Get(ctx)
	if err != nil || got != nil {
		t.Fatalf("empty Get = (%v, %v), want (nil, nil)", got, err)
	}

	pair := &Token{AccessToken: "a", RefreshToken: "r"}
	if err := s.Set(ctx, pair); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ = s.Get(ctx)
	if got != pair {
		t.Errorf("get = %+v, want the stored pair", got)
	}

	if err := s.Remove(ctx); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ = s.Get(ctx)
	if got != nil {
		t.Errorf("get after remove = %+v, want nil", got)
	}
}
