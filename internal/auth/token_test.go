package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"grindfall/server/internal/gameerr"
)

func newTestVerifier(t *testing.T, now *time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier(Config{
		Secret: []byte("test-secret"),
		Issuer: "grindfall",
		Now:    func() time.Time { return *now },
	})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	return v
}

func TestVerifyAcceptsIssuedToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(t, &now)
	token, err := v.Issue("user-1", []string{"hero"}, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	id, err := v.Verify(token, "hero")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "user-1" || id.CharacterID != "hero" {
		t.Fatalf("unexpected identity: %+v", id)
	}

	if _, err := v.Verify(token, "villain"); !errors.Is(err, ErrCharacterNotAllowed) || !gameerr.MustDisconnect(err) {
		t.Fatalf("expected character not allowed, got %v", err)
	}
}

func TestVerifyWithoutCharactersClaimAllowsAny(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(t, &now)
	token, err := v.Issue("user-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(token, "anyone"); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(t, &now)
	token, err := v.Issue("user-1", nil, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := v.Verify(token, "hero"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token, got %v", err)
	}
}

func TestVerifyRejectsForeignSignatures(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(t, &now)

	other, err := NewVerifier(Config{Secret: []byte("other"), Issuer: "grindfall", Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := other.Issue("user-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(token, "hero"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "grindfall",
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := v.Verify(unsigned, "hero"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	v := newTestVerifier(t, &now)
	other, err := NewVerifier(Config{Secret: []byte("test-secret"), Issuer: "elsewhere", Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	token, err := other.Issue("user-1", nil, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := v.Verify(token, "hero"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token, got %v", err)
	}
}

func TestAnonymousVerifier(t *testing.T) {
	v, err := NewVerifier(Config{Anonymous: true})
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	id, err := v.Verify("", "hero")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id.UserID != "hero" {
		t.Fatalf("expected the character id as user id, got %q", id.UserID)
	}
	if _, err := v.Verify("", " "); !gameerr.MustDisconnect(err) {
		t.Fatalf("expected a protocol error for an empty character, got %v", err)
	}
	if _, err := NewVerifier(Config{}); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
