package security

import (
	"errors"
	"testing"
	"time"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
)

func newManager(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager("unit-test-secret", "accounts-service-test")
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}
	return m
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", "issuer"); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewTokenManager("   ", "issuer"); err == nil {
		t.Fatal("expected error for blank secret")
	}
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := newManager(t)

	token, err := m.Issue("account-1", "alice@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}

	if claims.Subject != "account-1" {
		t.Fatalf("unexpected subject: %s", claims.Subject)
	}
	if claims.Email != "alice@example.com" {
		t.Fatalf("unexpected email: %s", claims.Email)
	}
	if claims.Role != domain.RoleUser {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if claims.Issuer != "accounts-service-test" {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}

	ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if ttl != SessionTTL {
		t.Fatalf("expected TTL %v, got %v", SessionTTL, ttl)
	}
}

func TestIssueRequiresAccountID(t *testing.T) {
	m := newManager(t)

	if _, err := m.Issue("", "alice@example.com", domain.RoleUser); err == nil {
		t.Fatal("expected error for empty account id")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := newManager(t)

	issued := time.Now().Add(-2 * time.Hour)
	m.WithClock(func() time.Time { return issued })

	token, err := m.Issue("account-1", "alice@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	m.WithClock(time.Now)

	if _, err := m.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for expired token, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	m := newManager(t)

	other, err := NewTokenManager("a-different-secret", "accounts-service-test")
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}

	token, err := other.Issue("account-1", "alice@example.com", domain.RoleUser)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}

func TestVerifyCollapsesFailureModes(t *testing.T) {
	m := newManager(t)

	cases := map[string]string{
		"empty":     "",
		"garbage":   "not-a-jwt",
		"truncated": "eyJhbGciOiJIUzI1NiJ9.e30",
	}

	for name, token := range cases {
		if _, err := m.Verify(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("%s: expected ErrTokenInvalid, got %v", name, err)
		}
	}
}
