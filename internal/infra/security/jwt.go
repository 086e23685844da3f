package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
)

// SessionTTL is how long issued session tokens stay valid, for both tenant
// classes.
const SessionTTL = time.Hour

// ErrTokenInvalid covers every verification failure: bad signature, malformed
// token, and expiry. Callers cannot distinguish them.
var ErrTokenInvalid = errors.New("session token invalid or expired")

// SessionClaims is the complete, stateless proof of authentication carried by
// a bearer token.
type SessionClaims struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager mints and validates signed session tokens. The signing secret
// is process-wide configuration loaded once at startup.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager. The secret is required.
func NewTokenManager(secret, issuer string) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("signing secret is required")
	}

	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    SessionTTL,
		now:    time.Now,
	}, nil
}

// TTL returns the configured session lifetime.
func (m *TokenManager) TTL() time.Duration {
	return m.ttl
}

// Issue signs a session token for the given identity.
func (m *TokenManager) Issue(accountID, email string, role domain.Role) (string, error) {
	if accountID == "" {
		return "", errors.New("account id is required")
	}

	now := m.now().UTC()
	claims := SessionClaims{
		Email: email,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify validates a session token and returns its claims. Signature failure
// and expiry collapse into ErrTokenInvalid so callers never leak which one
// occurred.
func (m *TokenManager) Verify(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }))
	if err != nil || parsed == nil || !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// WithClock overrides the internal clock, used in tests.
func (m *TokenManager) WithClock(clock func() time.Time) *TokenManager {
	if clock != nil {
		m.now = clock
	}
	return m
}
