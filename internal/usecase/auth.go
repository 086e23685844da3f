package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/infra/logger"
	"github.com/mkordulewski/accounts-service/internal/infra/security"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown identities and wrong
	// passwords so responses never reveal which one failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrNotVerified indicates the account exists but has not redeemed its
	// verification challenge yet.
	ErrNotVerified = errors.New("account not verified")
)

// AuthService authenticates accounts and issues session tokens.
type AuthService struct {
	users  port.UserRepository
	admins port.AdminRepository
	tokens *security.TokenManager
	logger *zap.Logger
}

// NewAuthService constructs an authentication service.
func NewAuthService(users port.UserRepository, admins port.AdminRepository, tokens *security.TokenManager) *AuthService {
	return &AuthService{
		users:  users,
		admins: admins,
		tokens: tokens,
		logger: zap.NewNop(),
	}
}

// WithLogger attaches a structured logger.
func (s *AuthService) WithLogger(log *zap.Logger) *AuthService {
	if log != nil {
		s.logger = log
	}
	return s
}

// LoginResult carries the authenticated identity and its session token.
type LoginResult struct {
	AccountID string
	Email     string
	Username  string
	Role      domain.Role
	Token     string
	ExpiresIn time.Duration
}

// LoginUser authenticates a user by email or username. Pending accounts are
// rejected with ErrNotVerified only after the password checks out, so the
// verified flag never becomes an account-existence oracle.
func (s *AuthService) LoginUser(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Burn a hash comparison so lookup misses and password
			// mismatches take comparable time.
			_, _ = security.VerifyPassword(password, decoyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if ok, err := security.VerifyPassword(password, user.PasswordHash); err != nil || !ok {
		s.logger.Info("user login rejected",
			zap.String("email", logger.MaskEmail(user.Email)),
		)
		return LoginResult{}, ErrInvalidCredentials
	}

	if user.Status != domain.AccountStatusActive {
		return LoginResult{}, ErrNotVerified
	}

	token, err := s.tokens.Issue(user.ID, user.Email, domain.RoleUser)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}

	return LoginResult{
		AccountID: user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Role:      domain.RoleUser,
		Token:     token,
		ExpiresIn: security.SessionTTL,
	}, nil
}

// LoginAdmin authenticates an admin by email or username. Admin accounts are
// active from creation, so no verification gate applies.
func (s *AuthService) LoginAdmin(ctx context.Context, identifier, password string) (LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}

	admin, err := s.admins.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = security.VerifyPassword(password, decoyHash)
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup admin: %w", err)
	}

	if ok, err := security.VerifyPassword(password, admin.PasswordHash); err != nil || !ok {
		s.logger.Info("admin login rejected",
			zap.String("email", logger.MaskEmail(admin.Email)),
		)
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(admin.ID, admin.Email, domain.RoleAdmin)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}

	return LoginResult{
		AccountID: admin.ID,
		Email:     admin.Email,
		Username:  admin.Username,
		Role:      domain.RoleAdmin,
		Token:     token,
		ExpiresIn: security.SessionTTL,
	}, nil
}

// decoyHash is a valid argon2id digest of a random throwaway value, compared
// against when the identity lookup misses.
var decoyHash = func() string {
	h, err := security.HashPassword("decoy-credential-timing-pad")
	if err != nil {
		panic(err)
	}
	return h
}()
