package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/infra/logger"
	"github.com/mkordulewski/accounts-service/internal/infra/security"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

var (
	// ErrDuplicateIdentity indicates an account with the same email or username already exists.
	ErrDuplicateIdentity = errors.New("account already exists")
	// ErrInvalidOrExpiredOTP indicates the presented challenge code is wrong, consumed, or past expiry.
	ErrInvalidOrExpiredOTP = errors.New("verification code invalid or expired")
	// ErrPasswordPolicyViolation indicates the password does not satisfy strength requirements.
	ErrPasswordPolicyViolation = errors.New("password does not meet requirements")
)

// RegistrationService handles user onboarding and challenge redemption.
type RegistrationService struct {
	users             port.UserRepository
	challenges        port.ChallengeRepository
	notifier          port.Notifier
	events            port.EventPublisher
	tokens            *security.TokenManager
	passwordValidator *security.PasswordValidator
	verifyBaseURL     string
	logger            *zap.Logger
	now               func() time.Time
}

// NewRegistrationService constructs a registration service. verifyBaseURL is
// the externally reachable base used to build redemption links.
func NewRegistrationService(
	users port.UserRepository,
	challenges port.ChallengeRepository,
	notifier port.Notifier,
	events port.EventPublisher,
	tokens *security.TokenManager,
	verifyBaseURL string,
) *RegistrationService {
	return &RegistrationService{
		users:             users,
		challenges:        challenges,
		notifier:          notifier,
		events:            events,
		tokens:            tokens,
		passwordValidator: security.DefaultPasswordValidator(),
		verifyBaseURL:     strings.TrimRight(verifyBaseURL, "/"),
		logger:            zap.NewNop(),
		now:               time.Now,
	}
}

// WithLogger attaches a structured logger.
func (s *RegistrationService) WithLogger(log *zap.Logger) *RegistrationService {
	if log != nil {
		s.logger = log
	}
	return s
}

// WithPasswordValidator overrides the password policy.
func (s *RegistrationService) WithPasswordValidator(v *security.PasswordValidator) *RegistrationService {
	if v != nil {
		s.passwordValidator = v
	}
	return s
}

// WithClock overrides the internal clock, used in tests.
func (s *RegistrationService) WithClock(clock func() time.Time) *RegistrationService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// RegisterResult captures the outcome of a successful registration.
type RegisterResult struct {
	User      domain.User
	ExpiresAt time.Time
	// DeliveryFailed is set when the account was persisted but the
	// verification message could not be dispatched. The account stays
	// pending; the challenge remains redeemable until it expires.
	DeliveryFailed bool
}

// RegisterUser creates a pending user account and dispatches a verification
// challenge to its email address.
//
// Ordering is load-bearing: the challenge is persisted before the account,
// and the account before the notification. A challenge issuance failure
// aborts with no account created. An account persistence failure strands the
// challenge, which expires naturally and can never be redeemed. A dispatch
// failure leaves the pending account in place and is reported through
// RegisterResult.DeliveryFailed rather than an error.
func (s *RegistrationService) RegisterUser(ctx context.Context, email, username, password string) (RegisterResult, error) {
	var zero RegisterResult

	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" {
		return zero, fmt.Errorf("email is required")
	}
	if username == "" {
		return zero, fmt.Errorf("username is required")
	}
	if strings.TrimSpace(password) == "" {
		return zero, fmt.Errorf("password is required")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return zero, fmt.Errorf("hash password: %w", err)
	}

	code, err := security.GenerateOTPCode()
	if err != nil {
		return zero, fmt.Errorf("generate verification code: %w", err)
	}

	challenge, err := s.challenges.Issue(ctx, email, code, domain.ChallengeTTL)
	if err != nil {
		return zero, fmt.Errorf("issue challenge: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Status:       domain.AccountStatusPending,
		RegisteredAt: s.now().UTC(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return zero, ErrDuplicateIdentity
		}
		return zero, fmt.Errorf("create user: %w", err)
	}

	s.publishRegistered(ctx, user)

	result := RegisterResult{User: user, ExpiresAt: challenge.ExpiresAt}

	msg := port.VerificationMessage{
		Contact:   email,
		Username:  username,
		Code:      code,
		Link:      s.verificationLink(email, code),
		ExpiresAt: challenge.ExpiresAt,
	}
	if err := s.notifier.SendVerification(ctx, msg); err != nil {
		s.logger.Error("verification dispatch failed",
			zap.String("email", logger.MaskEmail(email)),
			zap.Error(err),
		)
		result.DeliveryFailed = true
	}

	result.User.PasswordHash = ""
	return result, nil
}

// VerifyAccount redeems a challenge, activates the matching user, and issues
// a session token. On any validation failure the account is left untouched.
func (s *RegistrationService) VerifyAccount(ctx context.Context, contact, code string) (domain.User, string, error) {
	contact = strings.TrimSpace(contact)
	code = strings.TrimSpace(code)
	if contact == "" || code == "" {
		return domain.User{}, "", ErrInvalidOrExpiredOTP
	}

	if err := s.challenges.Validate(ctx, contact, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, "", ErrInvalidOrExpiredOTP
		}
		return domain.User{}, "", fmt.Errorf("validate challenge: %w", err)
	}

	user, err := s.users.GetByEmail(ctx, contact)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, "", ErrInvalidOrExpiredOTP
		}
		return domain.User{}, "", fmt.Errorf("lookup user: %w", err)
	}

	if err := s.users.UpdateStatus(ctx, user.ID, domain.AccountStatusActive); err != nil {
		return domain.User{}, "", fmt.Errorf("activate user: %w", err)
	}
	user.Status = domain.AccountStatusActive

	token, err := s.tokens.Issue(user.ID, user.Email, domain.RoleUser)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session token: %w", err)
	}

	if err := s.challenges.ConsumeAll(ctx, contact); err != nil {
		// The account is already active; leftover challenges expire on
		// their own within the TTL.
		s.logger.Warn("consume challenges failed",
			zap.String("email", logger.MaskEmail(contact)),
			zap.Error(err),
		)
	}

	s.publishVerified(ctx, *user)

	user.PasswordHash = ""
	return *user, token, nil
}

func (s *RegistrationService) verificationLink(contact, code string) string {
	if s.verifyBaseURL == "" {
		return ""
	}

	query := url.Values{}
	query.Set("contact", contact)
	query.Set("code", code)

	return fmt.Sprintf("%s/api/v1/user/verify?%s", s.verifyBaseURL, query.Encode())
}

func (s *RegistrationService) publishRegistered(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}

	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    user.ID,
		Username:     user.Username,
		Email:        user.Email,
		Role:         domain.RoleUser,
		Status:       user.Status,
		RegisteredAt: user.RegisteredAt,
	}
	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.logger.Warn("publish account registered failed", zap.Error(err))
	}
}

func (s *RegistrationService) publishVerified(ctx context.Context, user domain.User) {
	if s.events == nil {
		return
	}

	event := domain.AccountVerifiedEvent{
		EventID:    uuid.NewString(),
		AccountID:  user.ID,
		Email:      user.Email,
		VerifiedAt: s.now().UTC(),
	}
	if err := s.events.PublishAccountVerified(ctx, event); err != nil {
		s.logger.Warn("publish account verified failed", zap.Error(err))
	}
}
