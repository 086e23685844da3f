package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/infra/security"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

// AdminService covers privileged account management operations.
type AdminService struct {
	users             port.UserRepository
	admins            port.AdminRepository
	events            port.EventPublisher
	passwordValidator *security.PasswordValidator
	logger            *zap.Logger
	now               func() time.Time
}

// NewAdminService constructs an admin service.
func NewAdminService(users port.UserRepository, admins port.AdminRepository, events port.EventPublisher) *AdminService {
	return &AdminService{
		users:             users,
		admins:            admins,
		events:            events,
		passwordValidator: security.DefaultPasswordValidator(),
		logger:            zap.NewNop(),
		now:               time.Now,
	}
}

// WithLogger attaches a structured logger.
func (s *AdminService) WithLogger(log *zap.Logger) *AdminService {
	if log != nil {
		s.logger = log
	}
	return s
}

// WithClock overrides the internal clock, used in tests.
func (s *AdminService) WithClock(clock func() time.Time) *AdminService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// RegisterAdmin creates an admin account. Admins skip challenge verification
// and are active immediately.
func (s *AdminService) RegisterAdmin(ctx context.Context, email, username, password string) (domain.Admin, error) {
	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" {
		return domain.Admin{}, fmt.Errorf("email is required")
	}
	if username == "" {
		return domain.Admin{}, fmt.Errorf("username is required")
	}
	if strings.TrimSpace(password) == "" {
		return domain.Admin{}, fmt.Errorf("password is required")
	}

	if err := s.passwordValidator.Validate(password); err != nil {
		return domain.Admin{}, fmt.Errorf("%w: %v", ErrPasswordPolicyViolation, err)
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return domain.Admin{}, fmt.Errorf("hash password: %w", err)
	}

	admin := domain.Admin{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Status:       domain.AccountStatusActive,
		RegisteredAt: s.now().UTC(),
	}

	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Admin{}, ErrDuplicateIdentity
		}
		return domain.Admin{}, fmt.Errorf("create admin: %w", err)
	}

	admin.PasswordHash = ""
	return admin, nil
}

// ListUsernames returns the usernames of every user account in registration
// order.
func (s *AdminService) ListUsernames(ctx context.Context) ([]string, error) {
	usernames, err := s.users.ListUsernames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list usernames: %w", err)
	}
	return usernames, nil
}

// GetUser returns the full record of the user with the given username.
func (s *AdminService) GetUser(ctx context.Context, username string) (domain.User, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrAccountNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	user.PasswordHash = ""
	return *user, nil
}

// DeleteUser removes the user with the given username. deletedBy records the
// acting admin for the emitted event.
func (s *AdminService) DeleteUser(ctx context.Context, username, deletedBy string) error {
	username = strings.TrimSpace(username)

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	if err := s.users.DeleteByUsername(ctx, username); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}

	if s.events != nil {
		event := domain.AccountDeletedEvent{
			EventID:   uuid.NewString(),
			AccountID: user.ID,
			Username:  username,
			DeletedBy: deletedBy,
			DeletedAt: s.now().UTC(),
		}
		if err := s.events.PublishAccountDeleted(ctx, event); err != nil {
			s.logger.Warn("publish account deleted failed", zap.Error(err))
		}
	}

	return nil
}
