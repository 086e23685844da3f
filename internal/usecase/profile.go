package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

// ErrAccountNotFound indicates the referenced account does not exist.
var ErrAccountNotFound = errors.New("account not found")

// ProfileService reads and partially updates user profile data.
type ProfileService struct {
	users  port.UserRepository
	logger *zap.Logger
}

// NewProfileService constructs a profile service.
func NewProfileService(users port.UserRepository) *ProfileService {
	return &ProfileService{users: users, logger: zap.NewNop()}
}

// WithLogger attaches a structured logger.
func (s *ProfileService) WithLogger(log *zap.Logger) *ProfileService {
	if log != nil {
		s.logger = log
	}
	return s
}

// Get returns the profile of the given account.
func (s *ProfileService) Get(ctx context.Context, accountID string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, ErrAccountNotFound
		}
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}

	user.PasswordHash = ""
	return *user, nil
}

// Update applies the provided fields to the account's profile and returns the
// resulting state. Absent fields are untouched; an empty update is a no-op
// that still returns the current profile.
func (s *ProfileService) Update(ctx context.Context, accountID string, update domain.ProfileUpdate) (domain.User, error) {
	if !update.Empty() {
		if err := s.users.UpdateProfile(ctx, accountID, update); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return domain.User{}, ErrAccountNotFound
			}
			return domain.User{}, fmt.Errorf("update profile: %w", err)
		}
	}

	return s.Get(ctx, accountID)
}
