package port

import (
	"context"
	"time"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
)

// UserRepository exposes persistence behavior for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	// GetByIdentifier resolves a user by email or username in one lookup.
	GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error
	DeleteByUsername(ctx context.Context, username string) error
	ListUsernames(ctx context.Context) ([]string, error)
}

// AdminRepository exposes persistence behavior for admin accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin domain.Admin) error
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)
	GetByIdentifier(ctx context.Context, identifier string) (*domain.Admin, error)
}

// ChallengeRepository persists short-lived verification challenges keyed by
// contact address. Issuing never invalidates earlier challenges for the same
// contact; ConsumeAll removes every outstanding one.
type ChallengeRepository interface {
	Issue(ctx context.Context, contact, code string, ttl time.Duration) (*domain.Challenge, error)
	Validate(ctx context.Context, contact, code string) error
	ConsumeAll(ctx context.Context, contact string) error
}
