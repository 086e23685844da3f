package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

const adminsTable = "accounts.admins"

var adminColumns = []string{
	"id",
	"email",
	"username",
	"password_hash",
	"status",
	"registered_at",
}

// AdminRepository implements port.AdminRepository using PostgreSQL.
type AdminRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAdminRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewAdminRepository(exec pgExecutor) *AdminRepository {
	return &AdminRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new admin row. A uniqueness violation surfaces as
// repository.ErrDuplicate.
func (r *AdminRepository) Create(ctx context.Context, admin domain.Admin) error {
	stmt, args, err := r.builder.Insert(adminsTable).
		Columns(adminColumns...).
		Values(
			admin.ID,
			admin.Email,
			admin.Username,
			admin.PasswordHash,
			admin.Status,
			admin.RegisteredAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert admin sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	return nil
}

// GetByEmail retrieves an admin by email address.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByIdentifier retrieves an admin by email or username.
func (r *AdminRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.Admin, error) {
	return r.getOne(ctx, squirrel.Or{
		squirrel.Eq{"email": identifier},
		squirrel.Eq{"username": identifier},
	})
}

func (r *AdminRepository) getOne(ctx context.Context, pred any) (*domain.Admin, error) {
	stmt, args, err := r.builder.
		Select(adminColumns...).
		From(adminsTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select admin sql: %w", err)
	}

	var admin domain.Admin
	row := r.exec.QueryRow(ctx, stmt, args...)
	if err := row.Scan(
		&admin.ID,
		&admin.Email,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Status,
		&admin.RegisteredAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin: %w", err)
	}

	return &admin, nil
}

var _ port.AdminRepository = (*AdminRepository)(nil)
