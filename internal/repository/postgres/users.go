package postgres

import (
	"context"
	"database/sql"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/core/port"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

const usersTable = "accounts.users"

var userColumns = []string{
	"id",
	"email",
	"username",
	"password_hash",
	"status",
	"registered_at",
	"name",
	"location",
	"age",
	"occupation",
	"date_of_birth",
	"description",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewUserRepository(exec pgExecutor) *UserRepository {
	return &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new user row. A uniqueness violation on email or username
// surfaces as repository.ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert(usersTable).
		Columns(userColumns...).
		Values(
			user.ID,
			user.Email,
			user.Username,
			user.PasswordHash,
			user.Status,
			user.RegisteredAt,
			user.Name,
			user.Location,
			user.Age,
			user.Occupation,
			user.DateOfBirth,
			user.Description,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByIdentifier retrieves a user by email or username.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Or{
		squirrel.Eq{"email": identifier},
		squirrel.Eq{"username": identifier},
	})
}

func (r *UserRepository) getOne(ctx context.Context, pred any) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From(usersTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)
	user, err := scanUser(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user        domain.User
		name        sql.NullString
		location    sql.NullString
		age         sql.NullInt32
		occupation  sql.NullString
		dateOfBirth sql.NullTime
		description sql.NullString
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Status,
		&user.RegisteredAt,
		&name,
		&location,
		&age,
		&occupation,
		&dateOfBirth,
		&description,
	); err != nil {
		return nil, err
	}

	if name.Valid {
		v := name.String
		user.Name = &v
	}
	if location.Valid {
		v := location.String
		user.Location = &v
	}
	if age.Valid {
		v := int(age.Int32)
		user.Age = &v
	}
	if occupation.Valid {
		v := occupation.String
		user.Occupation = &v
	}
	if dateOfBirth.Valid {
		v := dateOfBirth.Time.UTC()
		user.DateOfBirth = &v
	}
	if description.Valid {
		v := description.String
		user.Description = &v
	}

	return &user, nil
}

// UpdateStatus updates the lifecycle status for a user.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus) error {
	stmt, args, err := r.builder.Update(usersTable).
		Set("status", status).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user status sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// UpdateProfile applies only the fields present in the update. Absent fields
// stay untouched; an empty update is a no-op.
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error {
	if update.Empty() {
		return nil
	}

	query := r.builder.Update(usersTable).Where(squirrel.Eq{"id": id})

	if update.Name != nil {
		query = query.Set("name", *update.Name)
	}
	if update.Location != nil {
		query = query.Set("location", *update.Location)
	}
	if update.Age != nil {
		query = query.Set("age", *update.Age)
	}
	if update.Occupation != nil {
		query = query.Set("occupation", *update.Occupation)
	}
	if update.DateOfBirth != nil {
		query = query.Set("date_of_birth", update.DateOfBirth.UTC())
	}
	if update.Description != nil {
		query = query.Set("description", *update.Description)
	}

	stmt, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build update profile sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByUsername removes a user row permanently.
func (r *UserRepository) DeleteByUsername(ctx context.Context, username string) error {
	stmt, args, err := r.builder.Delete(usersTable).
		Where(squirrel.Eq{"username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListUsernames returns every username ordered by registration time.
func (r *UserRepository) ListUsernames(ctx context.Context) ([]string, error) {
	stmt, args, err := r.builder.Select("username").
		From(usersTable).
		OrderBy("registered_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list usernames sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query usernames: %w", err)
	}
	defer rows.Close()

	usernames := make([]string, 0)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		usernames = append(usernames, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usernames: %w", err)
	}

	return usernames, nil
}

var _ port.UserRepository = (*UserRepository)(nil)
