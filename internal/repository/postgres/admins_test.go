package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/mkordulewski/accounts-service/internal/core/domain"
	"github.com/mkordulewski/accounts-service/internal/repository"
)

func newAdminRepoMock(t *testing.T) (pgxmock.PgxPoolIface, *AdminRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAdminRepository(mock)
}

func TestAdminRepository_Create(t *testing.T) {
	mock, repo := newAdminRepoMock(t)

	registeredAt := time.Now().UTC()
	admin := domain.Admin{
		ID:           "admin-1",
		Email:        "root@example.com",
		Username:     "root",
		PasswordHash: "salt:hash",
		Status:       domain.AccountStatusActive,
		RegisteredAt: registeredAt,
	}

	mock.ExpectExec(`INSERT INTO accounts\.admins`).
		WithArgs(
			admin.ID,
			admin.Email,
			admin.Username,
			admin.PasswordHash,
			admin.Status,
			admin.RegisteredAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), admin); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAdminRepository_CreateDuplicate(t *testing.T) {
	mock, repo := newAdminRepoMock(t)

	mock.ExpectExec(`INSERT INTO accounts\.admins`).
		WithArgs(
			"admin-1", "root@example.com", "root", "salt:hash",
			domain.AccountStatusActive, pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := repo.Create(context.Background(), domain.Admin{
		ID:           "admin-1",
		Email:        "root@example.com",
		Username:     "root",
		PasswordHash: "salt:hash",
		Status:       domain.AccountStatusActive,
		RegisteredAt: time.Now().UTC(),
	})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func adminRows(registeredAt time.Time) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "email", "username", "password_hash", "status", "registered_at",
	}).AddRow(
		"admin-1", "root@example.com", "root", "salt:hash",
		domain.AccountStatusActive, registeredAt,
	)
}

func TestAdminRepository_GetByEmail(t *testing.T) {
	mock, repo := newAdminRepoMock(t)

	mock.ExpectQuery(`SELECT .*FROM accounts\.admins`).
		WithArgs("root@example.com").
		WillReturnRows(adminRows(time.Now().UTC()))

	admin, err := repo.GetByEmail(context.Background(), "root@example.com")
	if err != nil {
		t.Fatalf("GetByEmail returned error: %v", err)
	}

	if admin.ID != "admin-1" || admin.Username != "root" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
}

func TestAdminRepository_GetByIdentifier(t *testing.T) {
	mock, repo := newAdminRepoMock(t)

	mock.ExpectQuery(`SELECT .*FROM accounts\.admins`).
		WithArgs("root", "root").
		WillReturnRows(adminRows(time.Now().UTC()))

	admin, err := repo.GetByIdentifier(context.Background(), "root")
	if err != nil {
		t.Fatalf("GetByIdentifier returned error: %v", err)
	}

	if admin.Email != "root@example.com" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
}

func TestAdminRepository_GetByIdentifierMiss(t *testing.T) {
	mock, repo := newAdminRepoMock(t)

	mock.ExpectQuery(`SELECT .*FROM accounts\.admins`).
		WithArgs("ghost", "ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByIdentifier(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
