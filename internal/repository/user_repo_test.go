package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"quote_api/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "email", "username", "password_hash", "role", "created_at", "updated_at"}

func newUserMock(t *testing.T) (pgxmock.PgxPoolIface, UserRepository) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewUserRepository(mock)
}

func sampleUser() *model.User {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return &model.User{
		ID:           "u1",
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	mock, repo := newUserMock(t)
	u := sampleUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Create(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	mock, repo := newUserMock(t)
	u := sampleUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	assert.ErrorIs(t, repo.Create(context.Background(), u), ErrDuplicate)
}

func TestUserRepository_Create_OtherError(t *testing.T) {
	mock, repo := newUserMock(t)
	u := sampleUser()

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), u)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicate)
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock, repo := newUserMock(t)
	u := sampleUser()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1`).
		WithArgs(u.Email).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt))

	found, err := repo.FindByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u, found)
}

func TestUserRepository_FindByID_NotFound(t *testing.T) {
	mock, repo := newUserMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM users WHERE id = \$1`).
		WithArgs("nobody").
		WillReturnError(pgx.ErrNoRows)

	found, err := repo.FindByID(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, found)
}

func TestUserRepository_FindByEmailOrUsername(t *testing.T) {
	mock, repo := newUserMock(t)
	u := sampleUser()

	mock.ExpectQuery(`SELECT (.+) FROM users WHERE email = \$1 OR username = \$2`).
		WithArgs("other@example.com", "ada").
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt))

	found, err := repo.FindByEmailOrUsername(context.Background(), "other@example.com", "ada")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "ada", found.Username)
}

func TestUserRepository_Update(t *testing.T) {
	mock, repo := newUserMock(t)
	u := sampleUser()

	mock.ExpectExec(`UPDATE users SET`).
		WithArgs(u.ID, u.Email, u.Username, u.PasswordHash, u.Role, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), u), ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Delete(t *testing.T) {
	mock, repo := newUserMock(t)
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	assert.NoError(t, repo.Delete(context.Background(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
