package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quote_api/internal/model"

	"github.com/jmoiron/sqlx"
)

type userRow struct {
	ID           string `db:"id"`
	Email        string `db:"email"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func toUserRow(u model.User) userRow {
	return userRow{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         u.Role,
		CreatedAt:    formatTime(u.CreatedAt),
		UpdatedAt:    formatTime(u.UpdatedAt),
	}
}

func fromUserRow(row userRow) (*model.User, error) {
	createdAt, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &model.User{
		ID:           row.ID,
		Email:        row.Email,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		Role:         row.Role,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

type sqliteUserRepository struct {
	db *sqlx.DB
}

// NewSQLiteUserRepository creates a SQLite backed UserRepository
func NewSQLiteUserRepository(db *sqlx.DB) UserRepository {
	return &sqliteUserRepository{db: db}
}

func (r *sqliteUserRepository) get(ctx context.Context, what, query string, args ...any) (*model.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find user by %s: %w", what, err)
	}
	return fromUserRow(row)
}

func (r *sqliteUserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, username, password_hash, role, created_at, updated_at)
              VALUES (:id, :email, :username, :password_hash, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, toUserRow(*user)); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *sqliteUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.get(ctx, "ID", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *sqliteUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, "email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *sqliteUserRepository) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	return r.get(ctx, "email or username",
		`SELECT `+userColumns+` FROM users WHERE email = ? OR username = ? LIMIT 1`, email, username)
}

func (r *sqliteUserRepository) Update(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET email = :email, username = :username, password_hash = :password_hash,
              role = :role, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, toUserRow(*user))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (r *sqliteUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
