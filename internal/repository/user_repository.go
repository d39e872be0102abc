package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

// UserRepository provides database access for user management and sessions.
type UserRepository struct {
	db   *sqlx.DB
	list listRunner
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB, opts ...ListOption) *UserRepository {
	return &UserRepository{db: db, list: newListRunner(db, opts)}
}

// List returns one page of users with their role.
func (r *UserRepository) List(ctx context.Context, req listquery.Request) (*listquery.Result[models.User], error) {
	return runList[models.User](ctx, r.list, "users", userListSpec, req)
}

// FindByID returns a user, including the password hash.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return r.findOne(ctx, "u.id = $1", id)
}

// FindByEmail returns a user by email address, including the password hash.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "LOWER(u.email) = LOWER($1)", email)
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*models.User, error) {
	query := `SELECT ` + userColumns + `, u.password_hash FROM ` + userFrom + ` WHERE ` + where + ` LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// ExistsByEmail reports whether another user already uses email.
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check user email: %w", err)
	}
	return exists, nil
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (name, email, password_hash, bio, is_active, role_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Bio, user.IsActive, user.RoleID)
	if err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("create user: %w", translate(err))
	}
	return nil
}

// Update persists profile fields, role and password hash.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	const query = `UPDATE users SET name = $1, email = $2, password_hash = $3, bio = $4, is_active = $5, role_id = $6, updated_at = NOW()
WHERE id = $7 RETURNING updated_at`
	row := r.db.QueryRowxContext(ctx, query, user.Name, user.Email, user.PasswordHash, user.Bio, user.IsActive, user.RoleID, user.ID)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update user: %w", translate(err))
	}
	return nil
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "users", id)
}

// CreateRefreshToken stores a refresh session.
func (r *UserRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, user_id, expires_at, created_at, ip_address, user_agent)
VALUES (:id, :user_id, :expires_at, :created_at, :ip_address, :user_agent)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken looks up a refresh session by its token id.
func (r *UserRepository) FindRefreshToken(ctx context.Context, id string) (*models.RefreshToken, error) {
	const query = `SELECT id, user_id, expires_at, created_at, revoked_at, ip_address, user_agent FROM refresh_tokens WHERE id = $1`
	var token models.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &token, nil
}

// RevokeRefreshToken marks one refresh session as revoked.
func (r *UserRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every open session of a user.
func (r *UserRepository) RevokeUserRefreshTokens(ctx context.Context, userID int64, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, userID, revokedAt); err != nil {
		return fmt.Errorf("revoke user refresh tokens: %w", err)
	}
	return nil
}
