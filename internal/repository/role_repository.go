package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

// RoleRepository provides database access for roles.
type RoleRepository struct {
	db   *sqlx.DB
	list listRunner
}

// NewRoleRepository creates a new instance of RoleRepository.
func NewRoleRepository(db *sqlx.DB, opts ...ListOption) *RoleRepository {
	return &RoleRepository{db: db, list: newListRunner(db, opts)}
}

// List returns one page of roles matching req.
func (r *RoleRepository) List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Role], error) {
	return runList[models.Role](ctx, r.list, "roles", roleListSpec, req)
}

// FindByID returns a role by identifier.
func (r *RoleRepository) FindByID(ctx context.Context, id int64) (*models.Role, error) {
	query := `SELECT ` + roleColumns + ` FROM roles r WHERE r.id = $1`
	var role models.Role
	if err := r.db.GetContext(ctx, &role, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return &role, nil
}

// ExistsByName reports whether another role already uses name.
func (r *RoleRepository) ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM roles WHERE LOWER(name) = LOWER($1) AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("check role name: %w", err)
	}
	return exists, nil
}

// Create inserts a role.
func (r *RoleRepository) Create(ctx context.Context, role *models.Role) error {
	const query = `INSERT INTO roles (name, created_at, updated_at) VALUES ($1, NOW(), NOW()) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, role.Name).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt); err != nil {
		return fmt.Errorf("create role: %w", translate(err))
	}
	return nil
}

// Update renames a role.
func (r *RoleRepository) Update(ctx context.Context, role *models.Role) error {
	const query = `UPDATE roles SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, query, role.Name, role.ID).Scan(&role.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update role: %w", translate(err))
	}
	return nil
}

// Delete removes a role.
func (r *RoleRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "roles", id)
}
