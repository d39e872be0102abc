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

// ClassRepository provides database access for classes.
type ClassRepository struct {
	db   *sqlx.DB
	list listRunner
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB, opts ...ListOption) *ClassRepository {
	return &ClassRepository{db: db, list: newListRunner(db, opts)}
}

// List returns one page of classes matching req.
func (r *ClassRepository) List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Class], error) {
	return runList[models.Class](ctx, r.list, "classes", classListSpec, req)
}

// FindByID returns a class by identifier.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes c WHERE c.id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// Create inserts a class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (name, year, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id, created_at, updated_at`
	if err := r.db.QueryRowxContext(ctx, query, class.Name, class.Year).Scan(&class.ID, &class.CreatedAt, &class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", translate(err))
	}
	return nil
}

// Update persists name and year.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	const query = `UPDATE classes SET name = $1, year = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at`
	if err := r.db.QueryRowxContext(ctx, query, class.Name, class.Year, class.ID).Scan(&class.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update class: %w", translate(err))
	}
	return nil
}

// Delete removes a class.
func (r *ClassRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "classes", id)
}
