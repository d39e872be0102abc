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

// GradeRepository provides database access for grades.
type GradeRepository struct {
	db   *sqlx.DB
	list listRunner
}

// NewGradeRepository creates a new instance of GradeRepository.
func NewGradeRepository(db *sqlx.DB, opts ...ListOption) *GradeRepository {
	return &GradeRepository{db: db, list: newListRunner(db, opts)}
}

// List returns one page of grades with the student's name.
func (r *GradeRepository) List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Grade], error) {
	return runList[models.Grade](ctx, r.list, "grades", gradeListSpec, req)
}

// FindByID returns a grade by identifier.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM ` + gradeFrom + ` WHERE g.id = $1`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	const query = `INSERT INTO grades (student_id, subject, term, score, created_at, updated_at)
VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, grade.StudentID, grade.Subject, grade.Term, grade.Score)
	if err := row.Scan(&grade.ID, &grade.CreatedAt, &grade.UpdatedAt); err != nil {
		return fmt.Errorf("create grade: %w", translate(err))
	}
	return nil
}

// Update persists subject, term and score.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	const query = `UPDATE grades SET student_id = $1, subject = $2, term = $3, score = $4, updated_at = NOW() WHERE id = $5 RETURNING updated_at`
	row := r.db.QueryRowxContext(ctx, query, grade.StudentID, grade.Subject, grade.Term, grade.Score, grade.ID)
	if err := row.Scan(&grade.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update grade: %w", translate(err))
	}
	return nil
}

// Delete removes a grade.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "grades", id)
}
