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

// EnrollmentRepository provides database access for enrollments.
type EnrollmentRepository struct {
	db   *sqlx.DB
	list listRunner
}

// NewEnrollmentRepository creates a new instance of EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB, opts ...ListOption) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, list: newListRunner(db, opts)}
}

// List returns one page of enrollments with student and class names.
func (r *EnrollmentRepository) List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Enrollment], error) {
	return runList[models.Enrollment](ctx, r.list, "enrollments", enrollmentListSpec, req)
}

// FindByID returns an enrollment with its joined names.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id int64) (*models.Enrollment, error) {
	query := `SELECT ` + enrollmentCols + ` FROM ` + enrollmentFrom + ` WHERE e.id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	return &enrollment, nil
}

// Exists reports whether the student is already enrolled in the class.
func (r *EnrollmentRepository) Exists(ctx context.Context, studentID, classID, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM enrollments WHERE student_id = $1 AND class_id = $2 AND id <> $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, studentID, classID, excludeID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return exists, nil
}

// Create inserts an enrollment.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	const query = `INSERT INTO enrollments (student_id, class_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW()) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, enrollment.StudentID, enrollment.ClassID)
	if err := row.Scan(&enrollment.ID, &enrollment.CreatedAt, &enrollment.UpdatedAt); err != nil {
		return fmt.Errorf("create enrollment: %w", translate(err))
	}
	return nil
}

// Update moves an enrollment to another student or class.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	const query = `UPDATE enrollments SET student_id = $1, class_id = $2, updated_at = NOW() WHERE id = $3 RETURNING updated_at`
	row := r.db.QueryRowxContext(ctx, query, enrollment.StudentID, enrollment.ClassID, enrollment.ID)
	if err := row.Scan(&enrollment.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update enrollment: %w", translate(err))
	}
	return nil
}

// Delete removes an enrollment.
func (r *EnrollmentRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "enrollments", id)
}
