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

// StudentRepository provides database access for students.
type StudentRepository struct {
	db   *sqlx.DB
	list listRunner
}

// NewStudentRepository creates a new instance of StudentRepository.
func NewStudentRepository(db *sqlx.DB, opts ...ListOption) *StudentRepository {
	return &StudentRepository{db: db, list: newListRunner(db, opts)}
}

// List returns one page of students matching req.
func (r *StudentRepository) List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Student], error) {
	return runList[models.Student](ctx, r.list, "students", studentListSpec, req)
}

// FindByID returns a student by identifier.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// ExistsByNISN reports whether another student already uses nisn.
func (r *StudentRepository) ExistsByNISN(ctx context.Context, nisn string, excludeID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM students WHERE nisn = $1 AND id <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, nisn, excludeID); err != nil {
		return false, fmt.Errorf("check student nisn: %w", err)
	}
	return exists, nil
}

// Create inserts a student and fills its generated fields.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (nisn, name, dob, guardian_contact, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, student.NISN, student.Name, student.DOB, student.GuardianContact, student.IsActive)
	if err := row.Scan(&student.ID, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", translate(err))
	}
	return nil
}

// Update persists every editable column of student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET nisn = $1, name = $2, dob = $3, guardian_contact = $4, is_active = $5, updated_at = NOW()
WHERE id = $6 RETURNING updated_at`
	row := r.db.QueryRowxContext(ctx, query, student.NISN, student.Name, student.DOB, student.GuardianContact, student.IsActive, student.ID)
	if err := row.Scan(&student.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("update student: %w", translate(err))
	}
	return nil
}

// Delete removes a student.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	return deleteByID(ctx, r.db, "students", id)
}
