package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

type enrollmentRepository interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Enrollment], error)
	FindByID(ctx context.Context, id int64) (*models.Enrollment, error)
	Exists(ctx context.Context, studentID, classID, excludeID int64) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id int64) error
}

type studentLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Student, error)
}

type classLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Class, error)
}

// EnrollmentRequest places a student in a class.
type EnrollmentRequest struct {
	StudentID int64 `json:"studentId" validate:"required,gt=0"`
	ClassID   int64 `json:"classId" validate:"required,gt=0"`
}

var enrollmentExportColumns = export.Columns(
	"id", "ID",
	"class.name", "Kelas",
	"student.name", "Siswa",
	"createdAt", "Dibuat Pada",
	"updatedAt", "Diperbarui Pada",
)

// EnrollmentService links students to classes.
type EnrollmentService struct {
	entityLister[models.Enrollment]
	repo     enrollmentRepository
	students studentLookup
	classes  classLookup
	deps     EntityDeps
	recorder mutationRecorder
}

// NewEnrollmentService constructs the enrollment service.
func NewEnrollmentService(repo enrollmentRepository, students studentLookup, classes classLookup, deps EntityDeps) *EnrollmentService {
	deps = deps.withDefaults()
	return &EnrollmentService{
		entityLister: newEntityLister[models.Enrollment]("enrollments", "Daftar Pendaftaran Kelas", repo, enrollmentExportColumns, deps),
		repo:         repo,
		students:     students,
		classes:      classes,
		deps:         deps,
		recorder:     deps.recorder(),
	}
}

// Get returns one enrollment with its student and class names.
func (s *EnrollmentService) Get(ctx context.Context, id int64) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "enrollment")
	}
	return enrollment, nil
}

// Create enrolls a student into a class once.
func (s *EnrollmentService) Create(ctx context.Context, req EnrollmentRequest) (*models.Enrollment, error) {
	if err := s.check(ctx, req, 0); err != nil {
		return nil, err
	}
	enrollment := &models.Enrollment{StudentID: req.StudentID, ClassID: req.ClassID}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, storeError(err, "enrollment", models.AuditInsert)
	}
	s.recorder.record(ctx, models.EntityEnrollment, models.AuditInsert, nil, enrollment)
	return s.reload(ctx, enrollment), nil
}

// Update moves an enrollment to another student or class.
func (s *EnrollmentService) Update(ctx context.Context, id int64, req EnrollmentRequest) (*models.Enrollment, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "enrollment")
	}
	if err := s.check(ctx, req, id); err != nil {
		return nil, err
	}
	updated := *current
	updated.StudentID = req.StudentID
	updated.ClassID = req.ClassID
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, storeError(err, "enrollment", models.AuditUpdate)
	}
	s.recorder.record(ctx, models.EntityEnrollment, models.AuditUpdate, current, updated)
	return s.reload(ctx, &updated), nil
}

// Delete removes an enrollment.
func (s *EnrollmentService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "enrollment")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "enrollment", models.AuditDelete)
	}
	s.recorder.record(ctx, models.EntityEnrollment, models.AuditDelete, current, nil)
	return nil
}

func (s *EnrollmentService) check(ctx context.Context, req EnrollmentRequest, excludeID int64) error {
	if err := s.deps.Validate.Struct(req); err != nil {
		return invalidPayload(err, "invalid enrollment payload")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return referenceError(err, "studentId", "student")
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		return referenceError(err, "classId", "class")
	}
	exists, err := s.repo.Exists(ctx, req.StudentID, req.ClassID, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "student already enrolled in class")
	}
	return nil
}

// reload fetches the joined names after a write; the bare row is returned
// when the lookup fails.
func (s *EnrollmentService) reload(ctx context.Context, enrollment *models.Enrollment) *models.Enrollment {
	full, err := s.repo.FindByID(ctx, enrollment.ID)
	if err != nil {
		return enrollment
	}
	return full
}

// referenceError reports a missing referenced record as a field error.
func referenceError(err error, field, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, entity+" does not exist"), map[string]string{field: "does not exist"})
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}
