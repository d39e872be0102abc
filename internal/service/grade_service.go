package service

import (
	"context"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

type gradeRepository interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Grade], error)
	FindByID(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id int64) error
}

// CreateGradeRequest records a score for a student.
type CreateGradeRequest struct {
	StudentID int64    `json:"studentId" validate:"required,gt=0"`
	Subject   string   `json:"subject" validate:"required,min=1,max=100"`
	Term      string   `json:"term" validate:"required,min=1,max=50"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=100"`
}

// UpdateGradeRequest holds a partial grade update.
type UpdateGradeRequest struct {
	StudentID *int64   `json:"studentId" validate:"omitempty,gt=0"`
	Subject   *string  `json:"subject" validate:"omitempty,min=1,max=100"`
	Term      *string  `json:"term" validate:"omitempty,min=1,max=50"`
	Score     *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
}

var gradeExportColumns = export.Columns(
	"id", "ID",
	"studentId", "ID Siswa",
	"subject", "Mata Pelajaran",
	"term", "Semester",
	"score", "Nilai",
	"createdAt", "Dibuat Pada",
	"updatedAt", "Diperbarui Pada",
)

// GradeService manages student scores.
type GradeService struct {
	entityLister[models.Grade]
	repo     gradeRepository
	students studentLookup
	deps     EntityDeps
	recorder mutationRecorder
}

// NewGradeService constructs the grade service.
func NewGradeService(repo gradeRepository, students studentLookup, deps EntityDeps) *GradeService {
	deps = deps.withDefaults()
	return &GradeService{
		entityLister: newEntityLister[models.Grade]("grades", "Daftar Nilai", repo, gradeExportColumns, deps),
		repo:         repo,
		students:     students,
		deps:         deps,
		recorder:     deps.recorder(),
	}
}

// Get returns one grade.
func (s *GradeService) Get(ctx context.Context, id int64) (*models.Grade, error) {
	grade, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "grade")
	}
	return grade, nil
}

// Create stores a new score.
func (s *GradeService) Create(ctx context.Context, req CreateGradeRequest) (*models.Grade, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid grade payload")
	}
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, referenceError(err, "studentId", "student")
	}
	grade := &models.Grade{
		StudentID: req.StudentID,
		Subject:   req.Subject,
		Term:      req.Term,
		Score:     *req.Score,
		Student:   models.StudentRef{Name: student.Name, NISN: student.NISN},
	}
	if err := s.repo.Create(ctx, grade); err != nil {
		return nil, storeError(err, "grade", models.AuditInsert)
	}
	s.recorder.record(ctx, models.EntityGrade, models.AuditInsert, nil, grade)
	return grade, nil
}

// Update applies a partial update.
func (s *GradeService) Update(ctx context.Context, id int64, req UpdateGradeRequest) (*models.Grade, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid grade payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "grade")
	}
	updated := *current
	if req.StudentID != nil && *req.StudentID != current.StudentID {
		student, err := s.students.FindByID(ctx, *req.StudentID)
		if err != nil {
			return nil, referenceError(err, "studentId", "student")
		}
		updated.StudentID = student.ID
		updated.Student = models.StudentRef{Name: student.Name, NISN: student.NISN}
	}
	if req.Subject != nil {
		updated.Subject = *req.Subject
	}
	if req.Term != nil {
		updated.Term = *req.Term
	}
	if req.Score != nil {
		updated.Score = *req.Score
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, storeError(err, "grade", models.AuditUpdate)
	}
	s.recorder.record(ctx, models.EntityGrade, models.AuditUpdate, current, updated)
	return &updated, nil
}

// Delete removes a grade.
func (s *GradeService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "grade")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "grade", models.AuditDelete)
	}
	s.recorder.record(ctx, models.EntityGrade, models.AuditDelete, current, nil)
	return nil
}
