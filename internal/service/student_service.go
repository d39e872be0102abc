package service

import (
	"context"
	"time"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

const dateLayout = "2006-01-02"

type studentRepository interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Student], error)
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsByNISN(ctx context.Context, nisn string, excludeID int64) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// CreateStudentRequest holds payload for creating students.
type CreateStudentRequest struct {
	NISN            string  `json:"nisn" validate:"required,max=20"`
	Name            string  `json:"name" validate:"required,max=100"`
	DOB             string  `json:"dob" validate:"required,datetime=2006-01-02"`
	GuardianContact *string `json:"guardianContact" validate:"omitempty,max=50"`
	IsActive        *bool   `json:"isActive"`
}

// UpdateStudentRequest holds a partial student update.
type UpdateStudentRequest struct {
	NISN            *string `json:"nisn" validate:"omitempty,min=1,max=20"`
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	DOB             *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	GuardianContact *string `json:"guardianContact" validate:"omitempty,max=50"`
	IsActive        *bool   `json:"isActive"`
}

var studentExportColumns = export.Columns(
	"id", "ID",
	"nisn", "NISN",
	"name", "Nama",
	"dob", "Tanggal Lahir",
	"guardianContact", "Nomor Kontak Wali",
	"createdAt", "Dibuat Pada",
	"updatedAt", "Diperbarui Pada",
)

// StudentService handles student use-cases.
type StudentService struct {
	entityLister[models.Student]
	repo     studentRepository
	deps     EntityDeps
	recorder mutationRecorder
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, deps EntityDeps) *StudentService {
	deps = deps.withDefaults()
	return &StudentService{
		entityLister: newEntityLister[models.Student]("students", "Daftar Siswa", repo, studentExportColumns, deps),
		repo:         repo,
		deps:         deps,
		recorder:     deps.recorder(),
	}
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "student")
	}
	return student, nil
}

// Create registers a new student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid student payload")
	}
	if err := s.ensureUniqueNISN(ctx, req.NISN, 0); err != nil {
		return nil, err
	}
	dob, _ := time.Parse(dateLayout, req.DOB)
	student := &models.Student{
		NISN:            req.NISN,
		Name:            req.Name,
		DOB:             &dob,
		GuardianContact: req.GuardianContact,
		IsActive:        req.IsActive == nil || *req.IsActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, storeError(err, "student", models.AuditInsert)
	}
	s.recorder.record(ctx, models.EntityStudent, models.AuditInsert, nil, student)
	return student, nil
}

// Update applies a partial update.
func (s *StudentService) Update(ctx context.Context, id int64, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid student payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "student")
	}
	before := *current
	updated := *current
	if req.NISN != nil && *req.NISN != current.NISN {
		if err := s.ensureUniqueNISN(ctx, *req.NISN, id); err != nil {
			return nil, err
		}
		updated.NISN = *req.NISN
	}
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.DOB != nil {
		dob, _ := time.Parse(dateLayout, *req.DOB)
		updated.DOB = &dob
	}
	if req.GuardianContact != nil {
		updated.GuardianContact = req.GuardianContact
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, storeError(err, "student", models.AuditUpdate)
	}
	s.recorder.record(ctx, models.EntityStudent, models.AuditUpdate, before, updated)
	return &updated, nil
}

// Delete removes a student.
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "student")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "student", models.AuditDelete)
	}
	s.recorder.record(ctx, models.EntityStudent, models.AuditDelete, current, nil)
	return nil
}

func (s *StudentService) ensureUniqueNISN(ctx context.Context, nisn string, excludeID int64) error {
	exists, err := s.repo.ExistsByNISN(ctx, nisn, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nisn")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "nisn already used")
	}
	return nil
}
