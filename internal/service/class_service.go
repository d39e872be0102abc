package service

import (
	"context"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

type classRepository interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Class], error)
	FindByID(ctx context.Context, id int64) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id int64) error
}

// CreateClassRequest holds payload for creating classes.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
	Year int    `json:"year" validate:"required,gte=1,lte=4"`
}

// UpdateClassRequest holds a partial class update.
type UpdateClassRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=50"`
	Year *int    `json:"year" validate:"omitempty,gte=1,lte=4"`
}

var classExportColumns = export.Columns(
	"id", "ID",
	"name", "Nama",
	"year", "Tahun",
	"createdAt", "Dibuat Pada",
	"updatedAt", "Diperbarui Pada",
)

// ClassService manages classes.
type ClassService struct {
	entityLister[models.Class]
	repo     classRepository
	deps     EntityDeps
	recorder mutationRecorder
}

// NewClassService constructs the class service.
func NewClassService(repo classRepository, deps EntityDeps) *ClassService {
	deps = deps.withDefaults()
	return &ClassService{
		entityLister: newEntityLister[models.Class]("classes", "Daftar Kelas", repo, classExportColumns, deps),
		repo:         repo,
		deps:         deps,
		recorder:     deps.recorder(),
	}
}

// Get returns one class.
func (s *ClassService) Get(ctx context.Context, id int64) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "class")
	}
	return class, nil
}

// Create adds a class.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid class payload")
	}
	class := &models.Class{Name: req.Name, Year: req.Year}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, storeError(err, "class", models.AuditInsert)
	}
	s.recorder.record(ctx, models.EntityClass, models.AuditInsert, nil, class)
	return class, nil
}

// Update applies a partial update.
func (s *ClassService) Update(ctx context.Context, id int64, req UpdateClassRequest) (*models.Class, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid class payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "class")
	}
	updated := *current
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Year != nil {
		updated.Year = *req.Year
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, storeError(err, "class", models.AuditUpdate)
	}
	s.recorder.record(ctx, models.EntityClass, models.AuditUpdate, current, updated)
	return &updated, nil
}

// Delete removes a class. Classes with enrollments cannot be removed.
func (s *ClassService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "class")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "class", models.AuditDelete)
	}
	s.recorder.record(ctx, models.EntityClass, models.AuditDelete, current, nil)
	return nil
}
