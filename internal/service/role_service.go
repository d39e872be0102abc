package service

import (
	"context"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

type roleRepository interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[models.Role], error)
	FindByID(ctx context.Context, id int64) (*models.Role, error)
	ExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, role *models.Role) error
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id int64) error
}

// RoleRequest is the payload for creating or renaming a role.
type RoleRequest struct {
	Name string `json:"name" validate:"required,min=1,max=50"`
}

var roleExportColumns = export.Columns(
	"id", "ID",
	"name", "Nama",
	"createdAt", "Dibuat Pada",
	"updatedAt", "Diperbarui Pada",
)

// RoleService manages roles.
type RoleService struct {
	entityLister[models.Role]
	repo     roleRepository
	deps     EntityDeps
	recorder mutationRecorder
}

// NewRoleService constructs the role service.
func NewRoleService(repo roleRepository, deps EntityDeps) *RoleService {
	deps = deps.withDefaults()
	return &RoleService{
		entityLister: newEntityLister[models.Role]("roles", "Daftar Peran", repo, roleExportColumns, deps),
		repo:         repo,
		deps:         deps,
		recorder:     deps.recorder(),
	}
}

// Get returns one role.
func (s *RoleService) Get(ctx context.Context, id int64) (*models.Role, error) {
	role, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "role")
	}
	return role, nil
}

// Create adds a role with a unique name.
func (s *RoleService) Create(ctx context.Context, req RoleRequest) (*models.Role, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid role payload")
	}
	if err := s.ensureUniqueName(ctx, req.Name, 0); err != nil {
		return nil, err
	}
	role := &models.Role{Name: req.Name}
	if err := s.repo.Create(ctx, role); err != nil {
		return nil, storeError(err, "role", models.AuditInsert)
	}
	s.recorder.record(ctx, models.EntityRole, models.AuditInsert, nil, role)
	return role, nil
}

// Update renames a role.
func (s *RoleService) Update(ctx context.Context, id int64, req RoleRequest) (*models.Role, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid role payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "role")
	}
	if err := s.ensureUniqueName(ctx, req.Name, id); err != nil {
		return nil, err
	}
	updated := *current
	updated.Name = req.Name
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, storeError(err, "role", models.AuditUpdate)
	}
	s.recorder.record(ctx, models.EntityRole, models.AuditUpdate, current, updated)
	return &updated, nil
}

// Delete removes a role that no user holds.
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "role")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "role", models.AuditDelete)
	}
	s.recorder.record(ctx, models.EntityRole, models.AuditDelete, current, nil)
	return nil
}

func (s *RoleService) ensureUniqueName(ctx context.Context, name string, excludeID int64) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate role name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "role name already used")
	}
	return nil
}
