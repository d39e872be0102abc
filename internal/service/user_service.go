package service

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

type userRepository interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[models.User], error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id int64) error
}

type roleLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Role, error)
}

// CreateUserRequest holds payload for creating users.
type CreateUserRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=100"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,min=6"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	IsActive *bool   `json:"isActive"`
	RoleID   int64   `json:"roleId" validate:"required,gt=0"`
}

// UpdateUserRequest holds a partial user update.
type UpdateUserRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Password *string `json:"password" validate:"omitempty,min=6"`
	Bio      *string `json:"bio" validate:"omitempty,max=500"`
	IsActive *bool   `json:"isActive"`
	RoleID   *int64  `json:"roleId" validate:"omitempty,gt=0"`
}

var userExportColumns = export.Columns(
	"id", "ID",
	"name", "Nama",
	"email", "Email",
	"role.name", "Peran",
	"isActive", "Aktif",
	"createdAt", "Dibuat Pada",
	"updatedAt", "Diperbarui Pada",
)

// UserService manages user accounts.
type UserService struct {
	entityLister[models.User]
	repo     userRepository
	roles    roleLookup
	deps     EntityDeps
	recorder mutationRecorder
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, roles roleLookup, deps EntityDeps) *UserService {
	deps = deps.withDefaults()
	return &UserService{
		entityLister: newEntityLister[models.User]("users", "Daftar Pengguna", repo, userExportColumns, deps),
		repo:         repo,
		roles:        roles,
		deps:         deps,
		recorder:     deps.recorder(),
	}
}

// Get returns one user.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "user")
	}
	return user, nil
}

// Create registers a user with a hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid user payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureUniqueEmail(ctx, email, 0); err != nil {
		return nil, err
	}
	role, err := s.roles.FindByID(ctx, req.RoleID)
	if err != nil {
		return nil, referenceError(err, "roleId", "role")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: string(hash),
		Bio:          req.Bio,
		IsActive:     req.IsActive == nil || *req.IsActive,
		RoleID:       role.ID,
		Role:         models.RoleRef{ID: role.ID, Name: role.Name},
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storeError(err, "user", models.AuditInsert)
	}
	s.recorder.record(ctx, models.EntityUser, models.AuditInsert, nil, user)
	return user, nil
}

// Update applies a partial update; a new password is rehashed.
func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*models.User, error) {
	if err := s.deps.Validate.Struct(req); err != nil {
		return nil, invalidPayload(err, "invalid user payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "user")
	}
	updated := *current
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != current.Email {
			if err := s.ensureUniqueEmail(ctx, email, id); err != nil {
				return nil, err
			}
		}
		updated.Email = email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		updated.PasswordHash = string(hash)
	}
	if req.Bio != nil {
		updated.Bio = req.Bio
	}
	if req.IsActive != nil {
		updated.IsActive = *req.IsActive
	}
	if req.RoleID != nil && *req.RoleID != current.RoleID {
		role, err := s.roles.FindByID(ctx, *req.RoleID)
		if err != nil {
			return nil, referenceError(err, "roleId", "role")
		}
		updated.RoleID = role.ID
		updated.Role = models.RoleRef{ID: role.ID, Name: role.Name}
	}
	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, storeError(err, "user", models.AuditUpdate)
	}
	s.recorder.record(ctx, models.EntityUser, models.AuditUpdate, current, updated)
	return &updated, nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return loadError(err, "user")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "user", models.AuditDelete)
	}
	s.recorder.record(ctx, models.EntityUser, models.AuditDelete, current, nil)
	return nil
}

func (s *UserService) ensureUniqueEmail(ctx context.Context, email string, excludeID int64) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}
	return nil
}
