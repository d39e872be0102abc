package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
)

type roleService interface {
	pageLister[models.Role]
	Get(ctx context.Context, id int64) (*models.Role, error)
	Create(ctx context.Context, req service.RoleRequest) (*models.Role, error)
	Update(ctx context.Context, id int64, req service.RoleRequest) (*models.Role, error)
	Delete(ctx context.Context, id int64) error
}

// RoleHandler exposes role endpoints.
type RoleHandler struct {
	roles roleService
}

// NewRoleHandler constructs RoleHandler.
func NewRoleHandler(roles roleService) *RoleHandler {
	return &RoleHandler{roles: roles}
}

// List godoc
// @Summary List roles
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body listquery.Request false "Filters, sort and paging"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /roles/list [post]
func (h *RoleHandler) List(c *gin.Context) {
	listRows[models.Role](c, h.roles)
}

// Export godoc
// @Summary Export roles as CSV or PDF
// @Tags Roles
// @Accept json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param payload body listquery.Request false "Filters and sort"
// @Success 200 {file} file
// @Router /roles/export [get]
// @Router /roles/export [post]
func (h *RoleHandler) Export(c *gin.Context) {
	exportRows[models.Role](c, h.roles)
}

// Get godoc
// @Summary Get role detail
// @Tags Roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /roles/{id} [get]
func (h *RoleHandler) Get(c *gin.Context) {
	getOne(c, h.roles.Get)
}

// Create godoc
// @Summary Create role
// @Tags Roles
// @Accept json
// @Produce json
// @Param payload body service.RoleRequest true "Role payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /roles [post]
func (h *RoleHandler) Create(c *gin.Context) {
	createOne(c, h.roles.Create)
}

// Update godoc
// @Summary Update role
// @Tags Roles
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param payload body service.RoleRequest true "Role payload"
// @Success 200 {object} response.Envelope
// @Router /roles/{id} [put]
func (h *RoleHandler) Update(c *gin.Context) {
	updateOne(c, h.roles.Update)
}

// Delete godoc
// @Summary Delete role
// @Tags Roles
// @Param id path int true "Role ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /roles/{id} [delete]
func (h *RoleHandler) Delete(c *gin.Context) {
	deleteOne(c, h.roles.Delete)
}
