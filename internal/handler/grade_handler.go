package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
)

type gradeService interface {
	pageLister[models.Grade]
	Get(ctx context.Context, id int64) (*models.Grade, error)
	Create(ctx context.Context, req service.CreateGradeRequest) (*models.Grade, error)
	Update(ctx context.Context, id int64, req service.UpdateGradeRequest) (*models.Grade, error)
	Delete(ctx context.Context, id int64) error
}

// GradeHandler exposes grade endpoints.
type GradeHandler struct {
	grades gradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades gradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// List godoc
// @Summary List grades
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body listquery.Request false "Filters, sort and paging"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /grades/list [post]
func (h *GradeHandler) List(c *gin.Context) {
	listRows[models.Grade](c, h.grades)
}

// Export godoc
// @Summary Export grades as CSV or PDF
// @Tags Grades
// @Accept json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param payload body listquery.Request false "Filters and sort"
// @Success 200 {file} file
// @Router /grades/export [get]
// @Router /grades/export [post]
func (h *GradeHandler) Export(c *gin.Context) {
	exportRows[models.Grade](c, h.grades)
}

// Get godoc
// @Summary Get grade detail
// @Tags Grades
// @Produce json
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /grades/{id} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	getOne(c, h.grades.Get)
}

// Create godoc
// @Summary Create grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param payload body service.CreateGradeRequest true "Grade payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Create(c *gin.Context) {
	createOne(c, h.grades.Create)
}

// Update godoc
// @Summary Update grade
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path int true "Grade ID"
// @Param payload body service.UpdateGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /grades/{id} [put]
func (h *GradeHandler) Update(c *gin.Context) {
	updateOne(c, h.grades.Update)
}

// Delete godoc
// @Summary Delete grade
// @Tags Grades
// @Param id path int true "Grade ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /grades/{id} [delete]
func (h *GradeHandler) Delete(c *gin.Context) {
	deleteOne(c, h.grades.Delete)
}
