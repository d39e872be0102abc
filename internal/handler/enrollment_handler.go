package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
)

type enrollmentService interface {
	pageLister[models.Enrollment]
	Get(ctx context.Context, id int64) (*models.Enrollment, error)
	Create(ctx context.Context, req service.EnrollmentRequest) (*models.Enrollment, error)
	Update(ctx context.Context, id int64, req service.EnrollmentRequest) (*models.Enrollment, error)
	Delete(ctx context.Context, id int64) error
}

// EnrollmentHandler exposes enrollment endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body listquery.Request false "Filters, sort and paging"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /enrollments/list [post]
func (h *EnrollmentHandler) List(c *gin.Context) {
	listRows[models.Enrollment](c, h.enrollments)
}

// Export godoc
// @Summary Export enrollments as CSV or PDF
// @Tags Enrollments
// @Accept json
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param payload body listquery.Request false "Filters and sort"
// @Success 200 {file} file
// @Router /enrollments/export [get]
// @Router /enrollments/export [post]
func (h *EnrollmentHandler) Export(c *gin.Context) {
	exportRows[models.Enrollment](c, h.enrollments)
}

// Get godoc
// @Summary Get enrollment detail
// @Tags Enrollments
// @Produce json
// @Param id path int true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	getOne(c, h.enrollments.Get)
}

// Create godoc
// @Summary Create enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	createOne(c, h.enrollments.Create)
}

// Update godoc
// @Summary Update enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path int true "Enrollment ID"
// @Param payload body service.EnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	updateOne(c, h.enrollments.Update)
}

// Delete godoc
// @Summary Delete enrollment
// @Tags Enrollments
// @Param id path int true "Enrollment ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	deleteOne(c, h.enrollments.Delete)
}
