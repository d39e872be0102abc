package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-records-api/internal/middleware"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/listquery"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// pageLister is implemented by every entity service.
type pageLister[T any] interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[T], bool, error)
	ExportCSV(ctx context.Context, req listquery.Request) (string, error)
	ExportPDF(ctx context.Context, req listquery.Request) ([]byte, error)
	Name() string
}

// bindListRequest decodes the list body over the defaults. An empty body
// yields the defaults.
func bindListRequest(c *gin.Context) (listquery.Request, error) {
	req := listquery.NewRequest()
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return req, nil
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return req, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return req, nil
}

func listRows[T any](c *gin.Context, svc pageLister[T]) {
	req, err := bindListRequest(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, hit, err := svc.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	rows := result.Rows
	if rows == nil {
		rows = []T{}
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetMeta(c, "pagination", result.Meta)
	response.JSON(c, http.StatusOK, rows, middleware.ExtractMeta(c))
}

// exportRows writes the full filtered dataset as CSV, or as PDF when
// ?format=pdf. GET requests export with the default filters.
func exportRows[T any](c *gin.Context, svc pageLister[T]) {
	req := listquery.NewRequest()
	if c.Request.Method != http.MethodGet {
		var err error
		if req, err = bindListRequest(c); err != nil {
			response.Error(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	if c.Query("format") == "pdf" {
		body, err := svc.ExportPDF(ctx, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Attachment(c, "application/pdf", svc.Name()+".pdf", body)
		return
	}

	body, err := svc.ExportCSV(ctx, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "text/csv; charset=utf-8", svc.Name()+".csv", []byte(body))
}

func parseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.WithDetails(
			appErrors.Clone(appErrors.ErrValidation, "invalid id"),
			map[string]string{"id": "must be a positive integer"},
		)
	}
	return id, nil
}

func getOne[T any](c *gin.Context, get func(context.Context, int64) (*T, error)) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	row, err := get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

func createOne[T, R any](c *gin.Context, create func(context.Context, R) (*T, error)) {
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, row)
}

func updateOne[T, R any](c *gin.Context, update func(context.Context, int64, R) (*T, error)) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req R
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	row, err := update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, row, nil)
}

func deleteOne(c *gin.Context, del func(context.Context, int64) error) {
	id, err := parseID(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := del(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
