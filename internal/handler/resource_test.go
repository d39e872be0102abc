package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

func TestListUsesDefaultsForEmptyBody(t *testing.T) {
	svc := &fakeStudents{result: &listquery.Result[models.Student]{Meta: listquery.NewMeta(1, 10, 0)}}
	h := NewStudentHandler(svc)

	rec, env := perform(t, h.List, http.MethodPost, "/api/students/list", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, listquery.NewRequest(), svc.lastList)
	assert.JSONEq(t, `[]`, string(env.Data))
	assert.Equal(t, false, env.Meta["cache_hit"])
}

func TestListDecodesBodyAndReportsMeta(t *testing.T) {
	svc := &fakeStudents{
		result: &listquery.Result[models.Student]{
			Rows: []models.Student{{ID: 7, Name: "Ana"}},
			Meta: listquery.NewMeta(2, 5, 6),
		},
		hit: true,
	}
	h := NewStudentHandler(svc)

	body := `{"page":2,"perPage":5,"filters":[{"id":"name","value":"an","variant":"text","operator":"iLike"}],"sort":[{"id":"name","desc":false}]}`
	rec, env := perform(t, h.List, http.MethodPost, "/api/students/list", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, svc.lastList.Page)
	assert.Equal(t, 5, svc.lastList.PerPage)
	require.Len(t, svc.lastList.Filters, 1)
	assert.Equal(t, listquery.OpILike, svc.lastList.Filters[0].Operator)
	assert.Equal(t, listquery.JoinAnd, svc.lastList.Join())

	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Equal(t, "Ana", rows[0]["name"])
	assert.Equal(t, true, env.Meta["cache_hit"])
	pagination := env.Meta["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, pagination["totalPage"])
	assert.EqualValues(t, 6, pagination["totalRows"])
}

func TestListRejectsMalformedBody(t *testing.T) {
	h := NewStudentHandler(&fakeStudents{})
	rec, env := perform(t, h.List, http.MethodPost, "/api/students/list", `{"page":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error["code"])
}

func TestListPropagatesServiceError(t *testing.T) {
	h := NewStudentHandler(&fakeStudents{err: appErrors.Clone(appErrors.ErrInternal, "failed to list students")})
	rec, env := perform(t, h.List, http.MethodPost, "/api/students/list", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to list students", env.Error["message"])
}

func TestExportCSV(t *testing.T) {
	svc := &fakeStudents{name: "students", csv: "ID,Nama\n1,Ana\n"}
	h := NewStudentHandler(svc)

	rec, _ := perform(t, h.Export, http.MethodGet, "/api/students/export", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="students.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "ID,Nama\n1,Ana\n", rec.Body.String())
	assert.Equal(t, listquery.NewRequest(), svc.lastList)
}

func TestExportPostAppliesFiltersAndPDF(t *testing.T) {
	svc := &fakeStudents{name: "students", pdf: []byte("%PDF-1.3")}
	h := NewStudentHandler(svc)

	body := `{"filters":[{"id":"isActive","value":"true","variant":"boolean","operator":"eq"}]}`
	rec, _ := perform(t, h.Export, http.MethodPost, "/api/students/export?format=pdf", body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="students.pdf"`, rec.Header().Get("Content-Disposition"))
	require.Len(t, svc.lastList.Filters, 1)
	assert.Equal(t, "isActive", svc.lastList.Filters[0].ID)
}

func TestGetParsesID(t *testing.T) {
	svc := &fakeStudents{row: &models.Student{ID: 3, Name: "Budi"}}
	h := NewStudentHandler(svc)

	rec, env := perform(t, h.Get, http.MethodGet, "/api/students/3", "", withParam("id", "3"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), svc.lastID)
	assert.Contains(t, string(env.Data), "Budi")

	rec, env = perform(t, h.Get, http.MethodGet, "/api/students/abc", "", withParam("id", "abc"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]interface{}{"id": "must be a positive integer"}, env.Error["details"])
}

func TestGetNotFound(t *testing.T) {
	h := NewStudentHandler(&fakeStudents{err: appErrors.Clone(appErrors.ErrNotFound, "student not found")})
	rec, _ := perform(t, h.Get, http.MethodGet, "/api/students/9", "", withParam("id", "9"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateBindsPayload(t *testing.T) {
	svc := &fakeStudents{row: &models.Student{ID: 1, NISN: "001"}}
	h := NewStudentHandler(svc)

	rec, _ := perform(t, h.Create, http.MethodPost, "/api/students", `{"nisn":"001","name":"Ana","dob":"2010-05-01"}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.created)
	assert.Equal(t, "001", svc.created.NISN)
	assert.Equal(t, "2010-05-01", svc.created.DOB)

	rec, _ = perform(t, h.Create, http.MethodPost, "/api/students", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDelete(t *testing.T) {
	svc := &fakeStudents{row: &models.Student{ID: 4}}
	h := NewStudentHandler(svc)

	rec, _ := perform(t, h.Update, http.MethodPut, "/api/students/4", `{"name":"Baru"}`, withParam("id", "4"))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated)
	assert.Equal(t, "Baru", *svc.updated.Name)
	assert.Nil(t, svc.updated.NISN)

	rec, _ = perform(t, h.Delete, http.MethodDelete, "/api/students/4", "", withParam("id", "4"))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(4), svc.deletedID)

	svc.err = appErrors.Clone(appErrors.ErrConflict, "student is still referenced")
	rec, _ = perform(t, h.Delete, http.MethodDelete, "/api/students/4", "", withParam("id", "4"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}
