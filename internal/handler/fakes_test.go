package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/middleware"
	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

// fakeEntity serves every entity handler.
type fakeEntity[T, C, U any] struct {
	name      string
	result    *listquery.Result[T]
	hit       bool
	err       error
	row       *T
	csv       string
	pdf       []byte
	lastList  listquery.Request
	lastID    int64
	created   *C
	updated   *U
	deletedID int64
}

func (f *fakeEntity[T, C, U]) List(_ context.Context, req listquery.Request) (*listquery.Result[T], bool, error) {
	f.lastList = req
	return f.result, f.hit, f.err
}

func (f *fakeEntity[T, C, U]) ExportCSV(_ context.Context, req listquery.Request) (string, error) {
	f.lastList = req
	return f.csv, f.err
}

func (f *fakeEntity[T, C, U]) ExportPDF(_ context.Context, req listquery.Request) ([]byte, error) {
	f.lastList = req
	return f.pdf, f.err
}

func (f *fakeEntity[T, C, U]) Name() string { return f.name }

func (f *fakeEntity[T, C, U]) Get(_ context.Context, id int64) (*T, error) {
	f.lastID = id
	return f.row, f.err
}

func (f *fakeEntity[T, C, U]) Create(_ context.Context, req C) (*T, error) {
	f.created = &req
	return f.row, f.err
}

func (f *fakeEntity[T, C, U]) Update(_ context.Context, id int64, req U) (*T, error) {
	f.lastID = id
	f.updated = &req
	return f.row, f.err
}

func (f *fakeEntity[T, C, U]) Delete(_ context.Context, id int64) error {
	f.deletedID = id
	return f.err
}

type fakeStudents = fakeEntity[models.Student, service.CreateStudentRequest, service.UpdateStudentRequest]

type fakeAuth struct {
	session     *models.Session
	info        *models.UserInfo
	err         error
	login       models.LoginRequest
	refreshWith string
	logoutToken string
	logoutUser  int64
}

func (f *fakeAuth) Login(_ context.Context, req models.LoginRequest) (*models.Session, error) {
	f.login = req
	return f.session, f.err
}

func (f *fakeAuth) Refresh(_ context.Context, token, _, _ string) (*models.Session, error) {
	f.refreshWith = token
	return f.session, f.err
}

func (f *fakeAuth) Logout(_ context.Context, token string, userID int64) error {
	f.logoutToken = token
	f.logoutUser = userID
	return f.err
}

func (f *fakeAuth) Me(_ context.Context, userID int64) (*models.UserInfo, error) {
	if f.info != nil {
		f.info.ID = userID
	}
	return f.info, f.err
}

type fakeDashboard struct {
	hub         *service.DashboardHub
	snap        *dto.DashboardSnapshot
	update      *dto.DashboardUpdate
	err         error
	refreshes   int
	broadcastN  int
	updatesSent []*dto.DashboardUpdate
}

func (f *fakeDashboard) GetSnapshot(context.Context) (*dto.DashboardSnapshot, error) {
	return f.snap, f.err
}

func (f *fakeDashboard) Refresh(context.Context) (*dto.DashboardSnapshot, error) {
	f.refreshes++
	return f.snap, f.err
}

func (f *fakeDashboard) RefreshPartial(_ context.Context, kind dto.UpdateKind) (*dto.DashboardUpdate, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := *f.update
	out.Type = kind
	return &out, nil
}

func (f *fakeDashboard) BroadcastSnapshot(snap *dto.DashboardSnapshot) {
	f.broadcastN++
	f.hub.Broadcast(service.EventDashboardData, snap)
}

func (f *fakeDashboard) BroadcastUpdate(update *dto.DashboardUpdate) {
	f.updatesSent = append(f.updatesSent, update)
	f.hub.Broadcast(service.EventDashboardUpdate, update)
}

func (f *fakeDashboard) Hub() *service.DashboardHub { return f.hub }

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func perform(t *testing.T, h gin.HandlerFunc, method, target, body string, setup ...func(*gin.Context)) (*httptest.ResponseRecorder, responseEnvelope) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
		c.Request = httptest.NewRequest(method, target, reader)
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request = httptest.NewRequest(method, target, nil)
	}
	for _, fn := range setup {
		fn(c)
	}
	h(c)
	c.Writer.WriteHeaderNow()

	var env responseEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func withParam(key, value string) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Params = append(c.Params, gin.Param{Key: key, Value: value})
	}
}

func withClaims(claims *models.JWTClaims) func(*gin.Context) {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, claims)
	}
}
