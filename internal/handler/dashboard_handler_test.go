package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/service"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func newFakeDashboard() *fakeDashboard {
	return &fakeDashboard{
		hub:    service.NewDashboardHub(nil, zap.NewNop()),
		snap:   &dto.DashboardSnapshot{Stats: dto.DashboardStats{StudentCount: 3}},
		update: &dto.DashboardUpdate{Data: map[string]interface{}{"stats": dto.DashboardStats{StudentCount: 3}}},
	}
}

func TestDashboardGet(t *testing.T) {
	svc := newFakeDashboard()
	h := NewDashboardHandler(svc, StreamOptions{}, nil)

	rec, env := perform(t, h.Get, http.MethodGet, "/api/dashboard", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"studentCount":3`)
}

func TestDashboardRefreshBroadcasts(t *testing.T) {
	svc := newFakeDashboard()
	sub := service.NewQueuedSubscriber(4)
	svc.hub.Subscribe(sub)
	h := NewDashboardHandler(svc, StreamOptions{}, nil)

	rec, _ := perform(t, h.Refresh, http.MethodPost, "/api/dashboard/refresh", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.refreshes)
	evt := <-sub.Outbox()
	assert.Equal(t, service.EventDashboardData, evt.Event)
}

func TestDashboardRefreshFailureDoesNotBroadcast(t *testing.T) {
	svc := newFakeDashboard()
	svc.err = appErrors.Clone(appErrors.ErrInternal, "failed to refresh dashboard")
	h := NewDashboardHandler(svc, StreamOptions{}, nil)

	rec, _ := perform(t, h.Refresh, http.MethodPost, "/api/dashboard/refresh", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, svc.broadcastN)
}

func TestDashboardSection(t *testing.T) {
	svc := newFakeDashboard()
	h := NewDashboardHandler(svc, StreamOptions{}, nil)

	rec, env := perform(t, h.Section, http.MethodGet, "/api/dashboard/sections/stats", "", withParam("kind", "stats"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(env.Data), `"type":"stats"`)
	require.Len(t, svc.updatesSent, 1)
	assert.Equal(t, dto.UpdateStats, svc.updatesSent[0].Type)
}

func TestDashboardSectionError(t *testing.T) {
	svc := newFakeDashboard()
	svc.err = appErrors.Clone(appErrors.ErrValidation, "unknown dashboard section")
	h := NewDashboardHandler(svc, StreamOptions{}, nil)

	rec, _ := perform(t, h.Section, http.MethodGet, "/api/dashboard/sections/bogus", "", withParam("kind", "bogus"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.updatesSent)
}

type wsMessage struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

func dialDashboard(t *testing.T, h *DashboardHandler) (*websocket.Conn, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/dashboard/ws", h.Stream)
	srv := httptest.NewServer(r)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/dashboard/ws", nil)
	cancel()
	require.NoError(t, err)
	return conn, func() {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		srv.Close()
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var msg wsMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	return msg
}

func send(t *testing.T, conn *websocket.Conn, event string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"event": event}))
}

func TestDashboardStreamLifecycle(t *testing.T) {
	svc := newFakeDashboard()
	h := NewDashboardHandler(svc, StreamOptions{QueueSize: 8}, zap.NewNop())
	conn, closeAll := dialDashboard(t, h)
	defer closeAll()

	first := readMessage(t, conn)
	assert.Equal(t, service.EventDashboardData, first.Event)
	assert.Zero(t, svc.hub.Len())

	send(t, conn, msgSubscribe)
	assert.Equal(t, service.EventDashboardData, readMessage(t, conn).Event)
	ack := readMessage(t, conn)
	assert.Equal(t, msgSubscribe, ack.Event)
	assert.Equal(t, true, ack.Data["success"])
	assert.Equal(t, 1, svc.hub.Len())

	svc.hub.Broadcast(service.EventDashboardUpdate, map[string]string{"type": "stats"})
	update := readMessage(t, conn)
	assert.Equal(t, service.EventDashboardUpdate, update.Event)
	assert.Equal(t, "stats", update.Data["type"])

	send(t, conn, msgRefresh)
	assert.Equal(t, service.EventDashboardData, readMessage(t, conn).Event)
	assert.Equal(t, true, readMessage(t, conn).Data["success"])

	send(t, conn, "dashboard:explode")
	bad := readMessage(t, conn)
	assert.Equal(t, false, bad.Data["success"])
	assert.Equal(t, "unknown event", bad.Data["error"])

	send(t, conn, msgUnsubscribe)
	assert.Equal(t, true, readMessage(t, conn).Data["success"])
	assert.Zero(t, svc.hub.Len())
}

func TestDashboardStreamUnsubscribesOnDisconnect(t *testing.T) {
	svc := newFakeDashboard()
	h := NewDashboardHandler(svc, StreamOptions{}, nil)
	conn, closeAll := dialDashboard(t, h)
	defer closeAll()

	readMessage(t, conn)
	send(t, conn, msgSubscribe)
	readMessage(t, conn)
	readMessage(t, conn)
	require.Equal(t, 1, svc.hub.Len())

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	assert.Eventually(t, func() bool { return svc.hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
