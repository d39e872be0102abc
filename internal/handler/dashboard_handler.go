package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/service"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// Client messages accepted on the dashboard socket.
const (
	msgSubscribe   = "dashboard:subscribe"
	msgUnsubscribe = "dashboard:unsubscribe"
	msgGetData     = "dashboard:getData"
	msgRefresh     = "dashboard:refresh"
)

type dashboardService interface {
	GetSnapshot(ctx context.Context) (*dto.DashboardSnapshot, error)
	Refresh(ctx context.Context) (*dto.DashboardSnapshot, error)
	RefreshPartial(ctx context.Context, kind dto.UpdateKind) (*dto.DashboardUpdate, error)
	BroadcastSnapshot(snap *dto.DashboardSnapshot)
	BroadcastUpdate(update *dto.DashboardUpdate)
	Hub() *service.DashboardHub
}

// StreamOptions configure the dashboard socket.
type StreamOptions struct {
	OriginPatterns []string
	QueueSize      int
	WriteTimeout   time.Duration
}

// DashboardHandler serves the dashboard over HTTP and WebSocket.
type DashboardHandler struct {
	service dashboardService
	stream  StreamOptions
	logger  *zap.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(svc dashboardService, stream StreamOptions, logger *zap.Logger) *DashboardHandler {
	if stream.QueueSize <= 0 {
		stream.QueueSize = 16
	}
	if stream.WriteTimeout <= 0 {
		stream.WriteTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{service: svc, stream: stream, logger: logger}
}

// Get godoc
// @Summary Dashboard snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	snap, err := h.service.GetSnapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, snap, nil)
}

// Refresh godoc
// @Summary Recompute the dashboard and push it to subscribers
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /dashboard/refresh [post]
func (h *DashboardHandler) Refresh(c *gin.Context) {
	snap, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	h.service.BroadcastSnapshot(snap)
	response.JSON(c, http.StatusOK, snap, nil)
}

// Section godoc
// @Summary Recompute one dashboard section
// @Tags Dashboard
// @Produce json
// @Param kind path string true "stats, grades, enrollments, activities, students or full"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /dashboard/sections/{kind} [get]
func (h *DashboardHandler) Section(c *gin.Context) {
	update, err := h.service.RefreshPartial(c.Request.Context(), dto.UpdateKind(c.Param("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.service.BroadcastUpdate(update)
	response.JSON(c, http.StatusOK, update, nil)
}

type clientMessage struct {
	Event string `json:"event"`
}

type messageAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Stream upgrades to a WebSocket. The client receives dashboard:data at once
// and joins the broadcast group with dashboard:subscribe.
func (h *DashboardHandler) Stream(c *gin.Context) {
	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{OriginPatterns: h.stream.OriginPatterns})
	if err != nil {
		h.logger.Debug("websocket upgrade rejected", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	sub := service.NewQueuedSubscriber(h.stream.QueueSize)
	hub := h.service.Hub()
	h.logger.Info("dashboard client connected", zap.String("subscriber", sub.ID()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(ctx, conn, sub)
		cancel()
	}()

	h.sendSnapshot(ctx, sub)
	h.readLoop(ctx, conn, sub, hub)

	hub.Unsubscribe(sub.ID())
	sub.Close()
	cancel()
	<-done
	_ = conn.Close(websocket.StatusNormalClosure, "closed")
	h.logger.Info("dashboard client disconnected", zap.String("subscriber", sub.ID()))
}

func (h *DashboardHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sub *service.QueuedSubscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Outbox():
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, h.stream.WriteTimeout)
			err := wsjson.Write(writeCtx, conn, evt)
			cancel()
			if err != nil {
				h.logger.Debug("dashboard write failed", zap.String("subscriber", sub.ID()), zap.Error(err))
				return
			}
		}
	}
}

func (h *DashboardHandler) readLoop(ctx context.Context, conn *websocket.Conn, sub *service.QueuedSubscriber, hub *service.DashboardHub) {
	for {
		_, raw, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			h.ack(sub, "", "malformed message")
			continue
		}
		h.ack(sub, msg.Event, h.handleMessage(ctx, sub, hub, msg.Event))
	}
}

// handleMessage returns an error text for the ack, empty on success.
func (h *DashboardHandler) handleMessage(ctx context.Context, sub *service.QueuedSubscriber, hub *service.DashboardHub, event string) string {
	switch event {
	case msgSubscribe:
		hub.Subscribe(sub)
		if !h.sendSnapshot(ctx, sub) {
			return "failed to load dashboard"
		}
	case msgUnsubscribe:
		hub.Unsubscribe(sub.ID())
	case msgGetData:
		if !h.sendSnapshot(ctx, sub) {
			return "failed to load dashboard"
		}
	case msgRefresh:
		snap, err := h.service.Refresh(ctx)
		if err != nil {
			return "failed to refresh dashboard"
		}
		h.service.BroadcastSnapshot(snap)
	default:
		return "unknown event"
	}
	return ""
}

func (h *DashboardHandler) sendSnapshot(ctx context.Context, sub *service.QueuedSubscriber) bool {
	snap, err := h.service.GetSnapshot(ctx)
	if err != nil {
		h.logger.Warn("dashboard snapshot unavailable", zap.String("subscriber", sub.ID()), zap.Error(err))
		return false
	}
	if err := sub.Send(service.DashboardEvent{Event: service.EventDashboardData, Data: snap}); err != nil {
		h.logger.Warn("dashboard snapshot not queued", zap.String("subscriber", sub.ID()), zap.Error(err))
	}
	return true
}

func (h *DashboardHandler) ack(sub *service.QueuedSubscriber, event, failure string) {
	_ = sub.Send(service.DashboardEvent{Event: event, Data: messageAck{Success: failure == "", Error: failure}})
}
