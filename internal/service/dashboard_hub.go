package service

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Dashboard push events.
const (
	EventDashboardData   = "dashboard:data"
	EventDashboardUpdate = "dashboard:update"
)

// ErrSubscriberBacklog is returned when a subscriber's outbox is full.
var ErrSubscriberBacklog = errors.New("subscriber outbox full")

// ErrSubscriberClosed is returned when sending to a closed subscriber.
var ErrSubscriberClosed = errors.New("subscriber closed")

// DashboardEvent is one message pushed to dashboard clients.
type DashboardEvent struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Subscriber receives broadcast events. Send must not block.
type Subscriber interface {
	ID() string
	Send(event DashboardEvent) error
}

// QueuedSubscriber buffers events for a single connection.
type QueuedSubscriber struct {
	id     string
	outbox chan DashboardEvent
	mu     sync.Mutex
	closed bool
}

// NewQueuedSubscriber creates a subscriber with a random id.
func NewQueuedSubscriber(buffer int) *QueuedSubscriber {
	if buffer <= 0 {
		buffer = 16
	}
	return &QueuedSubscriber{id: uuid.NewString(), outbox: make(chan DashboardEvent, buffer)}
}

// ID returns the subscriber id.
func (s *QueuedSubscriber) ID() string { return s.id }

// Send queues event or fails when the buffer is full.
func (s *QueuedSubscriber) Send(event DashboardEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSubscriberClosed
	}
	select {
	case s.outbox <- event:
		return nil
	default:
		return ErrSubscriberBacklog
	}
}

// Outbox is drained by the connection writer.
func (s *QueuedSubscriber) Outbox() <-chan DashboardEvent { return s.outbox }

// Close stops further sends and closes the outbox.
func (s *QueuedSubscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.outbox)
}

// DashboardHub is the broadcast group of dashboard subscribers.
type DashboardHub struct {
	mu          sync.RWMutex
	subscribers map[string]Subscriber
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewDashboardHub creates an empty hub.
func NewDashboardHub(metrics *MetricsService, logger *zap.Logger) *DashboardHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHub{subscribers: make(map[string]Subscriber), metrics: metrics, logger: logger}
}

// Subscribe adds sub to the group. Subscribing twice is a no-op.
func (h *DashboardHub) Subscribe(sub Subscriber) {
	h.mu.Lock()
	h.subscribers[sub.ID()] = sub
	n := len(h.subscribers)
	h.mu.Unlock()
	h.metrics.SetDashboardSubscribers(n)
}

// Unsubscribe removes the subscriber with id.
func (h *DashboardHub) Unsubscribe(id string) {
	h.mu.Lock()
	delete(h.subscribers, id)
	n := len(h.subscribers)
	h.mu.Unlock()
	h.metrics.SetDashboardSubscribers(n)
}

// Len reports the number of subscribers.
func (h *DashboardHub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Broadcast sends the event to every subscriber present when it starts.
// A failed delivery is logged and does not stop the others.
func (h *DashboardHub) Broadcast(event string, data interface{}) (delivered, failed int) {
	h.mu.RLock()
	targets := make([]Subscriber, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	msg := DashboardEvent{Event: event, Data: data}
	for _, sub := range targets {
		if err := sub.Send(msg); err != nil {
			failed++
			h.logger.Warn("dashboard delivery failed", zap.String("subscriber", sub.ID()), zap.String("event", event), zap.Error(err))
			continue
		}
		delivered++
	}
	h.metrics.RecordBroadcast(event, delivered, failed)
	return delivered, failed
}
