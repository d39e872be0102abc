package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/pkg/jobs"
)

const (
	dashboardRefreshJob = "dashboard.refresh"
	dashboardRefreshKey = "dashboard"
)

type jobQueue interface {
	TryEnqueue(job jobs.Job) error
}

// DashboardNotifier turns entity mutations into queued dashboard refreshes.
// Mutations that arrive while a refresh is still waiting share it.
type DashboardNotifier struct {
	queue  jobQueue
	logger *zap.Logger
}

// NewDashboardNotifier wraps queue.
func NewDashboardNotifier(queue jobQueue, logger *zap.Logger) *DashboardNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardNotifier{queue: queue, logger: logger}
}

// NotifyMutation schedules a refresh-and-broadcast.
func (n *DashboardNotifier) NotifyMutation(entity, action string) {
	err := n.queue.TryEnqueue(jobs.Job{
		Type:    dashboardRefreshJob,
		Key:     dashboardRefreshKey,
		Payload: entity + ":" + action,
	})
	if err == nil {
		return
	}
	if errors.Is(err, jobs.ErrQueueFull) {
		n.logger.Warn("dashboard refresh queue full", zap.String("entity", entity), zap.String("action", action))
		return
	}
	n.logger.Error("failed to schedule dashboard refresh", zap.String("entity", entity), zap.Error(err))
}

// DashboardRefreshHandler is the queue handler running OnMutation.
func DashboardRefreshHandler(svc *DashboardService) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		return svc.OnMutation(ctx)
	}
}
