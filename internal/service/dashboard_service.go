package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

type dashboardStore interface {
	LoadRawData(ctx context.Context) (*dto.DashboardRawData, error)
	Stats(ctx context.Context) (dto.DashboardStats, error)
	GradeDistribution(ctx context.Context, bins []dto.ScoreBin) ([]int, error)
	ClassEnrollments(ctx context.Context) ([]dto.ClassEnrollment, error)
	TopStudents(ctx context.Context, limit int) ([]dto.TopStudent, error)
}

type auditReader interface {
	Recent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	IncludeRawData bool
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Store   dashboardStore
	Audit   auditReader
	Hub     *DashboardHub
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// DashboardService owns the process-wide dashboard snapshot. The snapshot is
// replaced whole; concurrent refreshes may finish out of order, in which case
// an older result stays cached until the next refresh.
type DashboardService struct {
	store    dashboardStore
	audit    auditReader
	hub      *DashboardHub
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      DashboardServiceConfig
	now      func() time.Time
	snapshot atomic.Pointer[dto.DashboardSnapshot]
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	hub := params.Hub
	if hub == nil {
		hub = NewDashboardHub(params.Metrics, logger)
	}
	return &DashboardService{
		store:   params.Store,
		audit:   params.Audit,
		hub:     hub,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     params.Config,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Hub exposes the subscriber group.
func (s *DashboardService) Hub() *DashboardHub {
	return s.hub
}

// GetSnapshot returns the cached snapshot, computing it on first use.
func (s *DashboardService) GetSnapshot(ctx context.Context) (*dto.DashboardSnapshot, error) {
	if snap := s.snapshot.Load(); snap != nil {
		return snap, nil
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the whole snapshot and caches it. On failure the
// previous snapshot stays in place.
func (s *DashboardService) Refresh(ctx context.Context) (*dto.DashboardSnapshot, error) {
	start := time.Now()
	snap, err := s.compute(ctx)
	s.metrics.ObserveDashboardRefresh(string(dto.UpdateFull), time.Since(start), err)
	if err != nil {
		s.logger.Error("dashboard refresh failed", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh dashboard")
	}
	s.snapshot.Store(snap)
	s.logger.Debug("dashboard refreshed", zap.Duration("duration", time.Since(start)))
	return snap, nil
}

func (s *DashboardService) compute(ctx context.Context) (*dto.DashboardSnapshot, error) {
	raw, err := s.store.LoadRawData(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	activities, err := s.recentActivities(ctx, raw, now)
	if err != nil {
		return nil, err
	}
	snap := buildSnapshot(raw, activities, now)
	if s.cfg.IncludeRawData {
		snap.RawData = raw
	}
	return snap, nil
}

// RefreshPartial recomputes one section from the store without touching the
// cached snapshot. UpdateFull refreshes and returns the whole snapshot.
func (s *DashboardService) RefreshPartial(ctx context.Context, kind dto.UpdateKind) (*dto.DashboardUpdate, error) {
	if !kind.Valid() {
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unknown dashboard section"),
			map[string]string{"kind": "must be one of stats grades enrollments activities students full"})
	}
	if kind == dto.UpdateFull {
		snap, err := s.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		return &dto.DashboardUpdate{Type: kind, Data: snap, Timestamp: s.now()}, nil
	}

	start := time.Now()
	field, data, err := s.section(ctx, kind)
	s.metrics.ObserveDashboardRefresh(string(kind), time.Since(start), err)
	if err != nil {
		s.logger.Error("dashboard section refresh failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to refresh dashboard "+string(kind))
	}
	return &dto.DashboardUpdate{
		Type:      kind,
		Data:      map[string]interface{}{field: data},
		Timestamp: s.now(),
	}, nil
}

func (s *DashboardService) section(ctx context.Context, kind dto.UpdateKind) (string, interface{}, error) {
	switch kind {
	case dto.UpdateStats:
		stats, err := s.store.Stats(ctx)
		return "stats", stats, err
	case dto.UpdateGrades:
		counts, err := s.store.GradeDistribution(ctx, dto.GradeBins)
		if err != nil {
			return "", nil, err
		}
		dist := dto.GradeDistribution{Labels: make([]string, len(dto.GradeBins)), Data: counts}
		for i, bin := range dto.GradeBins {
			dist.Labels[i] = bin.Label
		}
		return "gradeDistribution", dist, nil
	case dto.UpdateEnrollments:
		rows, err := s.store.ClassEnrollments(ctx)
		return "classEnrollments", rows, err
	case dto.UpdateActivities:
		activities, err := s.recentActivities(ctx, nil, s.now())
		return "recentActivities", activities, err
	default:
		rows, err := s.store.TopStudents(ctx, topStudentLimit)
		return "topStudents", rows, err
	}
}

// recentActivities prefers the audit log and falls back to synthetic entries
// built from raw, loading it when nil.
func (s *DashboardService) recentActivities(ctx context.Context, raw *dto.DashboardRawData, now time.Time) ([]dto.RecentActivity, error) {
	if s.audit != nil {
		entries, err := s.audit.Recent(ctx, recentActivityLimit)
		switch {
		case err != nil:
			s.logger.Warn("audit log unavailable, using synthetic activities", zap.Error(err))
		case len(entries) > 0:
			return activitiesFromAudit(entries), nil
		}
	}
	if raw == nil {
		var err error
		if raw, err = s.store.LoadRawData(ctx); err != nil {
			return nil, err
		}
	}
	return syntheticActivities(raw, now), nil
}

// BroadcastSnapshot pushes a full snapshot as dashboard:data.
func (s *DashboardService) BroadcastSnapshot(snap *dto.DashboardSnapshot) {
	s.hub.Broadcast(EventDashboardData, snap)
}

// BroadcastUpdate pushes a section envelope as dashboard:update.
func (s *DashboardService) BroadcastUpdate(update *dto.DashboardUpdate) {
	s.hub.Broadcast(EventDashboardUpdate, update)
}

// OnMutation refreshes the snapshot and pushes it to every subscriber.
func (s *DashboardService) OnMutation(ctx context.Context) error {
	snap, err := s.Refresh(ctx)
	if err != nil {
		return err
	}
	s.BroadcastSnapshot(snap)
	return nil
}
