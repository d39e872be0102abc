package service

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/repository"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/export"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

const listCachePrefix = "list:"

type listSource[T any] interface {
	List(ctx context.Context, req listquery.Request) (*listquery.Result[T], error)
}

// entityLister implements list and export for one entity.
type entityLister[T any] struct {
	name    string
	title   string
	source  listSource[T]
	checker *listquery.Validator
	cache   *CacheService
	columns []export.Column
	logger  *zap.Logger
}

// List validates req and returns one page of rows. The second result
// reports a cache hit.
func (l *entityLister[T]) List(ctx context.Context, req listquery.Request) (*listquery.Result[T], bool, error) {
	if err := l.checker.Validate(req); err != nil {
		return nil, false, invalidPayload(err, "invalid list request")
	}

	result, hit, err := remember(ctx, l.cache, l.cacheKey(req), func() (*listquery.Result[T], error) {
		return l.source.List(ctx, req)
	})
	if err != nil {
		l.logger.Error("list query failed", zap.String("entity", l.name), zap.Error(err))
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list "+l.name)
	}
	return result, hit, nil
}

// ExportCSV renders every row matching req's filters and sort.
func (l *entityLister[T]) ExportCSV(ctx context.Context, req listquery.Request) (string, error) {
	rows, err := l.exportRows(ctx, req)
	if err != nil {
		return "", err
	}
	return export.NewCSVExporter().Render(rows, l.columns), nil
}

// ExportPDF renders the same dataset as ExportCSV as a PDF table.
func (l *entityLister[T]) ExportPDF(ctx context.Context, req listquery.Request) ([]byte, error) {
	rows, err := l.exportRows(ctx, req)
	if err != nil {
		return nil, err
	}
	out, err := export.NewPDFExporter().Render(l.title, rows, l.columns)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render "+l.name+" pdf")
	}
	return out, nil
}

// Name returns the plural entity name used in file names and logs.
func (l *entityLister[T]) Name() string {
	return l.name
}

func (l *entityLister[T]) exportRows(ctx context.Context, req listquery.Request) ([]T, error) {
	if err := l.checker.ValidateForExport(req); err != nil {
		return nil, invalidPayload(err, "invalid export request")
	}
	result, err := l.source.List(ctx, req.ForExport())
	if err != nil {
		l.logger.Error("export query failed", zap.String("entity", l.name), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export "+l.name)
	}
	return result.Rows, nil
}

func (l *entityLister[T]) cacheKey(req listquery.Request) string {
	if !l.cache.Enabled() {
		return ""
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return ""
	}
	sum := sha1.Sum(raw)
	return listCachePrefix + l.name + ":" + hex.EncodeToString(sum[:])
}

// MutationNotifier is told about every successful write.
type MutationNotifier interface {
	NotifyMutation(entity, action string)
}

type auditAppender interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}

// mutationRecorder runs the side effects shared by every write: the audit
// entry, list cache invalidation and the dashboard notification. None of
// them fail the write.
type mutationRecorder struct {
	audit    auditAppender
	notifier MutationNotifier
	cache    *CacheService
	logger   *zap.Logger
}

func (m mutationRecorder) record(ctx context.Context, entity, action string, before, after interface{}) {
	if m.audit != nil {
		entry := &models.AuditEntry{Entity: entity, Action: action, Before: toJSONMap(before), After: toJSONMap(after)}
		if err := m.audit.Append(ctx, entry); err != nil {
			m.logger.Warn("failed to append audit entry", zap.String("entity", entity), zap.String("action", action), zap.Error(err))
		}
	}
	if m.cache.Enabled() {
		_ = m.cache.Invalidate(ctx, listCachePrefix+"*")
	}
	if m.notifier != nil {
		m.notifier.NotifyMutation(entity, action)
	}
}

func toJSONMap(v interface{}) models.JSONMap {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return models.JSONMap{"error": fmt.Sprintf("unserialisable %T", v)}
	}
	var out models.JSONMap
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

// EntityDeps groups the collaborators every entity service shares.
type EntityDeps struct {
	Checker  *listquery.Validator
	Validate *validator.Validate
	Cache    *CacheService
	Audit    auditAppender
	Notifier MutationNotifier
	Logger   *zap.Logger
}

func (d EntityDeps) withDefaults() EntityDeps {
	if d.Checker == nil {
		d.Checker = listquery.NewValidator()
	}
	if d.Validate == nil {
		d.Validate = NewValidator()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

func newEntityLister[T any](name, title string, source listSource[T], columns []export.Column, deps EntityDeps) entityLister[T] {
	return entityLister[T]{
		name:    name,
		title:   title,
		source:  source,
		checker: deps.Checker,
		cache:   deps.Cache,
		columns: columns,
		logger:  deps.Logger,
	}
}

func (d EntityDeps) recorder() mutationRecorder {
	return mutationRecorder{audit: d.Audit, notifier: d.Notifier, cache: d.Cache, logger: d.Logger}
}

// storeError maps repository failures of a write onto API errors.
func storeError(err error, entity, action string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, entity+" already exists")
	case errors.Is(err, repository.ErrForeignKey) && action == models.AuditDelete:
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, entity+" is still referenced")
	case errors.Is(err, repository.ErrForeignKey):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "referenced record does not exist")
	}
	verb := map[string]string{models.AuditInsert: "create", models.AuditUpdate: "update", models.AuditDelete: "delete"}[action]
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+verb+" "+entity)
}

// loadError maps a failed lookup by id.
func loadError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}
