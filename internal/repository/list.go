package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/pkg/listquery"
)

// QueryObserver receives timings for list queries.
type QueryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// listRunner executes builder output against the database.
type listRunner struct {
	db       *sqlx.DB
	builder  *listquery.Builder
	observer QueryObserver
}

// ListOption customises how a repository runs list queries.
type ListOption func(*listRunner)

// WithBuilder sets the query builder, e.g. one that logs skipped filters.
func WithBuilder(b *listquery.Builder) ListOption {
	return func(r *listRunner) {
		if b != nil {
			r.builder = b
		}
	}
}

// WithObserver reports list query timings.
func WithObserver(o QueryObserver) ListOption {
	return func(r *listRunner) { r.observer = o }
}

func newListRunner(db *sqlx.DB, opts []ListOption) listRunner {
	r := listRunner{db: db, builder: &listquery.Builder{}}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// runList selects one page and the matching row count. The page query runs
// first; a failure of either surfaces without partial rows.
func runList[T any](ctx context.Context, r listRunner, label string, spec listquery.Spec, req listquery.Request) (*listquery.Result[T], error) {
	start := time.Now()
	q := r.builder.Build(spec, req)

	query, args := q.Select(listquery.Paginate(req.Page, req.PerPage))
	rows := make([]T, 0)
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", label, err)
	}

	countQuery, countArgs := q.Count()
	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind(countQuery), countArgs...); err != nil {
		return nil, fmt.Errorf("count %s: %w", label, err)
	}

	if r.observer != nil {
		r.observer.ObserveDBQuery("list_"+label, time.Since(start))
	}
	return &listquery.Result[T]{Rows: rows, Meta: listquery.NewMeta(req.Page, req.PerPage, total)}, nil
}
