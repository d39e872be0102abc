package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/models"
)

// AuditRepository appends to and reads the audit_log table.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new instance of AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append stores one audit entry.
func (r *AuditRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	const query = `INSERT INTO audit_log (entity, action, before, after, created_at) VALUES ($1, $2, $3, $4, NOW()) RETURNING id, created_at`
	if err := r.db.QueryRowxContext(ctx, query, entry.Entity, entry.Action, entry.Before, entry.After).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first.
func (r *AuditRepository) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	const query = `SELECT id, entity, action, before, after, created_at FROM audit_log ORDER BY created_at DESC, id DESC LIMIT $1`
	entries := make([]models.AuditEntry, 0, limit)
	if err := r.db.SelectContext(ctx, &entries, query, limit); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
