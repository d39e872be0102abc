package models

import "time"

// Audit actions mirror the statement that changed the row.
const (
	AuditInsert = "INSERT"
	AuditUpdate = "UPDATE"
	AuditDelete = "DELETE"
)

// Audited entity names.
const (
	EntityStudent    = "student"
	EntityClass      = "class"
	EntityGrade      = "grade"
	EntityEnrollment = "enrollment"
	EntityUser       = "user"
	EntityRole       = "role"
)

// AuditEntry is one row of the audit_log table.
type AuditEntry struct {
	ID        int64     `db:"id" json:"id"`
	Entity    string    `db:"entity" json:"entity"`
	Action    string    `db:"action" json:"action"`
	Before    JSONMap   `db:"before" json:"before,omitempty"`
	After     JSONMap   `db:"after" json:"after,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
