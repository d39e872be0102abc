package models

import "time"

// Well-known role names.
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
)

// User is an account able to sign in.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Bio          *string   `db:"bio" json:"bio"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	RoleID       int64     `db:"role_id" json:"roleId"`
	Role         RoleRef   `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
