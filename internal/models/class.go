package models

import "time"

// Class is a study group within a school year.
type Class struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Year      int       `db:"year" json:"year"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ClassRef is the class projection joined onto enrollments.
type ClassRef struct {
	Name string `db:"name" json:"name"`
	Year int    `db:"year" json:"year"`
}
