package models

import "time"

// Student is a learner registered in the school.
type Student struct {
	ID              int64      `db:"id" json:"id"`
	NISN            string     `db:"nisn" json:"nisn"`
	Name            string     `db:"name" json:"name"`
	DOB             *time.Time `db:"dob" json:"dob"`
	GuardianContact *string    `db:"guardian_contact" json:"guardianContact"`
	IsActive        bool       `db:"is_active" json:"isActive"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// StudentRef is the student projection joined onto enrollments and grades.
type StudentRef struct {
	Name string `db:"name" json:"name"`
	NISN string `db:"nisn" json:"nisn"`
}
