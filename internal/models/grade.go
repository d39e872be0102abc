package models

import "time"

// Grade is a score a student earned in a subject for a term.
type Grade struct {
	ID        int64      `db:"id" json:"id"`
	StudentID int64      `db:"student_id" json:"studentId"`
	Subject   string     `db:"subject" json:"subject"`
	Term      string     `db:"term" json:"term"`
	Score     float64    `db:"score" json:"score"`
	Student   StudentRef `db:"student" json:"student"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}
