package models

import "time"

// Enrollment places a student in a class.
type Enrollment struct {
	ID        int64      `db:"id" json:"id"`
	StudentID int64      `db:"student_id" json:"studentId"`
	ClassID   int64      `db:"class_id" json:"classId"`
	Student   StudentRef `db:"student" json:"student"`
	Class     ClassRef   `db:"class" json:"class"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}
