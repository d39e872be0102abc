package dto

import (
	"time"

	"github.com/noah-isme/school-records-api/internal/models"
)

// UpdateKind names a slice of the dashboard that can be recomputed alone.
type UpdateKind string

// Recognised update kinds.
const (
	UpdateStats       UpdateKind = "stats"
	UpdateGrades      UpdateKind = "grades"
	UpdateEnrollments UpdateKind = "enrollments"
	UpdateActivities  UpdateKind = "activities"
	UpdateStudents    UpdateKind = "students"
	UpdateFull        UpdateKind = "full"
)

// Valid reports whether k is a known kind.
func (k UpdateKind) Valid() bool {
	switch k {
	case UpdateStats, UpdateGrades, UpdateEnrollments, UpdateActivities, UpdateStudents, UpdateFull:
		return true
	}
	return false
}

// Activity types.
const (
	ActivityStudent    = "student"
	ActivityGrade      = "grade"
	ActivityUser       = "user"
	ActivityEnrollment = "enrollment"
	ActivityClass      = "class"
)

// DashboardSnapshot is the cached aggregate state pushed to subscribers.
type DashboardSnapshot struct {
	Stats             DashboardStats    `json:"stats"`
	GradeDistribution GradeDistribution `json:"gradeDistribution"`
	ClassEnrollments  []ClassEnrollment `json:"classEnrollments"`
	RecentActivities  []RecentActivity  `json:"recentActivities"`
	TopStudents       []TopStudent      `json:"topStudents"`
	RawData           *DashboardRawData `json:"rawData,omitempty"`
	GeneratedAt       time.Time         `json:"generatedAt"`
}

// ScoreBin is an inclusive score range of the grade histogram.
type ScoreBin struct {
	Label string
	Min   float64
	Max   float64
}

// GradeBins are the fixed histogram bins. Scores between two bins, such as
// 20.5, fall in none of them.
var GradeBins = []ScoreBin{
	{Label: "0-20", Min: 0, Max: 20},
	{Label: "21-40", Min: 21, Max: 40},
	{Label: "41-60", Min: 41, Max: 60},
	{Label: "61-80", Min: 61, Max: 80},
	{Label: "81-100", Min: 81, Max: 100},
}

// DashboardStats holds headline counters.
type DashboardStats struct {
	StudentCount    int      `db:"student_count" json:"studentCount"`
	ClassCount      int      `db:"class_count" json:"classCount"`
	EnrollmentCount int      `db:"enrollment_count" json:"enrollmentCount"`
	AverageGrade    *float64 `db:"average_grade" json:"averageGrade"`
}

// GradeDistribution is a histogram over fixed score bins.
type GradeDistribution struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// ClassEnrollment counts the enrollments referencing one class.
type ClassEnrollment struct {
	ClassID         int64  `db:"class_id" json:"classId"`
	ClassName       string `db:"class_name" json:"className"`
	EnrollmentCount int    `db:"enrollment_count" json:"enrollmentCount"`
}

// RecentActivity is a human readable change feed entry.
type RecentActivity struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
	// Synthetic marks entries derived from table rows rather than the audit log.
	Synthetic bool `json:"synthetic,omitempty"`
}

// TopStudent ranks a student by average score.
type TopStudent struct {
	ID         int64   `db:"id" json:"id"`
	Name       string  `db:"name" json:"name"`
	NISN       string  `db:"nisn" json:"nisn"`
	AvgScore   float64 `db:"avg_score" json:"avgScore"`
	ClassCount int     `db:"class_count" json:"classCount"`
	IsActive   bool    `db:"is_active" json:"isActive"`
}

// DashboardRawData carries the rows a snapshot was computed from.
type DashboardRawData struct {
	Students    []models.Student    `json:"students"`
	Classes     []models.Class      `json:"classes"`
	Grades      []models.Grade      `json:"grades"`
	Users       []models.User       `json:"users"`
	Enrollments []models.Enrollment `json:"enrollments"`
}

// DashboardUpdate wraps a partial or full recomputation for delivery.
type DashboardUpdate struct {
	Type UpdateKind `json:"type"`
	// Data is a full snapshot for UpdateFull, otherwise an object holding
	// the one recomputed section under its snapshot field name.
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}
