package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/models"
)

// DashboardRepository reads the rows and aggregates behind the dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates a new instance of DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// LoadRawData fetches every student, class, grade, user and enrollment,
// most recently updated first.
func (r *DashboardRepository) LoadRawData(ctx context.Context) (*dto.DashboardRawData, error) {
	raw := &dto.DashboardRawData{
		Students:    []models.Student{},
		Classes:     []models.Class{},
		Grades:      []models.Grade{},
		Users:       []models.User{},
		Enrollments: []models.Enrollment{},
	}
	loads := []struct {
		label string
		dest  interface{}
		query string
	}{
		{"students", &raw.Students, `SELECT ` + studentColumns + ` FROM students s ORDER BY s.updated_at DESC, s.id DESC`},
		{"classes", &raw.Classes, `SELECT ` + classColumns + ` FROM classes c ORDER BY c.updated_at DESC, c.id DESC`},
		{"grades", &raw.Grades, `SELECT ` + gradeColumns + ` FROM ` + gradeFrom + ` ORDER BY g.updated_at DESC, g.id DESC`},
		{"users", &raw.Users, `SELECT ` + userColumns + ` FROM ` + userFrom + ` ORDER BY u.updated_at DESC, u.id DESC`},
		{"enrollments", &raw.Enrollments, `SELECT ` + enrollmentCols + ` FROM ` + enrollmentFrom + ` ORDER BY e.updated_at DESC, e.id DESC`},
	}
	for _, load := range loads {
		if err := r.db.SelectContext(ctx, load.dest, load.query); err != nil {
			return nil, fmt.Errorf("load %s: %w", load.label, err)
		}
	}
	return raw, nil
}

// Stats counts rows and averages every grade score to two decimals.
func (r *DashboardRepository) Stats(ctx context.Context) (dto.DashboardStats, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM students) AS student_count,
	(SELECT COUNT(*) FROM classes) AS class_count,
	(SELECT COUNT(*) FROM enrollments) AS enrollment_count,
	(SELECT ROUND(AVG(score)::numeric, 2) FROM grades) AS average_grade`
	var stats dto.DashboardStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return dto.DashboardStats{}, fmt.Errorf("dashboard stats: %w", err)
	}
	return stats, nil
}

// GradeDistribution counts scores inside each inclusive bin.
func (r *DashboardRepository) GradeDistribution(ctx context.Context, bins []dto.ScoreBin) ([]int, error) {
	if len(bins) == 0 {
		return []int{}, nil
	}
	parts := make([]string, len(bins))
	args := make([]interface{}, 0, len(bins)*2)
	for i, bin := range bins {
		parts[i] = fmt.Sprintf("COUNT(*) FILTER (WHERE score >= $%d AND score <= $%d)", 2*i+1, 2*i+2)
		args = append(args, bin.Min, bin.Max)
	}
	query := `SELECT ` + strings.Join(parts, ", ") + ` FROM grades`

	counts := make([]int, len(bins))
	dest := make([]interface{}, len(bins))
	for i := range counts {
		dest[i] = &counts[i]
	}
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(dest...); err != nil {
		return nil, fmt.Errorf("grade distribution: %w", err)
	}
	return counts, nil
}

// ClassEnrollments counts enrollments per class, busiest first. Classes
// without enrollments are included with zero.
func (r *DashboardRepository) ClassEnrollments(ctx context.Context) ([]dto.ClassEnrollment, error) {
	const query = `SELECT c.id AS class_id, c.name AS class_name, COUNT(e.id) AS enrollment_count
FROM classes c LEFT JOIN enrollments e ON e.class_id = c.id
GROUP BY c.id, c.name
ORDER BY enrollment_count DESC, c.id`
	rows := make([]dto.ClassEnrollment, 0)
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("class enrollments: %w", err)
	}
	return rows, nil
}

// TopStudents ranks students that have at least one grade by their average
// score rounded to one decimal.
func (r *DashboardRepository) TopStudents(ctx context.Context, limit int) ([]dto.TopStudent, error) {
	const query = `SELECT s.id, s.name, s.nisn, s.is_active,
	ROUND(AVG(g.score)::numeric, 1) AS avg_score,
	COUNT(DISTINCT e.class_id) AS class_count
FROM students s
JOIN grades g ON g.student_id = s.id
LEFT JOIN enrollments e ON e.student_id = s.id
GROUP BY s.id, s.name, s.nisn, s.is_active
ORDER BY avg_score DESC, s.id
LIMIT $1`
	rows := make([]dto.TopStudent, 0, limit)
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("top students: %w", err)
	}
	return rows, nil
}
