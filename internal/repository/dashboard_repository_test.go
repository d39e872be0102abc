package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/dto"
	"github.com/noah-isme/school-records-api/internal/models"
)

func TestDashboardRepositoryStats(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM students\) AS student_count`).
		WillReturnRows(sqlmock.NewRows([]string{"student_count", "class_count", "enrollment_count", "average_grade"}).
			AddRow(10, 3, 12, []byte("80.00")))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.StudentCount)
	require.NotNil(t, stats.AverageGrade)
	assert.Equal(t, 80.0, *stats.AverageGrade)
}

func TestDashboardRepositoryStatsWithoutGrades(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`SELECT`).
		WillReturnRows(sqlmock.NewRows([]string{"student_count", "class_count", "enrollment_count", "average_grade"}).
			AddRow(0, 0, 0, nil))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.AverageGrade)
}

func TestDashboardRepositoryGradeDistribution(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FILTER (WHERE score >= $1 AND score <= $2), COUNT(*) FILTER (WHERE score >= $3 AND score <= $4)")).
		WithArgs(0.0, 20.0, 21.0, 40.0, 41.0, 60.0, 61.0, 80.0, 81.0, 100.0).
		WillReturnRows(sqlmock.NewRows([]string{"a", "b", "c", "d", "e"}).AddRow(1, 2, 0, 0, 1))

	counts, err := repo.GradeDistribution(context.Background(), dto.GradeBins)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 0, 0, 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryClassEnrollmentsAndTopStudents(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`FROM classes c LEFT JOIN enrollments e`).
		WillReturnRows(sqlmock.NewRows([]string{"class_id", "class_name", "enrollment_count"}).
			AddRow(int64(2), "XI-1", 5).
			AddRow(int64(1), "X-1", 0))
	mock.ExpectQuery(`JOIN grades g ON g.student_id = s.id`).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "nisn", "is_active", "avg_score", "class_count"}).
			AddRow(int64(7), "Sari", "001", true, []byte("91.5"), 2))

	classes, err := repo.ClassEnrollments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []dto.ClassEnrollment{{ClassID: 2, ClassName: "XI-1", EnrollmentCount: 5}, {ClassID: 1, ClassName: "X-1"}}, classes)

	top, err := repo.TopStudents(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []dto.TopStudent{{ID: 7, Name: "Sari", NISN: "001", AvgScore: 91.5, ClassCount: 2, IsActive: true}}, top)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryLoadRawData(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDashboardRepository(db)
	now := time.Now()

	mock.ExpectQuery(`FROM students s ORDER BY`).WillReturnRows(sqlmock.NewRows(studentCols).AddRow(int64(1), "001", "Sari", nil, nil, true, now, now))
	mock.ExpectQuery(`FROM classes c ORDER BY`).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "year", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM grades g`).WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "subject", "term", "score", "student.name", "student.nisn", "created_at", "updated_at"}).
		AddRow(int64(3), int64(1), "Math", "2024-1", []byte("88.50"), "Sari", "001", now, now))
	mock.ExpectQuery(`FROM users u`).WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "bio", "is_active", "role_id", "role.id", "role.name", "created_at", "updated_at"}))
	mock.ExpectQuery(`FROM enrollments e`).WillReturnRows(sqlmock.NewRows(enrollmentRowCols))

	raw, err := repo.LoadRawData(context.Background())
	require.NoError(t, err)
	assert.Len(t, raw.Students, 1)
	assert.Empty(t, raw.Classes)
	require.Len(t, raw.Grades, 1)
	assert.Equal(t, 88.5, raw.Grades[0].Score)
	assert.Equal(t, models.StudentRef{Name: "Sari", NISN: "001"}, raw.Grades[0].Student)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, entity, action, before, after, created_at FROM audit_log ORDER BY created_at DESC, id DESC LIMIT $1")).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity", "action", "before", "after", "created_at"}).
			AddRow(int64(1), "students", "INSERT", nil, []byte(`{"name":"Sari"}`), now))

	entries, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].Before)
	assert.Equal(t, "Sari", entries[0].After.String("name"))
}

func TestAuditRepositoryAppend(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO audit_log").
		WithArgs("student", "DELETE", sqlmock.AnyArg(), nil).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	entry := &models.AuditEntry{Entity: "student", Action: models.AuditDelete, Before: models.JSONMap{"name": "Sari"}}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Equal(t, int64(11), entry.ID)
}
