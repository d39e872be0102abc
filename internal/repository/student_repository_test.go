package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/pkg/listquery"
)

var studentCols = []string{"id", "nisn", "name", "dob", "guardian_contact", "is_active", "created_at", "updated_at"}

func TestStudentRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT `+studentColumns+` FROM students s WHERE (s.name ILIKE $1 AND s.is_active = $2) ORDER BY s.name ASC LIMIT $3 OFFSET $4`)).
		WithArgs("%sar%", true, 20, 20).
		WillReturnRows(sqlmock.NewRows(studentCols).
			AddRow(int64(1), "001", "Sari", now, "0812", true, now, now).
			AddRow(int64(2), "002", "Sarah", nil, nil, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM students s WHERE (s.name ILIKE $1 AND s.is_active = $2)`)).
		WithArgs("%sar%", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	req := listquery.NewRequest()
	req.Page = 2
	req.PerPage = 20
	req.Filters = []listquery.Filter{
		{ID: "name", Value: "sar", Variant: listquery.VariantText, Operator: listquery.OpILike},
		{ID: "isActive", Value: "true", Variant: listquery.VariantBoolean, Operator: listquery.OpEq},
	}
	req.Sort = []listquery.SortItem{{ID: "name"}}

	result, err := repo.List(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Sari", result.Rows[0].Name)
	require.NotNil(t, result.Rows[0].GuardianContact)
	assert.Nil(t, result.Rows[1].DOB)
	assert.Equal(t, listquery.Meta{Page: 2, PerPage: 20, TotalRows: 42, TotalPage: 3}, result.Meta)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListFailureReturnsNoRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(`SELECT .* FROM students s ORDER BY s.updated_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnError(errors.New("connection reset"))

	result, err := repo.List(context.Background(), listquery.NewRequest())
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "list students")
	assert.NoError(t, mock.ExpectationsWereMet())
}

type observerStub struct{ labels []string }

func (o *observerStub) ObserveDBQuery(label string, _ time.Duration) {
	o.labels = append(o.labels, label)
}

func TestStudentRepositoryListReportsTiming(t *testing.T) {
	db, mock := newMockDB(t)
	obs := &observerStub{}
	repo := NewStudentRepository(db, WithObserver(obs))

	mock.ExpectQuery(`SELECT .* FROM students s`).WillReturnRows(sqlmock.NewRows(studentCols))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM students s`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	result, err := repo.List(context.Background(), listquery.NewRequest())
	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.NotNil(t, result.Rows)
	assert.Equal(t, 0, result.Meta.TotalPage)
	assert.Equal(t, []string{"list_students"}, obs.labels)
}

func TestStudentRepositoryCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO students").
		WithArgs("123", "Budi", sqlmock.AnyArg(), sqlmock.AnyArg(), true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(9), now, now))

	student := &models.Student{NISN: "123", Name: "Budi", IsActive: true}
	require.NoError(t, repo.Create(context.Background(), student))
	assert.Equal(t, int64(9), student.ID)
	assert.Equal(t, now, student.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery("INSERT INTO students").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "students_nisn_key"})

	err := repo.Create(context.Background(), &models.Student{NISN: "123", Name: "Budi"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestStudentRepositoryUpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery("UPDATE students SET").
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	err := repo.Update(context.Background(), &models.Student{ID: 5, NISN: "1", Name: "X"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStudentRepositoryDelete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs(int64(4)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM students WHERE id = $1")).WithArgs(int64(5)).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "grades_student_id_fkey"})

	require.NoError(t, repo.Delete(context.Background(), 3))
	assert.ErrorIs(t, repo.Delete(context.Background(), 4), sql.ErrNoRows)
	assert.ErrorIs(t, repo.Delete(context.Background(), 5), ErrForeignKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByNISN(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM students WHERE nisn = $1 AND id <> $2)")).
		WithArgs("001", int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByNISN(context.Background(), "001", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}
