package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
)

func TestUserRepositoryFindByEmailNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`WHERE LOWER\(u.email\) = LOWER\(\$1\) LIMIT 1`).
		WithArgs("guru@school.id").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "guru@school.id")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &models.User{Name: "Guru", Email: "guru@school.id", RoleID: 2})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1) AND id <> $2)`)).
		WithArgs("guru@school.id", int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "guru@school.id", 3)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepositoryRefreshTokenLifecycle(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	token := &models.RefreshToken{
		ID:        "jti-1",
		UserID:    4,
		ExpiresAt: now.Add(24 * time.Hour),
		CreatedAt: now,
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	}

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("jti-1", int64(4), token.ExpiresAt, now, "10.0.0.1", "test").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.CreateRefreshToken(context.Background(), token))

	mock.ExpectQuery(`FROM refresh_tokens WHERE id = \$1`).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at", "revoked_at", "ip_address", "user_agent"}).
			AddRow("jti-1", int64(4), token.ExpiresAt, now, nil, "10.0.0.1", "test"))
	found, err := repo.FindRefreshToken(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), found.UserID)
	assert.Nil(t, found.RevokedAt)

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at = \$2 WHERE id = \$1 AND revoked_at IS NULL`).
		WithArgs("jti-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.RevokeRefreshToken(context.Background(), "jti-1", now))

	mock.ExpectExec(`UPDATE refresh_tokens SET revoked_at = \$2 WHERE user_id = \$1`).
		WithArgs(int64(4), now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	require.NoError(t, repo.RevokeUserRefreshTokens(context.Background(), 4, now))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryAppendAndRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO audit_log \(entity, action, before, after, created_at\)`).
		WithArgs(models.EntityStudent, models.AuditInsert, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(11), now))

	entry := &models.AuditEntry{Entity: models.EntityStudent, Action: models.AuditInsert, After: models.JSONMap{"name": "Ana"}}
	require.NoError(t, repo.Append(context.Background(), entry))
	assert.Equal(t, int64(11), entry.ID)

	mock.ExpectQuery(`FROM audit_log ORDER BY created_at DESC, id DESC LIMIT \$1`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity", "action", "before", "after", "created_at"}).
			AddRow(int64(11), "student", "INSERT", nil, []byte(`{"name":"Ana"}`), now))

	entries, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ana", entries[0].After["name"])
	assert.Nil(t, entries[0].Before)
	assert.NoError(t, mock.ExpectationsWereMet())
}
