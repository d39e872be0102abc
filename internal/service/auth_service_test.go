package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-records-api/internal/models"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func newAuthFixture(t *testing.T, active bool) (*AuthService, *fakeUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)
	repo := newFakeUserRepo()
	repo.put(models.User{
		ID:           1,
		Name:         "Admin",
		Email:        "admin@school.id",
		PasswordHash: string(hash),
		IsActive:     active,
		RoleID:       1,
		Role:         models.RoleRef{ID: 1, Name: models.RoleAdmin},
	})
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "school-records",
	})
	return svc, repo
}

func TestLoginIssuesSession(t *testing.T) {
	svc, repo := newAuthFixture(t, true)

	session, err := svc.Login(context.Background(), models.LoginRequest{Email: "Admin@School.id", Password: "password123", IP: "10.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotEmpty(t, session.CSRFToken)
	assert.Equal(t, models.RoleAdmin, session.User.Role)
	assert.Contains(t, session.User.Permissions, "grade:delete")
	require.Len(t, repo.tokens, 1)

	claims, err := svc.ValidateToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, "school-records", claims.Issuer)

	_, err = svc.ValidateToken(session.RefreshToken)
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t, true)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "wrong"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "ghost@school.id", Password: "password123"})
	requireAppError(t, err, appErrors.ErrInvalidCredentials.Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	requireAppError(t, err, appErrors.ErrValidation.Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, false)
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@school.id", Password: "password123"})
	requireAppError(t, err, appErrors.ErrInactiveAccount.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t, true)
	ctx := context.Background()
	session, err := svc.Login(ctx, models.LoginRequest{Email: "admin@school.id", Password: "password123"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, session.RefreshToken, "", "")
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, rotated.RefreshToken)
	assert.Len(t, repo.tokens, 2)

	_, err = svc.Refresh(ctx, session.RefreshToken, "", "")
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)

	_, err = svc.Refresh(ctx, session.AccessToken, "", "")
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	svc, _ := newAuthFixture(t, true)
	ctx := context.Background()
	session, err := svc.Login(ctx, models.LoginRequest{Email: "admin@school.id", Password: "password123"})
	require.NoError(t, err)

	err = svc.Logout(ctx, session.RefreshToken, 2)
	requireAppError(t, err, appErrors.ErrForbidden.Code)

	require.NoError(t, svc.Logout(ctx, session.RefreshToken, 1))
	_, err = svc.Refresh(ctx, session.RefreshToken, "", "")
	requireAppError(t, err, appErrors.ErrUnauthorized.Code)

	assert.NoError(t, svc.Logout(ctx, "", 1))
	assert.NoError(t, svc.Logout(ctx, "garbage", 1))
}

func TestMe(t *testing.T) {
	svc, _ := newAuthFixture(t, true)
	info, err := svc.Me(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "admin@school.id", info.Email)

	_, err = svc.Me(context.Background(), 42)
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestPermissions(t *testing.T) {
	assert.True(t, HasPermission(models.RoleAdmin, "role:delete"))
	assert.True(t, HasPermission(models.RoleTeacher, "grade:read"))
	assert.False(t, HasPermission(models.RoleTeacher, "grade:create"))
	assert.False(t, HasPermission("guest", "student:read"))
	assert.Len(t, PermissionsFor(models.RoleAdmin), 26)
	assert.Equal(t, []string{
		"class:read", "enrollment:read", "grade:read", "profile:read",
		"profile:update", "student:read", "user:read",
	}, PermissionsFor(models.RoleTeacher))
}
