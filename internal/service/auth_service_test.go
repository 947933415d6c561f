package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aulanet/academia-api/internal/models"
	appErrors "github.com/aulanet/academia-api/pkg/errors"
)

type fakeUserRepo struct {
	user      *models.User
	lastLogin *time.Time
}

func (f *fakeUserRepo) FindByEmail(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUserRepo) FindByID(context.Context, string) (*models.User, error) {
	if f.user == nil {
		return nil, sql.ErrNoRows
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(_ context.Context, _ string, ts time.Time) error {
	f.lastLogin = &ts
	return nil
}

func authFixture(t *testing.T, password string, active bool) (*AuthService, *fakeUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	repo := &fakeUserRepo{user: &models.User{
		ID:           "user-1",
		Email:        "admin@academia.test",
		PasswordHash: string(hash),
		Active:       active,
	}}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "academia-api",
	})
	return svc, repo
}

func TestLoginIssuesValidToken(t *testing.T) {
	svc, repo := authFixture(t, "s3cret", true)

	res, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@academia.test",
		Password: "s3cret",
	})

	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.NotNil(t, repo.lastLogin)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "admin@academia.test", claims.Email)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := authFixture(t, "s3cret", true)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@academia.test",
		Password: "wrong",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, _ := authFixture(t, "s3cret", false)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@academia.test",
		Password: "s3cret",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := authFixture(t, "s3cret", true)

	_, err := svc.ValidateToken("not-a-token")

	require.Error(t, err)
}
