package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"reunion/internal/apperr"
	"reunion/internal/auth"
	"reunion/internal/config"
	"reunion/internal/mocks"
	"reunion/internal/storage"
	"reunion/internal/storage/storagetest"
)

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecretKey: "test-secret",
		JWTExpiry:    time.Hour,
		Issuer:       "reunion-test",
	}}
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)
	blacklist := new(mocks.MockTokenBlacklist)
	svc := NewAuthService(storage.NewGormUserRepository(db), blacklist, testConfig())

	user, err := svc.Register(ctx, RegisterInput{
		Username: " alice ", Email: "alice@example.com", Password: "correct horse", FirstName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEqual(t, "correct horse", user.PasswordHash)

	t.Run("duplicates conflict", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Username: "alice", Email: "other@example.com", Password: "password1"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
		assert.Equal(t, 409, apperr.HTTPStatus(err))

		_, err = svc.Register(ctx, RegisterInput{Username: "alice2", Email: "alice@example.com", Password: "password1"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("input validation", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterInput{Username: "", Email: "x@example.com", Password: "password1"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "not-an-email", Password: "password1"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "bob@example.com", Password: "short"})
		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	token, logged, err := svc.Login(ctx, "alice@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	claims, err := auth.ValidateToken(ctx, token, "test-secret", nil)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Login(ctx, "alice", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	blacklist.On("Add", mock.Anything, claims.ID, claims.ExpiresAt.Time).Return(nil).Once()
	require.NoError(t, svc.Logout(ctx, claims))
	blacklist.AssertExpectations(t)

	assert.ErrorIs(t, svc.Logout(ctx, &auth.Claims{}), apperr.ErrValidation)
}
