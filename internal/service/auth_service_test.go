package service

import (
	"context"
	"testing"

	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := testutil.OpenTestDB(t)
	return NewAuthService(repository.NewUserRepository(db))
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
	}
}

func TestPasswordHashing(t *testing.T) {
	digest, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", digest)
	assert.NotContains(t, digest, "hunter22")

	assert.True(t, VerifyPassword(digest, "hunter22"))
	assert.False(t, VerifyPassword(digest, "hunter23"))

	// same plaintext, different salt
	other, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, digest, other)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the user with a hashed password", func(t *testing.T) {
		svc := newAuthService(t)

		user, err := svc.Register(ctx, validRegistration())
		require.NoError(t, err)
		require.NotZero(t, user.ID)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, models.DefaultAvatar, user.Avatar)
		assert.NotEqual(t, "hunter22", user.Password)
		assert.True(t, VerifyPassword(user.Password, "hunter22"))
	})

	t.Run("rejects a taken username", func(t *testing.T) {
		svc := newAuthService(t)
		_, err := svc.Register(ctx, validRegistration())
		require.NoError(t, err)

		in := validRegistration()
		in.Email = "other@example.com"
		_, err = svc.Register(ctx, in)
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "username", appErr.Fields[0].Field)
	})

	t.Run("rejects a taken email", func(t *testing.T) {
		svc := newAuthService(t)
		_, err := svc.Register(ctx, validRegistration())
		require.NoError(t, err)

		in := validRegistration()
		in.Username = "bob"
		_, err = svc.Register(ctx, in)
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "email", appErr.Fields[0].Field)
	})

	t.Run("rejects a password mismatch", func(t *testing.T) {
		svc := newAuthService(t)
		in := validRegistration()
		in.ConfirmPassword = "different"
		_, err := svc.Register(ctx, in)
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "confirm_password", appErr.Fields[0].Field)
	})
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newAuthService(t)
	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		user, err := svc.Authenticate(ctx, "alice@example.com", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("wrong password and unknown email fail identically", func(t *testing.T) {
		_, wrongPass := svc.Authenticate(ctx, "alice@example.com", "wrong")
		_, unknownEmail := svc.Authenticate(ctx, "nobody@example.com", "hunter22")

		require.Error(t, wrongPass)
		require.Error(t, unknownEmail)
		assert.Equal(t, wrongPass.Error(), unknownEmail.Error())

		var appErr *models.AppError
		require.ErrorAs(t, wrongPass, &appErr)
		assert.Equal(t, "AUTHENTICATION_FAILED", appErr.Code)
	})
}
