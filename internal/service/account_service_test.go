package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type accountFixture struct {
	svc        *AccountService
	db         *gorm.DB
	profileDir string
	alice      *models.User
}

func newAccountFixture(t *testing.T) *accountFixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	dir := t.TempDir()

	users := repository.NewUserRepository(db)
	svc := NewAccountService(users, NewImageService(), dir)

	alice := &models.User{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "not-a-real-hash",
		Avatar:   models.DefaultAvatar,
	}
	require.NoError(t, db.Create(alice).Error)
	return &accountFixture{svc: svc, db: db, profileDir: dir, alice: alice}
}

func TestAccountGet(t *testing.T) {
	f := newAccountFixture(t)

	user, err := f.svc.Get(context.Background(), f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = f.svc.Get(context.Background(), 9999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestAccountUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("keeping own values is a no-op update", func(t *testing.T) {
		f := newAccountFixture(t)

		user, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "alice",
			Email:    "alice@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, models.DefaultAvatar, user.Avatar)
	})

	t.Run("changes username and email", func(t *testing.T) {
		f := newAccountFixture(t)

		user, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "alice2",
			Email:    "alice2@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, "alice2", user.Username)
		assert.Equal(t, "alice2@example.com", user.Email)
	})

	t.Run("rejects another user's username", func(t *testing.T) {
		f := newAccountFixture(t)
		bob := &models.User{Username: "bob", Email: "bob@example.com", Password: "x", Avatar: models.DefaultAvatar}
		require.NoError(t, f.db.Create(bob).Error)

		_, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "bob",
			Email:    "alice@example.com",
		})
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "username", appErr.Fields[0].Field)
	})

	t.Run("stores a new avatar without deleting the default", func(t *testing.T) {
		f := newAccountFixture(t)

		user, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "alice",
			Email:    "alice@example.com",
			Picture:  &FileUpload{Filename: "me.png", Content: testutil.PNGImage(t, 200, 200)},
		})
		require.NoError(t, err)
		assert.NotEqual(t, models.DefaultAvatar, user.Avatar)

		_, statErr := os.Stat(filepath.Join(f.profileDir, user.Avatar))
		assert.NoError(t, statErr)
	})

	t.Run("replacing a custom avatar removes the old file", func(t *testing.T) {
		f := newAccountFixture(t)

		first, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "alice",
			Email:    "alice@example.com",
			Picture:  &FileUpload{Filename: "me.png", Content: testutil.PNGImage(t, 200, 200)},
		})
		require.NoError(t, err)

		second, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "alice",
			Email:    "alice@example.com",
			Picture:  &FileUpload{Filename: "me2.jpg", Content: testutil.JPEGImage(t, 200, 200)},
		})
		require.NoError(t, err)
		assert.NotEqual(t, first.Avatar, second.Avatar)

		_, statErr := os.Stat(filepath.Join(f.profileDir, first.Avatar))
		assert.True(t, os.IsNotExist(statErr), "replaced avatar is cleaned up")
	})

	t.Run("rejects a disallowed picture extension", func(t *testing.T) {
		f := newAccountFixture(t)

		_, err := f.svc.Update(ctx, AccountUpdateInput{
			UserID:   f.alice.ID,
			Username: "alice",
			Email:    "alice@example.com",
			Picture:  &FileUpload{Filename: "me.gif", Content: testutil.PNGImage(t, 10, 10)},
		})
		require.Error(t, err)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		require.Len(t, appErr.Fields, 1)
		assert.Equal(t, "picture", appErr.Fields[0].Field)
	})
}
