package validation

import (
	"context"
	"errors"
	"testing"

	"bazaar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func neverTaken(_ context.Context, _ string) (bool, error)  { return false, nil }
func alwaysTaken(_ context.Context, _ string) (bool, error) { return true, nil }

func fieldFor(failures []models.FieldError, field string) *models.FieldError {
	for i := range failures {
		if failures[i].Field == field {
			return &failures[i]
		}
	}
	return nil
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"minimum length", "ab", false},
		{"maximum length", "abcdefghijklmnopqrst", false},
		{"too short", "a", true},
		{"too long", "abcdefghijklmnopqrstu", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.NoError(t, ValidateEmail("a.b+tag@sub.example.co"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidateImageFilename(t *testing.T) {
	assert.NoError(t, ValidateImageFilename("photo.jpg"))
	assert.NoError(t, ValidateImageFilename("photo.PNG"))
	assert.Error(t, ValidateImageFilename("photo.gif"))
	assert.Error(t, ValidateImageFilename("photo.webp"))
	assert.Error(t, ValidateImageFilename("photo"))
}

func TestValidateRegistration(t *testing.T) {
	ctx := context.Background()

	t.Run("valid input passes", func(t *testing.T) {
		failures, err := ValidateRegistration(ctx, RegistrationInput{
			Username:        "alice",
			Email:           "alice@example.com",
			Password:        "secret",
			ConfirmPassword: "secret",
		}, neverTaken, neverTaken)
		require.NoError(t, err)
		assert.Empty(t, failures)
	})

	t.Run("taken username and email each flag their own field", func(t *testing.T) {
		failures, err := ValidateRegistration(ctx, RegistrationInput{
			Username:        "alice",
			Email:           "alice@example.com",
			Password:        "secret",
			ConfirmPassword: "secret",
		}, alwaysTaken, alwaysTaken)
		require.NoError(t, err)
		require.Len(t, failures, 2)
		assert.NotNil(t, fieldFor(failures, "username"))
		assert.NotNil(t, fieldFor(failures, "email"))
	})

	t.Run("password mismatch flags confirm_password", func(t *testing.T) {
		failures, err := ValidateRegistration(ctx, RegistrationInput{
			Username:        "alice",
			Email:           "alice@example.com",
			Password:        "secret",
			ConfirmPassword: "different",
		}, neverTaken, neverTaken)
		require.NoError(t, err)
		require.Len(t, failures, 1)
		assert.Equal(t, "confirm_password", failures[0].Field)
	})

	t.Run("empty form flags every field", func(t *testing.T) {
		failures, err := ValidateRegistration(ctx, RegistrationInput{}, neverTaken, neverTaken)
		require.NoError(t, err)
		assert.NotNil(t, fieldFor(failures, "username"))
		assert.NotNil(t, fieldFor(failures, "email"))
		assert.NotNil(t, fieldFor(failures, "password"))
		assert.NotNil(t, fieldFor(failures, "confirm_password"))
	})

	t.Run("malformed username skips the uniqueness lookup", func(t *testing.T) {
		lookupErr := errors.New("lookup should not run")
		failed := func(_ context.Context, _ string) (bool, error) { return false, lookupErr }
		failures, err := ValidateRegistration(ctx, RegistrationInput{
			Username:        "a",
			Email:           "alice@example.com",
			Password:        "secret",
			ConfirmPassword: "secret",
		}, failed, neverTaken)
		require.NoError(t, err)
		assert.NotNil(t, fieldFor(failures, "username"))
	})

	t.Run("lookup failure aborts validation", func(t *testing.T) {
		lookupErr := errors.New("store unavailable")
		failed := func(_ context.Context, _ string) (bool, error) { return false, lookupErr }
		_, err := ValidateRegistration(ctx, RegistrationInput{
			Username:        "alice",
			Email:           "alice@example.com",
			Password:        "secret",
			ConfirmPassword: "secret",
		}, failed, neverTaken)
		assert.ErrorIs(t, err, lookupErr)
	})
}

func TestValidateAccountUpdate(t *testing.T) {
	ctx := context.Background()
	current := &models.User{Username: "alice", Email: "alice@example.com"}

	t.Run("unchanged values skip the lookups", func(t *testing.T) {
		failures, err := ValidateAccountUpdate(ctx, AccountUpdateInput{
			Username: "alice",
			Email:    "alice@example.com",
		}, current, alwaysTaken, alwaysTaken)
		require.NoError(t, err)
		assert.Empty(t, failures)
	})

	t.Run("changed values hit the lookups", func(t *testing.T) {
		failures, err := ValidateAccountUpdate(ctx, AccountUpdateInput{
			Username: "bob",
			Email:    "bob@example.com",
		}, current, alwaysTaken, alwaysTaken)
		require.NoError(t, err)
		require.Len(t, failures, 2)
	})

	t.Run("changed values pass when free", func(t *testing.T) {
		failures, err := ValidateAccountUpdate(ctx, AccountUpdateInput{
			Username: "bob",
			Email:    "bob@example.com",
		}, current, neverTaken, neverTaken)
		require.NoError(t, err)
		assert.Empty(t, failures)
	})
}

func TestValidateListingForm(t *testing.T) {
	t.Run("complete form passes", func(t *testing.T) {
		assert.Empty(t, ValidateListingForm("Bike", "Barely used", "bike.jpg", true))
	})

	t.Run("missing image required on create", func(t *testing.T) {
		failures := ValidateListingForm("Bike", "Barely used", "", true)
		require.Len(t, failures, 1)
		assert.Equal(t, "image", failures[0].Field)
	})

	t.Run("missing image accepted on update", func(t *testing.T) {
		assert.Empty(t, ValidateListingForm("Bike", "Barely used", "", false))
	})

	t.Run("disallowed extension rejected even on update", func(t *testing.T) {
		failures := ValidateListingForm("Bike", "Barely used", "bike.gif", false)
		require.Len(t, failures, 1)
		assert.Equal(t, "image", failures[0].Field)
	})

	t.Run("missing title and content", func(t *testing.T) {
		failures := ValidateListingForm("", "", "bike.jpg", true)
		assert.Len(t, failures, 2)
	})
}
