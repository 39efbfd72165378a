// Package validation provides input validation utilities. Cross-field
// uniqueness checks take a store lookup as a parameter so that the rules
// stay testable without a live database.
package validation

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"bazaar/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// allowedImageExtensions is the upload allow-list checked before the image
// intake service ever sees the file.
var allowedImageExtensions = map[string]struct{}{
	".jpg": {},
	".png": {},
}

// Lookup reports whether a candidate value is already taken in the store.
type Lookup func(ctx context.Context, value string) (bool, error)

// RegistrationInput carries the raw registration form fields.
type RegistrationInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// AccountUpdateInput carries the raw account update form fields.
type AccountUpdateInput struct {
	Username string
	Email    string
}

// ValidateUsername checks the username length bounds.
func ValidateUsername(username string) error {
	if len(username) < 2 || len(username) > 20 {
		return fmt.Errorf("username must be between 2 and 20 characters")
	}
	return nil
}

// ValidateEmail checks basic email format.
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	return nil
}

// ValidateImageFilename enforces the upload extension allow-list.
func ValidateImageFilename(filename string) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedImageExtensions[ext]; !ok {
		return fmt.Errorf("image must be a .jpg or .png file")
	}
	return nil
}

// ValidateRegistration checks all registration form fields, including the
// username/email uniqueness lookups. It returns one failure per offending
// field. The lookup error aborts validation outright.
func ValidateRegistration(ctx context.Context, in RegistrationInput, usernameTaken, emailTaken Lookup) ([]models.FieldError, error) {
	var failures []models.FieldError

	switch {
	case in.Username == "":
		failures = append(failures, models.FieldError{Field: "username", Message: "Username is required"})
	case ValidateUsername(in.Username) != nil:
		failures = append(failures, models.FieldError{Field: "username", Message: ValidateUsername(in.Username).Error()})
	default:
		taken, err := usernameTaken(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			failures = append(failures, models.FieldError{Field: "username", Message: "Username is already taken"})
		}
	}

	switch {
	case in.Email == "":
		failures = append(failures, models.FieldError{Field: "email", Message: "Email is required"})
	case ValidateEmail(in.Email) != nil:
		failures = append(failures, models.FieldError{Field: "email", Message: ValidateEmail(in.Email).Error()})
	default:
		taken, err := emailTaken(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			failures = append(failures, models.FieldError{Field: "email", Message: "Email is already taken"})
		}
	}

	if in.Password == "" {
		failures = append(failures, models.FieldError{Field: "password", Message: "Password is required"})
	}
	if in.ConfirmPassword == "" {
		failures = append(failures, models.FieldError{Field: "confirm_password", Message: "Password confirmation is required"})
	} else if in.Password != "" && in.Password != in.ConfirmPassword {
		failures = append(failures, models.FieldError{Field: "confirm_password", Message: "Passwords must match"})
	}

	return failures, nil
}

// ValidateAccountUpdate checks the account form. Uniqueness lookups are
// skipped for values the caller already owns.
func ValidateAccountUpdate(ctx context.Context, in AccountUpdateInput, current *models.User, usernameTaken, emailTaken Lookup) ([]models.FieldError, error) {
	var failures []models.FieldError

	switch {
	case in.Username == "":
		failures = append(failures, models.FieldError{Field: "username", Message: "Username is required"})
	case ValidateUsername(in.Username) != nil:
		failures = append(failures, models.FieldError{Field: "username", Message: ValidateUsername(in.Username).Error()})
	case in.Username != current.Username:
		taken, err := usernameTaken(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			failures = append(failures, models.FieldError{Field: "username", Message: "Username is already taken"})
		}
	}

	switch {
	case in.Email == "":
		failures = append(failures, models.FieldError{Field: "email", Message: "Email is required"})
	case ValidateEmail(in.Email) != nil:
		failures = append(failures, models.FieldError{Field: "email", Message: ValidateEmail(in.Email).Error()})
	case in.Email != current.Email:
		taken, err := emailTaken(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			failures = append(failures, models.FieldError{Field: "email", Message: "Email is already taken"})
		}
	}

	return failures, nil
}

// ValidateListingForm checks the listing form's required fields.
// imageRequired is false on updates, where replacement is optional.
func ValidateListingForm(title, content, imageFilename string, imageRequired bool) []models.FieldError {
	var failures []models.FieldError

	if title == "" {
		failures = append(failures, models.FieldError{Field: "title", Message: "Title is required"})
	}
	if content == "" {
		failures = append(failures, models.FieldError{Field: "content", Message: "Description is required"})
	}

	if imageFilename == "" {
		if imageRequired {
			failures = append(failures, models.FieldError{Field: "image", Message: "Item photo is required"})
		}
	} else if err := ValidateImageFilename(imageFilename); err != nil {
		failures = append(failures, models.FieldError{Field: "image", Message: err.Error()})
	}

	return failures
}
