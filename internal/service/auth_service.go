package service

import (
	"context"

	"bazaar/internal/models"
	"bazaar/internal/observability"
	"bazaar/internal/repository"
	"bazaar/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration and credential verification.
type AuthService struct {
	users repository.UserRepository
}

// RegisterInput carries the raw registration form fields.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

// NewAuthService returns a new AuthService.
func NewAuthService(users repository.UserRepository) *AuthService {
	return &AuthService{users: users}
}

// HashPassword produces a salted one-way digest of the plaintext.
func HashPassword(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether the plaintext matches the stored digest.
func VerifyPassword(digest, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// Register validates the form, hashes the password, and persists a new
// user. Validation failures come back per-field; the store's unique
// constraints backstop the uniqueness lookups under concurrency.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	failures, err := validation.ValidateRegistration(ctx,
		validation.RegistrationInput{
			Username:        in.Username,
			Email:           in.Email,
			Password:        in.Password,
			ConfirmPassword: in.ConfirmPassword,
		},
		s.usernameTaken,
		s.emailTaken,
	)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(failures) > 0 {
		observability.RecordAuthAttempt("register", false)
		return nil, models.NewFieldValidationError(failures)
	}

	hashed, err := HashPassword(in.Password)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		Avatar:   models.DefaultAvatar,
	}

	if err := s.users.Create(ctx, user); err != nil {
		observability.RecordAuthAttempt("register", false)
		return nil, err
	}

	observability.RecordAuthAttempt("register", true)
	return user, nil
}

// Authenticate looks up the user by email and verifies the password.
// Every failure path yields the same generic error so the caller cannot
// tell a missing account from a wrong password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !VerifyPassword(user.Password, password) {
		observability.RecordAuthAttempt("login", false)
		return nil, models.NewAuthenticationError()
	}

	observability.RecordAuthAttempt("login", true)
	return user, nil
}

func (s *AuthService) usernameTaken(ctx context.Context, username string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *AuthService) emailTaken(ctx context.Context, email string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}
