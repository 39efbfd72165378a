package repository

import (
	"context"
	"errors"
	"strings"

	"bazaar/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for user credentials and
// profiles. Users are never deleted, so no delete method is exposed.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer trackQuery("get", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns (nil, nil) when no user matches; callers use this for
// both login and uniqueness lookups. Matching is case-sensitive on the
// stored value.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	defer trackQuery("get", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByUsername returns (nil, nil) when no user matches.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer trackQuery("get", "users")()

	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer trackQuery("create", "users")()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return uniqueViolationToFieldError(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	defer trackQuery("update", "users")()

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return uniqueViolationToFieldError(err)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// uniqueViolationToFieldError maps a driver unique-violation error onto the
// offending form field. This is the backstop for the race two concurrent
// registrations can win past the validation-time lookup.
func uniqueViolationToFieldError(err error) *models.AppError {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "username"):
		return models.NewFieldValidationError([]models.FieldError{
			{Field: "username", Message: "Username is already taken"},
		})
	case strings.Contains(msg, "email"):
		return models.NewFieldValidationError([]models.FieldError{
			{Field: "email", Message: "Email is already taken"},
		})
	default:
		return models.NewValidationError("User already exists")
	}
}
