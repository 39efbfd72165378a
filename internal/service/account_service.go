package service

import (
	"context"

	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/validation"
)

// AccountService handles profile reads and updates for the authenticated user.
type AccountService struct {
	users      repository.UserRepository
	images     *ImageService
	profileDir string
}

// AccountUpdateInput carries the account form fields. Picture is optional;
// when present the previous avatar is replaced and, unless it is the
// default placeholder, removed from disk.
type AccountUpdateInput struct {
	UserID   uint
	Username string
	Email    string
	Picture  *FileUpload
}

// NewAccountService returns a new AccountService.
func NewAccountService(users repository.UserRepository, images *ImageService, profileDir string) *AccountService {
	return &AccountService{users: users, images: images, profileDir: profileDir}
}

// Get returns the profile for the given user ID.
func (s *AccountService) Get(ctx context.Context, userID uint) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Update applies username/email changes and an optional avatar replacement.
// Uniqueness checks skip values the user already owns.
func (s *AccountService) Update(ctx context.Context, in AccountUpdateInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	failures, err := validation.ValidateAccountUpdate(ctx,
		validation.AccountUpdateInput{Username: in.Username, Email: in.Email},
		user,
		s.usernameTaken,
		s.emailTaken,
	)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if in.Picture != nil {
		if ferr := validation.ValidateImageFilename(in.Picture.Filename); ferr != nil {
			failures = append(failures, models.FieldError{Field: "picture", Message: ferr.Error()})
		}
	}
	if len(failures) > 0 {
		return nil, models.NewFieldValidationError(failures)
	}

	previousAvatar := ""
	if in.Picture != nil {
		stored, ierr := s.images.Ingest(in.Picture.Content, in.Picture.Filename, s.profileDir)
		if ierr != nil {
			return nil, ierr
		}
		previousAvatar = user.Avatar
		user.Avatar = stored
	}

	user.Username = in.Username
	user.Email = in.Email

	if err := s.users.Update(ctx, user); err != nil {
		// The new file is orphaned if the row update fails; reap it.
		if user.Avatar != previousAvatar && previousAvatar != "" {
			_ = s.images.Remove(s.profileDir, user.Avatar)
		}
		return nil, err
	}

	if previousAvatar != "" && previousAvatar != models.DefaultAvatar {
		if rerr := s.images.Remove(s.profileDir, previousAvatar); rerr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove replaced avatar",
				"avatar", previousAvatar, "error", rerr.Error())
		}
	}

	return user, nil
}

func (s *AccountService) usernameTaken(ctx context.Context, username string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

func (s *AccountService) emailTaken(ctx context.Context, email string) (bool, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}
