package service

import (
	"context"

	"bazaar/internal/middleware"
	"bazaar/internal/models"
	"bazaar/internal/observability"
	"bazaar/internal/repository"
	"bazaar/internal/validation"
)

// ListingService orchestrates listing CRUD with ownership checks and image
// intake. Only the owning user may update or delete a listing.
type ListingService struct {
	listings repository.ListingRepository
	users    repository.UserRepository
	images   *ImageService
	imageDir string
}

// CreateListingInput carries the listing form fields. Image is required.
type CreateListingInput struct {
	UserID  uint
	Title   string
	Content string
	Price   string
	Contact string
	Image   *FileUpload
}

// UpdateListingInput carries the update form fields. Image is optional;
// the stored photo is only reprocessed when a new file is supplied.
type UpdateListingInput struct {
	Title   string
	Content string
	Price   string
	Contact string
	Image   *FileUpload
}

// NewListingService returns a new ListingService.
func NewListingService(listings repository.ListingRepository, users repository.UserRepository, images *ImageService, imageDir string) *ListingService {
	return &ListingService{listings: listings, users: users, images: images, imageDir: imageDir}
}

// Create validates the form, stores the photo, and persists the listing
// owned by the acting user with the submission timestamp.
func (s *ListingService) Create(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	imageFilename := ""
	if in.Image != nil {
		imageFilename = in.Image.Filename
	}
	if failures := validation.ValidateListingForm(in.Title, in.Content, imageFilename, true); len(failures) > 0 {
		return nil, models.NewFieldValidationError(failures)
	}

	stored, err := s.images.Ingest(in.Image.Content, in.Image.Filename, s.imageDir)
	if err != nil {
		return nil, err
	}

	listing := &models.Listing{
		Title:   in.Title,
		Content: in.Content,
		Price:   in.Price,
		Contact: in.Contact,
		Image:   stored,
		UserID:  in.UserID,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		_ = s.images.Remove(s.imageDir, stored)
		return nil, err
	}

	observability.RecordListingMutation("create")
	return listing, nil
}

// Get returns one listing, publicly accessible.
func (s *ListingService) Get(ctx context.Context, id uint) (*models.Listing, error) {
	return s.listings.GetByID(ctx, id)
}

// Update overwrites the mutable fields of a listing owned by userID.
// A not-found error takes precedence over the ownership check.
func (s *ListingService) Update(ctx context.Context, userID, id uint, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.UserID != userID {
		return nil, models.NewForbiddenError("You can only update your own listings")
	}

	imageFilename := ""
	if in.Image != nil {
		imageFilename = in.Image.Filename
	}
	if failures := validation.ValidateListingForm(in.Title, in.Content, imageFilename, false); len(failures) > 0 {
		return nil, models.NewFieldValidationError(failures)
	}

	previousImage := ""
	if in.Image != nil {
		stored, ierr := s.images.Ingest(in.Image.Content, in.Image.Filename, s.imageDir)
		if ierr != nil {
			return nil, ierr
		}
		previousImage = listing.Image
		listing.Image = stored
	}

	listing.Title = in.Title
	listing.Content = in.Content
	listing.Price = in.Price
	listing.Contact = in.Contact

	if err := s.listings.Update(ctx, listing); err != nil {
		if previousImage != "" {
			_ = s.images.Remove(s.imageDir, listing.Image)
		}
		return nil, err
	}

	if previousImage != "" {
		if rerr := s.images.Remove(s.imageDir, previousImage); rerr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove replaced listing image",
				"image", previousImage, "error", rerr.Error())
		}
	}

	observability.RecordListingMutation("update")
	return listing, nil
}

// Delete permanently removes a listing owned by userID, along with its
// stored photo (best-effort).
func (s *ListingService) Delete(ctx context.Context, userID, id uint) error {
	listing, err := s.listings.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if listing.UserID != userID {
		return models.NewForbiddenError("You can only delete your own listings")
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}

	if rerr := s.images.Remove(s.imageDir, listing.Image); rerr != nil {
		middleware.Logger.WarnContext(ctx, "failed to remove deleted listing image",
			"image", listing.Image, "error", rerr.Error())
	}

	observability.RecordListingMutation("delete")
	return nil
}

// Feed returns one page of all listings, newest first.
func (s *ListingService) Feed(ctx context.Context, page int) (*repository.ListingPage, error) {
	return s.listings.ListPage(ctx, page)
}

// ByUser returns one page of the named user's listings, newest first.
func (s *ListingService) ByUser(ctx context.Context, username string, page int) (*models.User, *repository.ListingPage, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, models.NewNotFoundError("User", username)
	}

	listings, err := s.listings.ListByUserPage(ctx, user.ID, page)
	if err != nil {
		return nil, nil, err
	}
	return user, listings, nil
}
