package repository

import (
	"context"
	"errors"

	"bazaar/internal/models"

	"gorm.io/gorm"
)

// FeedPageSize is the fixed number of listings per feed page.
const FeedPageSize = 5

// ListingPage is one page of the time-ordered feed plus pagination metadata.
type ListingPage struct {
	Items      []*models.Listing `json:"items"`
	Page       int               `json:"page"`
	PerPage    int               `json:"per_page"`
	Total      int64             `json:"total"`
	TotalPages int               `json:"total_pages"`
	HasNext    bool              `json:"has_next"`
	HasPrev    bool              `json:"has_prev"`
}

// ListingRepository defines persistence operations for marketplace listings.
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint) (*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id uint) error
	ListPage(ctx context.Context, page int) (*ListingPage, error)
	ListByUserPage(ctx context.Context, userID uint, page int) (*ListingPage, error)
}

type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	defer trackQuery("create", "listings")()

	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id uint) (*models.Listing, error) {
	defer trackQuery("get", "listings")()

	var listing models.Listing
	if err := r.db.WithContext(ctx).Preload("User").First(&listing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &listing, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	defer trackQuery("update", "listings")()

	if err := r.db.WithContext(ctx).Save(listing).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the listing permanently.
func (r *listingRepository) Delete(ctx context.Context, id uint) error {
	defer trackQuery("delete", "listings")()

	if err := r.db.WithContext(ctx).Delete(&models.Listing{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *listingRepository) ListPage(ctx context.Context, page int) (*ListingPage, error) {
	return r.paginate(ctx, r.db.WithContext(ctx).Model(&models.Listing{}), page)
}

func (r *listingRepository) ListByUserPage(ctx context.Context, userID uint, page int) (*ListingPage, error) {
	query := r.db.WithContext(ctx).Model(&models.Listing{}).Where("user_id = ?", userID)
	return r.paginate(ctx, query, page)
}

// paginate slices the query into fixed 5-item pages ordered by creation
// time descending, newest first.
func (r *listingRepository) paginate(_ context.Context, query *gorm.DB, page int) (*ListingPage, error) {
	defer trackQuery("list", "listings")()

	if page < 1 {
		page = 1
	}

	// A reusable session so Count does not leak state into the page query.
	base := query.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	totalPages := int((total + FeedPageSize - 1) / FeedPageSize)

	var items []*models.Listing
	if err := base.
		Preload("User").
		Order("created_at DESC").
		Limit(FeedPageSize).
		Offset((page - 1) * FeedPageSize).
		Find(&items).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	return &ListingPage{
		Items:      items,
		Page:       page,
		PerPage:    FeedPageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}, nil
}
