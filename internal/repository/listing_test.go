package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bazaar/internal/models"
	"bazaar/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOwner(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		Avatar:   models.DefaultAvatar,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// seedListings creates n listings for owner with strictly increasing
// created_at, so listing i is older than listing i+1.
func seedListings(t *testing.T, db *gorm.DB, owner *models.User, n int) []*models.Listing {
	t.Helper()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	listings := make([]*models.Listing, 0, n)
	for i := 0; i < n; i++ {
		listing := &models.Listing{
			Title:     fmt.Sprintf("Listing %d", i),
			Content:   "For sale",
			Price:     "$10",
			Image:     fmt.Sprintf("%016x.jpg", i),
			UserID:    owner.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.Create(listing).Error)
		listings = append(listings, listing)
	}
	return listings
}

func TestListingRepositoryCRUD(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "alice")

	listing := &models.Listing{
		Title:   "Mountain bike",
		Content: "Hardly ridden",
		Price:   "$150",
		Contact: "555-0100",
		Image:   "00000000000000aa.jpg",
		UserID:  owner.ID,
	}
	require.NoError(t, repo.Create(ctx, listing))
	require.NotZero(t, listing.ID)

	loaded, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mountain bike", loaded.Title)
	assert.Equal(t, "alice", loaded.User.Username, "owner is preloaded")

	loaded.Price = "$120"
	require.NoError(t, repo.Update(ctx, loaded))
	reloaded, err := repo.GetByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, "$120", reloaded.Price)

	require.NoError(t, repo.Delete(ctx, listing.ID))
	_, err = repo.GetByID(ctx, listing.ID)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)

	// the row is gone, not soft-deleted
	var count int64
	require.NoError(t, db.Unscoped().Model(&models.Listing{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListPageOrderingAndSize(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "alice")
	seedListings(t, db, owner, 12)

	page, err := repo.ListPage(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, int64(12), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, FeedPageSize, page.PerPage)
	require.Len(t, page.Items, 5)
	assert.True(t, page.HasNext)
	assert.False(t, page.HasPrev)

	// newest first
	assert.Equal(t, "Listing 11", page.Items[0].Title)
	assert.Equal(t, "Listing 7", page.Items[4].Title)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].CreatedAt.After(page.Items[i-1].CreatedAt))
	}
}

func TestListPageBoundaries(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()
	owner := seedOwner(t, db, "alice")
	seedListings(t, db, owner, 12)

	t.Run("last page is short", func(t *testing.T) {
		page, err := repo.ListPage(ctx, 3)
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Listing 1", page.Items[0].Title)
		assert.Equal(t, "Listing 0", page.Items[1].Title)
		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("page beyond the end is empty", func(t *testing.T) {
		page, err := repo.ListPage(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, page.Items)
		assert.Equal(t, int64(12), page.Total)
		assert.False(t, page.HasNext)
	})

	t.Run("page zero clamps to the first page", func(t *testing.T) {
		page, err := repo.ListPage(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		require.Len(t, page.Items, 5)
	})
}

func TestListPageEmpty(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewListingRepository(db)

	page, err := repo.ListPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Zero(t, page.Total)
	assert.Zero(t, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrev)
}

func TestListByUserPage(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	alice := seedOwner(t, db, "alice")
	bob := seedOwner(t, db, "bob")
	seedListings(t, db, alice, 7)
	seedListings(t, db, bob, 3)

	page, err := repo.ListByUserPage(ctx, alice.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.Total)
	require.Len(t, page.Items, 5)
	for _, item := range page.Items {
		assert.Equal(t, alice.ID, item.UserID)
	}

	second, err := repo.ListByUserPage(ctx, alice.ID, 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 2)
	assert.True(t, second.HasPrev)
	assert.False(t, second.HasNext)
}
