package seed

import (
	"fmt"
	"strings"
	"time"

	"bazaar/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var listingCategories = []string{
	"bicycle", "bookshelf", "sofa", "guitar", "lawnmower", "desk",
	"camera", "monitor", "kayak", "toolbox", "dresser", "record player",
}

// BuildUser constructs, but does not persist, a demo user. Usernames get a
// numeric suffix to keep them under the 20-character cap while staying
// unlikely to collide.
func (s *Seeder) BuildUser() *models.User {
	name := strings.ToLower(gofakeit.FirstName())
	if len(name) > 15 {
		name = name[:15]
	}
	return &models.User{
		Username: fmt.Sprintf("%s%d", name, gofakeit.Number(10, 9999)),
		Email:    gofakeit.Email(),
		Avatar:   models.DefaultAvatar,
	}
}

// BuildListing constructs, but does not persist, a demo listing owned by
// the given user. The image filename follows the stored-name format even
// though no file is written; seeded listings render with a broken image
// rather than breaking the page.
func (s *Seeder) BuildListing(owner *models.User) *models.Listing {
	category := listingCategories[s.rand.Intn(len(listingCategories))]

	daysBack := s.rand.Intn(90)
	hoursBack := s.rand.Intn(24)
	createdAt := time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	var nameBytes [8]byte
	s.rand.Read(nameBytes[:])

	return &models.Listing{
		Title:     fmt.Sprintf("%s %s", gofakeit.AdjectiveDescriptive(), category),
		Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
		Price:     fmt.Sprintf("$%d", gofakeit.Number(5, 500)),
		Contact:   gofakeit.Phone(),
		Image:     fmt.Sprintf("%x.jpg", nameBytes),
		UserID:    owner.ID,
		CreatedAt: createdAt,
	}
}
