// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"bazaar/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers    int
	NumListings int
	ShouldClean bool
}

// Seeder populates the database with demo users and listings.
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClearAll removes all listings and users. Listings go first to satisfy
// the foreign key.
func (s *Seeder) ClearAll() error {
	log.Println("Cleaning database...")
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Listing{}).Error; err != nil {
		return fmt.Errorf("failed to delete listings: %w", err)
	}
	if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.User{}).Error; err != nil {
		return fmt.Errorf("failed to delete users: %w", err)
	}
	return nil
}

// Run seeds the database according to opts and returns the created users.
func (s *Seeder) Run(opts Options) ([]*models.User, error) {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	users, err := s.SeedUsers(opts.NumUsers)
	if err != nil {
		return nil, err
	}
	if _, err := s.SeedListings(users, opts.NumListings); err != nil {
		return nil, err
	}
	return users, nil
}

// SeedUsers creates n demo users. All of them share the password
// "password123" so they are usable from the login form.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	log.Printf("Creating %d users...", n)

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash seed password: %w", err)
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user := s.BuildUser()
		user.Password = string(hashed)
		users = append(users, user)
	}

	if err := s.db.Create(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	return users, nil
}

// SeedListings creates n listings spread across the given users with
// created_at timestamps scattered over the past 90 days, so the feed
// ordering looks lived-in.
func (s *Seeder) SeedListings(users []*models.User, n int) ([]*models.Listing, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("cannot seed listings without users")
	}
	log.Printf("Creating %d listings...", n)

	listings := make([]*models.Listing, 0, n)
	for i := 0; i < n; i++ {
		owner := users[s.rand.Intn(len(users))]
		listings = append(listings, s.BuildListing(owner))
	}

	if err := s.db.Create(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to create listings: %w", err)
	}
	return listings, nil
}
