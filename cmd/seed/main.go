// Command main runs the database seeder for Bazaar.
package main

import (
	"flag"
	"log"

	"bazaar/internal/config"
	"bazaar/internal/database"
	"bazaar/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of users to create")
	numListings := flag.Int("listings", 100, "Number of listings to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	log.Println("Database Seeder")
	log.Printf("Target: %d users, %d listings, clean=%v\n", *numUsers, *numListings, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db)
	if _, err := s.Run(seed.Options{
		NumUsers:    *numUsers,
		NumListings: *numListings,
		ShouldClean: *shouldClean,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Println("All done! Your database is now populated with demo data.")
	log.Println("All seeded users have the password: password123")
}
