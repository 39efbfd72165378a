// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// DefaultAvatar is the placeholder profile picture assigned at registration.
// It is never removed by avatar cleanup.
const DefaultAvatar = "default.jpg"

// User represents a registered account in the Bazaar marketplace.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"unique;not null" json:"username"`
	Email     string    `gorm:"unique;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	Avatar    string    `gorm:"not null;default:default.jpg" json:"avatar"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Listings  []Listing `gorm:"foreignKey:UserID" json:"listings,omitempty"`
}
