// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Listing represents a marketplace post. Every listing is owned by exactly
// one user. Deletes are permanent; there is no soft-delete column because
// the delete flow removes the row and its stored image for good.
type Listing struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Price     string    `json:"price"`
	Contact   string    `json:"contact"`
	Image     string    `gorm:"not null" json:"image"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
