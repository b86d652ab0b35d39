package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered reader
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Hidden from JSON responses
	ProfileImage string    `json:"profileImage" db:"profile_image"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Author is the public projection of a User shown next to a book in feeds
type Author struct {
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}
