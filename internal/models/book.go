package models

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a book recommendation posted by a user
type Book struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Caption   string    `json:"caption" db:"caption"`
	Rating    int       `json:"rating" db:"rating"`
	Image     string    `json:"image" db:"image"`
	UserID    uuid.UUID `json:"user" db:"user_id"` // owner, immutable
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// BookWithAuthor is a Book joined with its owner's public projection
type BookWithAuthor struct {
	Book
	Author Author `json:"author"`
}

// BookPage is one pagination window of the newest-first feed
type BookPage struct {
	Books       []BookWithAuthor `json:"books"`
	CurrentPage int              `json:"currentPage"`
	TotalBooks  int              `json:"totalBooks"`
	TotalPages  int              `json:"totalPages"`
}
