// Package repository holds the persistence layer: the User and Book
// repositories, a Postgres implementation over pgxpool and an in-memory one.
//
// Uniqueness of usernames and emails is enforced by the store itself
// (UNIQUE constraints, or a single critical section in memory); callers get
// apperr.ErrEmailTaken / apperr.ErrUsernameTaken from Create.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"BOOKWORM_BACK-END/internal/models"
)

// ErrNegativeOffset is returned by ListPage for an offset below zero.
var ErrNegativeOffset = errors.New("negative page offset")

// UserRepository persists users.
type UserRepository interface {
	// Create inserts u. u.ID must be set by the caller.
	Create(ctx context.Context, u *models.User) error
	// GetByID returns the user without its password hash.
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
	// GetByEmail returns the user including its password hash.
	GetByEmail(ctx context.Context, email string) (models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// BookRepository persists books. Feed ordering is created_at DESC, id DESC.
type BookRepository interface {
	Create(ctx context.Context, b *models.Book) error
	GetByID(ctx context.Context, id uuid.UUID) (models.Book, error)
	// ListPage returns one window of the feed and the total number of books,
	// both read from the same snapshot. offset must not be negative.
	ListPage(ctx context.Context, offset, limit int) ([]models.BookWithAuthor, int, error)
	ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Book, error)
	// Delete removes the book only if it belongs to owner; apperr.ErrNotFound otherwise.
	Delete(ctx context.Context, id, owner uuid.UUID) error
}

// Store bundles the repositories of one backend.
type Store interface {
	Users() UserRepository
	Books() BookRepository
	Ping(ctx context.Context) error
	Close()
}
