package repository

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/models"
)

// MemoryStore keeps users and books in process memory. It backs
// STORE_DRIVER=memory and the service and handler tests.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
	books map[uuid.UUID]models.Book
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[uuid.UUID]models.User),
		books: make(map[uuid.UUID]models.Book),
	}
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

func (s *MemoryStore) Books() BookRepository { return memoryBooks{s} }

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() {}

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	// email is checked before username
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return apperr.ErrEmailTaken
		}
	}
	for _, existing := range r.s.users {
		if existing.Username == u.Username {
			return apperr.ErrUsernameTaken
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id uuid.UUID) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	u.PasswordHash = ""
	return u, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, apperr.ErrNotFound
}

func (r memoryUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

type memoryBooks struct{ s *MemoryStore }

func (r memoryBooks) Create(_ context.Context, b *models.Book) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[b.UserID]; !ok {
		return apperr.ErrNotFound
	}
	r.s.books[b.ID] = *b
	return nil
}

func (r memoryBooks) GetByID(_ context.Context, id uuid.UUID) (models.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.books[id]
	if !ok {
		return models.Book{}, apperr.ErrNotFound
	}
	return b, nil
}

func (r memoryBooks) ListPage(_ context.Context, offset, limit int) ([]models.BookWithAuthor, int, error) {
	if offset < 0 {
		return nil, 0, ErrNegativeOffset
	}
	limit = max(limit, 0)

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	all := r.sortedLocked(func(models.Book) bool { return true })
	if offset >= len(all) {
		return []models.BookWithAuthor{}, len(all), nil
	}
	end := len(all)
	if limit < end-offset {
		end = offset + limit
	}
	items := make([]models.BookWithAuthor, 0, end-offset)
	for _, b := range all[offset:end] {
		owner := r.s.users[b.UserID]
		items = append(items, models.BookWithAuthor{
			Book:   b,
			Author: models.Author{Username: owner.Username, ProfileImage: owner.ProfileImage},
		})
	}
	return items, len(all), nil
}

func (r memoryBooks) ListByOwner(_ context.Context, owner uuid.UUID) ([]models.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.sortedLocked(func(b models.Book) bool { return b.UserID == owner }), nil
}

func (r memoryBooks) Delete(_ context.Context, id, owner uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.books[id]
	if !ok || b.UserID != owner {
		return apperr.ErrNotFound
	}
	delete(r.s.books, id)
	return nil
}

// sortedLocked returns matching books newest first, ties broken by id
// descending. Caller holds the lock.
func (r memoryBooks) sortedLocked(keep func(models.Book) bool) []models.Book {
	out := []models.Book{}
	for _, b := range r.s.books {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) > 0
	})
	return out
}
