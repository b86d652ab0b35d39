package repository

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/models"
)

func newUser(username, email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryUsers_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	u := newUser(gofakeit.Username(), gofakeit.Email())

	require.NoError(t, store.Users().Create(ctx, u))

	got, err := store.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Username, got.Username)
	assert.Empty(t, got.PasswordHash)

	withHash, err := store.Users().GetByEmail(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.PasswordHash, withHash.PasswordHash)

	_, err = store.Users().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = store.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemoryUsers_Uniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Users().Create(ctx, newUser("alice", "alice@example.com")))

	err := store.Users().Create(ctx, newUser("alice", "alice@example.com"))
	assert.ErrorIs(t, err, apperr.ErrEmailTaken)

	err = store.Users().Create(ctx, newUser("alice", "other@example.com"))
	assert.ErrorIs(t, err, apperr.ErrUsernameTaken)

	ok, err := store.Users().ExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = store.Users().ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryUsers_ConcurrentCreateSameEmail(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- store.Users().Create(ctx, newUser(fmt.Sprintf("user%d", i), "same@example.com"))
		}(i)
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrEmailTaken)
	}
	assert.Equal(t, 1, created)
}

func TestMemoryBooks_FeedOrderAndPaging(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := newUser("reader", "reader@example.com")
	owner.ProfileImage = "https://img.example/reader.svg"
	require.NoError(t, store.Users().Create(ctx, owner))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		require.NoError(t, store.Books().Create(ctx, &models.Book{
			ID:        uuid.New(),
			Title:     fmt.Sprintf("book %d", i),
			Caption:   gofakeit.Sentence(6),
			Rating:    1 + i%5,
			Image:     "https://img.example/b.png",
			UserID:    owner.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	first, total, err := store.Books().ListPage(ctx, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, first, 5)
	assert.Equal(t, "book 6", first[0].Title)
	assert.Equal(t, "reader", first[0].Author.Username)
	assert.Equal(t, owner.ProfileImage, first[0].Author.ProfileImage)

	second, _, err := store.Books().ListPage(ctx, 5, 5)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, "book 0", second[1].Title)

	beyond, total, err := store.Books().ListPage(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, beyond)
	assert.Equal(t, 7, total)

	huge, total, err := store.Books().ListPage(ctx, 3, math.MaxInt)
	require.NoError(t, err)
	assert.Len(t, huge, 4)
	assert.Equal(t, 7, total)
}

func TestMemoryBooks_NegativeOffsetRejected(t *testing.T) {
	store := NewMemoryStore()

	assert.NotPanics(t, func() {
		items, _, err := store.Books().ListPage(context.Background(), math.MinInt+2, 5)
		assert.ErrorIs(t, err, ErrNegativeOffset)
		assert.Nil(t, items)
	})
}

func TestMemoryBooks_TiesBrokenByID(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := newUser("tie", "tie@example.com")
	require.NoError(t, store.Users().Create(ctx, owner))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")
	for _, id := range []uuid.UUID{low, high} {
		require.NoError(t, store.Books().Create(ctx, &models.Book{ID: id, Title: id.String(), Rating: 3, UserID: owner.ID, CreatedAt: at}))
	}

	page, _, err := store.Books().ListPage(ctx, 0, 5)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, high, page[0].ID)
	assert.Equal(t, low, page[1].ID)
}

func TestMemoryBooks_ListByOwnerAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := newUser("alice", "alice@example.com")
	bob := newUser("bob", "bob@example.com")
	require.NoError(t, store.Users().Create(ctx, alice))
	require.NoError(t, store.Users().Create(ctx, bob))

	mine := &models.Book{ID: uuid.New(), Title: "mine", Rating: 5, UserID: alice.ID, CreatedAt: time.Now()}
	theirs := &models.Book{ID: uuid.New(), Title: "theirs", Rating: 4, UserID: bob.ID, CreatedAt: time.Now()}
	require.NoError(t, store.Books().Create(ctx, mine))
	require.NoError(t, store.Books().Create(ctx, theirs))

	list, err := store.Books().ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].Title)

	empty, err := store.Books().ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.ErrorIs(t, store.Books().Delete(ctx, theirs.ID, alice.ID), apperr.ErrNotFound)
	require.NoError(t, store.Books().Delete(ctx, mine.ID, alice.ID))
	_, err = store.Books().GetByID(ctx, mine.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, store.Books().Delete(ctx, mine.ID, alice.ID), apperr.ErrNotFound)
}

func TestMemoryBooks_CreateRequiresOwner(t *testing.T) {
	store := NewMemoryStore()
	err := store.Books().Create(context.Background(), &models.Book{ID: uuid.New(), UserID: uuid.New()})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
