package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/middleware"
	"BOOKWORM_BACK-END/internal/models"
	"BOOKWORM_BACK-END/internal/repository"
	"BOOKWORM_BACK-END/internal/utils"
)

type fakeImages struct {
	mu        sync.Mutex
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func (f *fakeImages) Upload(_ context.Context, source string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, source)
	return "https://cdn.bookworm.test/books/cover.png", nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, url)
	return f.deleteErr
}

type pageKey struct {
	gen         int64
	page, limit int
}

type fakePageCache struct {
	mu          sync.Mutex
	gen         int64
	pages       map[pageKey]models.BookPage
	genErr      error
	getErr      error
	setErr      error
	invalidated int
}

func newFakePageCache() *fakePageCache {
	return &fakePageCache{pages: make(map[pageKey]models.BookPage)}
}

func (c *fakePageCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen, c.genErr
}

func (c *fakePageCache) GetPage(_ context.Context, gen int64, page, limit int) (*models.BookPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.pages[pageKey{gen, page, limit}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *fakePageCache) SetPage(_ context.Context, gen int64, page, limit int, p models.BookPage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.pages[pageKey{gen, page, limit}] = p
	return nil
}

func (c *fakePageCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	c.gen++
	return nil
}

// countingBooks counts ListPage calls to tell cache hits from misses.
type countingBooks struct {
	repository.BookRepository
	mu        sync.Mutex
	listCalls int
	createErr error
	// onList runs after every ListPage read; a non-nil error aborts it.
	onList func(ctx context.Context) error
}

func (b *countingBooks) ListPage(ctx context.Context, offset, limit int) ([]models.BookWithAuthor, int, error) {
	b.mu.Lock()
	b.listCalls++
	hook := b.onList
	b.mu.Unlock()

	items, total, err := b.BookRepository.ListPage(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if hook != nil {
		if err := hook(ctx); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (b *countingBooks) Create(ctx context.Context, book *models.Book) error {
	if b.createErr != nil {
		return b.createErr
	}
	return b.BookRepository.Create(ctx, book)
}

var errStoreDown = errors.New("store down")

type testEnv struct {
	store  *repository.MemoryStore
	clock  *utils.StubClock
	tokens *middleware.TokenService
	users  *UserService
	books  *BookService
	repo   *countingBooks
	images *fakeImages
}

func newTestEnv(t *testing.T, pageCache PageCache) *testEnv {
	t.Helper()
	clock := utils.NewStubClock()
	clock.SetNow(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	store := repository.NewMemoryStore()
	tokens := middleware.NewTokenService(config.JWTConfig{Secret: "test-secret"}, clock)
	repo := &countingBooks{BookRepository: store.Books()}
	images := &fakeImages{}

	return &testEnv{
		store:  store,
		clock:  clock,
		tokens: tokens,
		users:  NewUserService(store.Users(), tokens, clock, logging.Nop()),
		books:  NewBookService(repo, images, pageCache, clock, logging.Nop()),
		repo:   repo,
		images: images,
	}
}
