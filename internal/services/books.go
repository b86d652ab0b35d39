package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/cache"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/models"
	"BOOKWORM_BACK-END/internal/repository"
	"BOOKWORM_BACK-END/internal/storage"
	"BOOKWORM_BACK-END/internal/utils"
)

// Pagination defaults for the feed.
const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 50
	// MaxPage keeps (page-1)*limit inside int32 for every allowed limit.
	MaxPage = math.MaxInt32 / MaxLimit

	minRating = 1
	maxRating = 5

	pageLoadTimeout = 10 * time.Second
)

// PageCache stores rendered feed pages. Implemented by cache.BookPageCache.
//
// Pages live in generations. Readers fetch the generation before loading a
// page and store it under that generation; InvalidateAll starts a new one.
type PageCache interface {
	Generation(ctx context.Context) (int64, error)
	GetPage(ctx context.Context, gen int64, page, limit int) (*models.BookPage, error)
	SetPage(ctx context.Context, gen int64, page, limit int, p models.BookPage) error
	InvalidateAll(ctx context.Context) error
}

// CreateBookInput carries the client fields of a new book.
type CreateBookInput struct {
	Title   string
	Caption string
	Rating  int
	Image   string
}

type BookService struct {
	books  repository.BookRepository
	images storage.ImageStore
	cache  PageCache
	sf     singleflight.Group
	clock  utils.Clock
	log    logging.Logger
}

// NewBookService wires the catalog. pageCache may be nil.
func NewBookService(books repository.BookRepository, images storage.ImageStore, pageCache PageCache, clock utils.Clock, log logging.Logger) *BookService {
	return &BookService{
		books:  books,
		images: images,
		cache:  pageCache,
		clock:  clock,
		log:    log,
	}
}

// Create uploads the image and stores a new book owned by owner.
func (s *BookService) Create(ctx context.Context, owner uuid.UUID, in CreateBookInput) (models.Book, error) {
	title := strings.TrimSpace(in.Title)
	caption := strings.TrimSpace(in.Caption)
	image := strings.TrimSpace(in.Image)

	if title == "" || caption == "" || in.Rating == 0 || image == "" {
		return models.Book{}, apperr.Validation("please provide all fields")
	}
	if in.Rating < minRating || in.Rating > maxRating {
		return models.Book{}, apperr.Validation(fmt.Sprintf("rating must be between %d and %d", minRating, maxRating))
	}

	imageURL, err := s.images.Upload(ctx, image)
	if err != nil {
		if apperr.IsValidation(err) {
			return models.Book{}, err
		}
		return models.Book{}, fmt.Errorf("upload image: %w", err)
	}

	now := s.clock.NowUtc()
	book := models.Book{
		ID:        uuid.New(),
		Title:     title,
		Caption:   caption,
		Rating:    in.Rating,
		Image:     imageURL,
		UserID:    owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.books.Create(ctx, &book); err != nil {
		s.bestEffort(ctx, "delete orphaned image", func(ctx context.Context) error {
			return s.images.Delete(ctx, imageURL)
		})
		return models.Book{}, fmt.Errorf("create book: %w", err)
	}

	s.invalidate(ctx)
	s.log.Info(ctx, "book created", "book_id", book.ID, "user_id", owner)
	return book, nil
}

// List returns one newest-first page of the feed with owner projections.
//
// Concurrent misses on the same page share one load. The shared load runs
// detached from any single caller, so a caller that goes away only stops
// waiting for itself.
func (s *BookService) List(ctx context.Context, page, limit int) (models.BookPage, error) {
	page, limit = NormalizePage(page, limit)

	if s.cache == nil {
		return s.loadPage(ctx, page, limit)
	}

	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.log.Warn(ctx, "book page cache generation read failed", "error", err)
		return s.loadPage(ctx, page, limit)
	}

	ch := s.sf.DoChan(cache.PageKey(gen, page, limit), func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pageLoadTimeout)
		defer cancel()
		return s.loadCachedPage(ctx, gen, page, limit)
	})

	select {
	case <-ctx.Done():
		return models.BookPage{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return models.BookPage{}, res.Err
		}
		return res.Val.(models.BookPage), nil
	}
}

func (s *BookService) loadCachedPage(ctx context.Context, gen int64, page, limit int) (models.BookPage, error) {
	cached, err := s.cache.GetPage(ctx, gen, page, limit)
	if err != nil {
		s.log.Warn(ctx, "book page cache read failed", "page", page, "limit", limit, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	p, err := s.loadPage(ctx, page, limit)
	if err != nil {
		return models.BookPage{}, err
	}
	if err := s.cache.SetPage(ctx, gen, page, limit, p); err != nil {
		s.log.Warn(ctx, "book page cache write failed", "page", page, "limit", limit, "error", err)
	}
	return p, nil
}

func (s *BookService) loadPage(ctx context.Context, page, limit int) (models.BookPage, error) {
	items, total, err := s.books.ListPage(ctx, (page-1)*limit, limit)
	if err != nil {
		return models.BookPage{}, fmt.Errorf("list books: %w", err)
	}
	return models.BookPage{
		Books:       items,
		CurrentPage: page,
		TotalBooks:  total,
		TotalPages:  (total + limit - 1) / limit,
	}, nil
}

// ListByOwner returns every book of owner, newest first.
func (s *BookService) ListByOwner(ctx context.Context, owner uuid.UUID) ([]models.Book, error) {
	books, err := s.books.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list user books: %w", err)
	}
	return books, nil
}

// Delete removes a book on behalf of requester. The image is removed on a
// best-effort basis; its failure never blocks the delete.
func (s *BookService) Delete(ctx context.Context, id string, requester uuid.UUID) error {
	bookID, err := uuid.Parse(id)
	if err != nil {
		return apperr.ErrNotFound
	}

	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("find book: %w", err)
	}
	if book.UserID != requester {
		return apperr.ErrForbidden
	}

	if book.Image != "" {
		s.bestEffort(ctx, "delete book image", func(ctx context.Context) error {
			return s.images.Delete(ctx, book.Image)
		})
	}

	if err := s.books.Delete(ctx, bookID, requester); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.ErrNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	s.invalidate(ctx)
	s.log.Info(ctx, "book deleted", "book_id", bookID, "user_id", requester)
	return nil
}

// NormalizePage applies the feed defaults to out-of-range values. Pages past
// MaxPage are clamped to it; they are past the end of any real feed.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func (s *BookService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	s.bestEffort(ctx, "invalidate book page cache", s.cache.InvalidateAll)
}

// bestEffort runs fn and logs its failure instead of returning it.
func (s *BookService) bestEffort(ctx context.Context, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.log.Warn(ctx, "best-effort step failed", "op", op, "error", err)
	}
}
