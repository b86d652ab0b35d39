package dto

import (
	"time"

	"BOOKWORM_BACK-END/internal/models"
)

// CreateBookRequest is the payload of POST /api/books. Image is a data URI,
// a bare base64 string or an http(s) URL.
type CreateBookRequest struct {
	Title   string `json:"title" example:"Dune"`
	Caption string `json:"caption" example:"A desert planet and a lot of spice."`
	Rating  int    `json:"rating" example:"5"`
	Image   string `json:"image" example:"data:image/png;base64,iVBORw0KGgo..."`
}

// BookResponse is a book as returned to its owner
type BookResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Caption   string `json:"caption"`
	Rating    int    `json:"rating"`
	Image     string `json:"image"`
	User      string `json:"user"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// AuthorResponse is the public projection of a book owner
type AuthorResponse struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
}

// FeedBookResponse is a feed entry with its owner resolved
type FeedBookResponse struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Caption   string         `json:"caption"`
	Rating    int            `json:"rating"`
	Image     string         `json:"image"`
	User      AuthorResponse `json:"user"`
	CreatedAt string         `json:"createdAt"`
	UpdatedAt string         `json:"updatedAt"`
}

// BookListResponse is one page of the feed
type BookListResponse struct {
	Books       []FeedBookResponse `json:"books"`
	CurrentPage int                `json:"currentPage"`
	TotalBooks  int                `json:"totalBooks"`
	TotalPages  int                `json:"totalPages"`
}

func NewBookResponse(b models.Book) BookResponse {
	return BookResponse{
		ID:        b.ID.String(),
		Title:     b.Title,
		Caption:   b.Caption,
		Rating:    b.Rating,
		Image:     b.Image,
		User:      b.UserID.String(),
		CreatedAt: b.CreatedAt.Format(time.RFC3339),
		UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
	}
}

func NewBookResponses(books []models.Book) []BookResponse {
	out := make([]BookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, NewBookResponse(b))
	}
	return out
}

func NewBookListResponse(p models.BookPage) BookListResponse {
	books := make([]FeedBookResponse, 0, len(p.Books))
	for _, b := range p.Books {
		books = append(books, FeedBookResponse{
			ID:      b.ID.String(),
			Title:   b.Title,
			Caption: b.Caption,
			Rating:  b.Rating,
			Image:   b.Image,
			User: AuthorResponse{
				ID:           b.UserID.String(),
				Username:     b.Author.Username,
				ProfileImage: b.Author.ProfileImage,
			},
			CreatedAt: b.CreatedAt.Format(time.RFC3339),
			UpdatedAt: b.UpdatedAt.Format(time.RFC3339),
		})
	}
	return BookListResponse{
		Books:       books,
		CurrentPage: p.CurrentPage,
		TotalBooks:  p.TotalBooks,
		TotalPages:  p.TotalPages,
	}
}
