package handlers

import (
	"net/http"
	"strconv"

	"BOOKWORM_BACK-END/internal/dto"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/models"
	"BOOKWORM_BACK-END/internal/services"
	"BOOKWORM_BACK-END/internal/utils"
)

// BookHandler serves the book catalog. Every method runs behind the auth gate
// and receives the caller explicitly.
type BookHandler struct {
	books *services.BookService
	log   logging.Logger
}

func NewBookHandler(books *services.BookService, log logging.Logger) *BookHandler {
	return &BookHandler{books: books, log: log}
}

// Create handles book creation
// @Summary Create a book
// @Description Post a book recommendation. The image is uploaded to the image host first.
// @Tags books
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateBookRequest true "Book payload"
// @Success 201 {object} dto.BookResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/books [post]
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request, user models.User) {
	var req dto.CreateBookRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	book, err := h.books.Create(r.Context(), user.ID, services.CreateBookInput{
		Title:   req.Title,
		Caption: req.Caption,
		Rating:  req.Rating,
		Image:   req.Image,
	})
	if err != nil {
		writeServiceError(w, r, h.log, "create book", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.NewBookResponse(book))
}

// List handles the paginated feed
// @Summary List books
// @Description Newest-first feed of all books with their owners
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param page query int false "page number (default 1)"
// @Param limit query int false "items per page (default 5, max 50)"
// @Success 200 {object} dto.BookListResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/books [get]
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request, _ models.User) {
	page := queryInt(r, "page", services.DefaultPage)
	limit := queryInt(r, "limit", services.DefaultLimit)

	p, err := h.books.List(r.Context(), page, limit)
	if err != nil {
		writeServiceError(w, r, h.log, "list books", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.NewBookListResponse(p))
}

// ListMine handles the caller's own books
// @Summary List my books
// @Description All books posted by the authenticated user, newest first
// @Tags books
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.BookResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/books/user [get]
func (h *BookHandler) ListMine(w http.ResponseWriter, r *http.Request, user models.User) {
	books, err := h.books.ListByOwner(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.log, "list user books", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.NewBookResponses(books))
}

// Delete handles book deletion
// @Summary Delete a book
// @Description Delete one of your own books. Its image is removed on a best-effort basis.
// @Tags books
// @Produce json
// @Security BearerAuth
// @Param id path string true "Book ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} dto.ErrorResponse "Missing token or not the owner"
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/books/{id} [delete]
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request, user models.User) {
	if err := h.books.Delete(r.Context(), r.PathValue("id"), user.ID); err != nil {
		writeServiceError(w, r, h.log, "delete book", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.MessageResponse{Message: "Book deleted successfully"})
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}
