package handlers

import (
	"errors"
	"net/http"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/utils"
)

// writeServiceError maps a service error onto the response. Internal errors
// are logged in full and reported generically.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, op string, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Bad request", verr.Message)
	case errors.Is(err, apperr.ErrUserNotFound), errors.Is(err, apperr.ErrInvalidCredentials):
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Invalid credentials", err.Error())
	case errors.Is(err, apperr.ErrNotFound):
		utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "book not found")
	case errors.Is(err, apperr.ErrForbidden):
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "not allowed to modify this book")
	default:
		log.Error(r.Context(), op+" failed", "method", r.Method, "path", r.URL.Path, "error", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Internal server error", "something went wrong")
	}
}
