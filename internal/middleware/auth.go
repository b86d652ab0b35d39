package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/models"
	"BOOKWORM_BACK-END/internal/utils"
)

var (
	errMissingCredential = errors.New("missing credential")
	errUnknownUser       = errors.New("token user not found")
)

// UserLookup resolves a verified user id into its public record.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// AuthedHandlerFunc is an http.HandlerFunc that also receives the caller.
type AuthedHandlerFunc func(w http.ResponseWriter, r *http.Request, user models.User)

// Authenticator turns a bearer token into a user.
type Authenticator struct {
	tokens *TokenService
	users  UserLookup
	log    logging.Logger
}

func NewAuthenticator(tokens *TokenService, users UserLookup, log logging.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, users: users, log: log}
}

// Authenticate resolves the Authorization header of r. Every failure wraps
// apperr.ErrUnauthorized together with the step that failed.
func (a *Authenticator) Authenticate(r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if tokenString == "" {
		return models.User{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errMissingCredential)
	}

	userID, err := a.tokens.Verify(tokenString)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, err)
	}

	user, err := a.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: %w", apperr.ErrUnauthorized, errUnknownUser)
		}
		return models.User{}, fmt.Errorf("%w: lookup user: %w", apperr.ErrUnauthorized, err)
	}
	return user, nil
}

// RequireAuth validates the bearer token before calling next. Clients see the
// same 401 body whatever step failed.
func (a *Authenticator) RequireAuth(next AuthedHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authenticate(r)
		if err != nil {
			a.log.Warn(r.Context(), "authentication failed",
				"method", r.Method, "path", r.URL.Path, "error", err)
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Token is not valid")
			return
		}
		next(w, r, user)
	}
}
