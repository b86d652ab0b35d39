// Package services holds the User Directory and the Post Catalog: the rules
// that sit between the HTTP handlers and the repositories.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"BOOKWORM_BACK-END/internal/apperr"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/models"
	"BOOKWORM_BACK-END/internal/repository"
	"BOOKWORM_BACK-END/internal/utils"
)

const (
	minPasswordLen = 6
	minUsernameLen = 3

	avatarBaseURL = "https://api.dicebear.com/7.x/avataaars/svg?seed="
)

// TokenIssuer signs identity tokens for a user id.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// AuthResult is what register and login hand back to the client.
type AuthResult struct {
	Token string
	User  models.User
}

type UserService struct {
	users  repository.UserRepository
	tokens TokenIssuer
	clock  utils.Clock
	log    logging.Logger
}

func NewUserService(users repository.UserRepository, tokens TokenIssuer, clock utils.Clock, log logging.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, clock: clock, log: log}
}

// Register creates an account and signs the new user in.
func (s *UserService) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return AuthResult{}, apperr.Validation("please provide all fields")
	}
	if len(password) < minPasswordLen {
		return AuthResult{}, apperr.Validation(fmt.Sprintf("password must be at least %d characters long", minPasswordLen))
	}
	if len([]rune(username)) < minUsernameLen {
		return AuthResult{}, apperr.Validation(fmt.Sprintf("username must be at least %d characters long", minUsernameLen))
	}

	taken, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check email: %w", err)
	}
	if taken {
		return AuthResult{}, apperr.Validationf(apperr.ErrEmailTaken, apperr.ErrEmailTaken.Error())
	}
	taken, err = s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return AuthResult{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return AuthResult{}, apperr.Validationf(apperr.ErrUsernameTaken, apperr.ErrUsernameTaken.Error())
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return AuthResult{}, apperr.Validationf(err, "password must be at most 72 bytes long")
		}
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.NowUtc()
	user := models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		ProfileImage: AvatarURL(username),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// the pre-checks above can race; the store's unique constraints decide
	if err := s.users.Create(ctx, &user); err != nil {
		switch {
		case errors.Is(err, apperr.ErrEmailTaken), errors.Is(err, apperr.ErrUsernameTaken):
			return AuthResult{}, apperr.Validationf(err, err.Error())
		default:
			return AuthResult{}, fmt.Errorf("create user: %w", err)
		}
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)

	user.PasswordHash = ""
	return AuthResult{Token: token, User: user}, nil
}

// Login checks email and password and issues a fresh token.
func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AuthResult{}, apperr.Validation("please provide all fields")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return AuthResult{}, apperr.ErrUserNotFound
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		return AuthResult{}, apperr.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	user.PasswordHash = ""
	return AuthResult{Token: token, User: user}, nil
}

// GetByID returns the public record of a user; the password hash is never set.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// AvatarURL is the generated default profile image for username.
func AvatarURL(username string) string {
	return avatarBaseURL + url.QueryEscape(username)
}
