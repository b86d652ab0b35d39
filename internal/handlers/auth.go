package handlers

import (
	"net/http"

	"BOOKWORM_BACK-END/internal/dto"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/models"
	"BOOKWORM_BACK-END/internal/services"
	"BOOKWORM_BACK-END/internal/utils"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users *services.UserService
	log   logging.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(users *services.UserService, log logging.Logger) *AuthHandler {
	return &AuthHandler{users: users, log: log}
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a new account with username, email and password. A generated avatar is assigned.
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration data"
// @Success 201 {object} dto.AuthResponse "User created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data or user already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	res, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, "register", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.AuthResponse{
		Token: res.Token,
		User:  dto.NewUserResponse(res.User),
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with email and password and receive a fresh token
// @Tags authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 201 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data or credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, h.log, "login", err)
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.AuthResponse{
		Token: res.Token,
		User:  dto.NewUserResponse(res.User),
	})
}

// Profile returns the authenticated user
// @Summary Get current user
// @Description Resolve the bearer token into the caller's public profile
// @Tags authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} dto.ErrorResponse
// @Router /api/auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request, user models.User) {
	utils.WriteJSONResponse(w, http.StatusOK, dto.NewUserResponse(user))
}
