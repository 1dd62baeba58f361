package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/middleware"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
	"github.com/unisphere/exam-backend/internal/validator"
)

// AuthHandler handles registration, login, profile and logout for both namespaces.
type AuthHandler struct {
	authService  *service.AuthService
	userService  *service.UserService
	adminService *service.AdminService
	log          zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	userService *service.UserService,
	adminService *service.AdminService,
	log zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		userService:  userService,
		adminService: adminService,
		log:          log.With().Str("component", "auth_handler").Logger(),
	}
}

// Register godoc
// POST /api/auth/register
// Creates a user account and returns a user token.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			response.Fail(c, http.StatusConflict, response.ErrUserExists)
			return
		}
		response.ServerError(c, h.log, err, "Register failed")
		return
	}

	token, err := h.authService.GenerateToken(service.TokenTypeUser, user.ID)
	if err != nil {
		response.ServerError(c, h.log, err, "Token generation failed")
		return
	}

	response.Success(c, http.StatusCreated, model.AuthResponse{Token: token, User: *user})
}

// Login godoc
// POST /api/auth/login
// Authenticates a user by email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.ServerError(c, h.log, err, "Login failed")
		return
	}

	token, err := h.authService.GenerateToken(service.TokenTypeUser, user.ID)
	if err != nil {
		response.ServerError(c, h.log, err, "Token generation failed")
		return
	}

	response.Success(c, http.StatusOK, model.AuthResponse{Token: token, User: *user})
}

// Me godoc
// GET /api/auth/me
// Returns the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		response.ServerError(c, h.log, err, "Get profile failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// Logout godoc
// POST /api/auth/logout, POST /api/admin/logout
// Revokes the presented token for the rest of its lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Revoke(c.Request.Context(), claims); err != nil {
		response.ServerError(c, h.log, err, "Logout failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// AdminLogin godoc
// POST /api/admin/login
// Authenticates an admin and returns a token from the admin namespace.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	admin, err := h.adminService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.ServerError(c, h.log, err, "Admin login failed")
		return
	}

	token, err := h.authService.GenerateToken(service.TokenTypeAdmin, admin.ID)
	if err != nil {
		response.ServerError(c, h.log, err, "Token generation failed")
		return
	}

	response.Success(c, http.StatusOK, model.AdminLoginResponse{Token: token, Admin: *admin})
}

// AdminMe godoc
// GET /api/admin/me
// Returns the currently authenticated admin.
func (h *AuthHandler) AdminMe(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	admin, err := h.adminService.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrAdminNotFound) {
			response.Fail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}
		response.ServerError(c, h.log, err, "Get admin profile failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"admin": admin})
}
