package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
	"github.com/unisphere/exam-backend/internal/validator"
)

// AdminUserHandler handles user management by admins.
type AdminUserHandler struct {
	userService *service.UserService
	log         zerolog.Logger
}

// NewAdminUserHandler creates a new AdminUserHandler.
func NewAdminUserHandler(userService *service.UserService, log zerolog.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		userService: userService,
		log:         log.With().Str("component", "admin_user_handler").Logger(),
	}
}

// List godoc
// GET /api/admin/users?page=1&per_page=50
func (h *AdminUserHandler) List(c *gin.Context) {
	var q model.ListUsersQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = 50
	}

	users, total, err := h.userService.List(c.Request.Context(), q.Page, q.PerPage)
	if err != nil {
		response.ServerError(c, h.log, err, "List users failed")
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"users": users}, response.NewPagination(q.Page, q.PerPage, total))
}

// Create godoc
// POST /api/admin/users
// Creates a single user. No welcome email is sent.
func (h *AdminUserHandler) Create(c *gin.Context) {
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
		response.ServerError(c, h.log, err, "Create user failed")
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"user": user})
}

// BulkCreate godoc
// POST /api/admin/users/bulk
// Creates every valid row and reports the skipped ones with a reason.
func (h *AdminUserHandler) BulkCreate(c *gin.Context) {
	var req model.BulkCreateUsersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.userService.BulkCreate(c.Request.Context(), req.Users)
	if err != nil {
		response.ServerError(c, h.log, err, "Bulk create users failed")
		return
	}

	h.log.Info().
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("Bulk user creation")
	response.Success(c, http.StatusCreated, result)
}
