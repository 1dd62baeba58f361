package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an exam taker.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest is the payload for self-registration and for admin single-user creation.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Username string `json:"username" binding:"required,min=2,max=100"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginRequest is the payload for user authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,max=128"`
}

// AuthResponse is returned after registration or login.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ListUsersQuery holds paging parameters for the admin user listing.
type ListUsersQuery struct {
	Page    int `form:"page" binding:"omitempty,min=1"`
	PerPage int `form:"per_page" binding:"omitempty,min=1,max=200"`
}

// BulkUserEntry is one row of a bulk create request. Rows are checked
// individually so a bad row is skipped instead of failing the batch.
type BulkUserEntry struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// BulkCreateUsersRequest is the payload for POST /admin/users/bulk.
type BulkCreateUsersRequest struct {
	Users []BulkUserEntry `json:"users" binding:"required,min=1,max=1000"`
}

// BulkSkipped reports why a row was not created.
type BulkSkipped struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// BulkCreateResult summarizes a bulk create call.
type BulkCreateResult struct {
	Message string        `json:"message"`
	Created []User        `json:"created"`
	Skipped []BulkSkipped `json:"skipped"`
}
