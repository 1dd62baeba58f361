package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/unisphere/exam-backend/internal/model"
	"github.com/unisphere/exam-backend/internal/repository"
)

// AdminService handles admin accounts.
type AdminService struct {
	admins AdminStore
	auth   *AuthService
}

// NewAdminService creates a new AdminService.
func NewAdminService(admins AdminStore, auth *AuthService) *AdminService {
	return &AdminService{admins: admins, auth: auth}
}

// Authenticate checks admin credentials.
func (s *AdminService) Authenticate(ctx context.Context, email, password string) (*model.Admin, error) {
	a, err := s.admins.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if err := s.auth.CheckPassword(a.PasswordHash, password); err != nil {
		return nil, err
	}
	return a, nil
}

// GetByID retrieves an admin.
func (s *AdminService) GetByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	a, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return a, nil
}

// Create registers a new admin. Used by the bootstrap command.
func (s *AdminService) Create(ctx context.Context, email, name, password string) (*model.Admin, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	a := &model.Admin{Email: normalizeEmail(email), Name: name, PasswordHash: hash}
	if err := s.admins.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return a, nil
}
