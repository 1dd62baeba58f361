package service

import (
	"errors"
	"sort"
	"strings"
)

// Domain errors returned by the services. Handlers map them to response codes.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrAdminNotFound      = errors.New("admin not found")

	ErrExamNotFound         = errors.New("exam not found")
	ErrInvalidCorrectOption = errors.New("each question needs exactly one correct option")

	ErrInvalidTime      = errors.New("exam is outside its availability window")
	ErrExamAlreadyTaken = errors.New("exam already taken")
	ErrSessionExists    = errors.New("exam session already active")
	ErrSessionNotFound  = errors.New("no active exam session")
	ErrResultsNotFound  = errors.New("no completed session for this exam")
	ErrInvalidAnswer    = errors.New("answer does not belong to this exam")
)

// FieldErrors attaches per-field messages to a domain error.
type FieldErrors struct {
	Err    error
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return e.Err.Error() + " (" + strings.Join(parts, "; ") + ")"
}

func (e *FieldErrors) Unwrap() error { return e.Err }
