package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/unisphere/exam-backend/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// TokenType distinguishes the user and admin token namespaces. It travels
// as the JWT audience, so a token minted for one namespace never verifies
// in the other.
type TokenType string

const (
	TokenTypeUser  TokenType = "user"
	TokenTypeAdmin TokenType = "admin"
)

// Claims wraps the registered JWT claims. Only sub, aud, exp, iat and jti
// are signed; UserID and TokenType are derived after verification.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"-"`
	TokenType TokenType `json:"-"`
}

// AuthService handles password hashing and token issue, verification and revocation.
type AuthService struct {
	cfg       *config.Config
	blocklist TokenBlocklist
	now       func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, blocklist TokenBlocklist) *AuthService {
	return &AuthService{cfg: cfg, blocklist: blocklist, now: time.Now}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken signs an HS256 token for subject in the given namespace.
func (s *AuthService) GenerateToken(tokenType TokenType, subject uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   subject.String(),
		Audience:  jwt.ClaimStrings{string(tokenType)},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, expiry and namespace. It does not
// consult the revocation list; see Authenticate.
func (s *AuthService) ValidateToken(tokenType TokenType, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(string(tokenType)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" {
		return nil, ErrTokenInvalid
	}
	claims.UserID = id
	claims.TokenType = tokenType
	return claims, nil
}

// Authenticate validates the token and rejects it if it was logged out.
func (s *AuthService) Authenticate(ctx context.Context, tokenType TokenType, tokenStr string) (*Claims, error) {
	claims, err := s.ValidateToken(tokenType, tokenStr)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blocklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke blocks the token until its natural expiry.
func (s *AuthService) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	return s.blocklist.Revoke(ctx, claims.ID, ttl)
}
