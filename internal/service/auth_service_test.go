package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestToken_RoundTrip(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	token, err := f.auth.GenerateToken(TokenTypeUser, id)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := f.auth.Authenticate(context.Background(), TokenTypeUser, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if claims.UserID != id || claims.TokenType != TokenTypeUser || claims.ID == "" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestToken_WrongNamespaceRejected(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()

	userToken, _ := f.auth.GenerateToken(TokenTypeUser, id)
	if _, err := f.auth.ValidateToken(TokenTypeAdmin, userToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("user token as admin: err = %v, want ErrTokenInvalid", err)
	}

	adminToken, _ := f.auth.GenerateToken(TokenTypeAdmin, id)
	if _, err := f.auth.ValidateToken(TokenTypeUser, adminToken); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("admin token as user: err = %v, want ErrTokenInvalid", err)
	}
}

func TestToken_TamperedPayloadRejected(t *testing.T) {
	f := newFixture(t)
	token, _ := f.auth.GenerateToken(TokenTypeUser, uuid.New())

	parts := strings.Split(token, ".")
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	forged := strings.Replace(string(payload), `"aud":["user"]`, `"aud":["admin"]`, 1)
	if forged == string(payload) {
		t.Fatalf("audience not found in payload %s", payload)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	if _, err := f.auth.ValidateToken(TokenTypeAdmin, strings.Join(parts, ".")); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestToken_OtherAlgorithmRejected(t *testing.T) {
	f := newFixture(t)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   uuid.NewString(),
		Audience:  jwt.ClaimStrings{string(TokenTypeUser)},
		ExpiresAt: jwt.NewNumericDate(f.now.Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testConfig().JWTSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := f.auth.ValidateToken(TokenTypeUser, token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestToken_Expired(t *testing.T) {
	f := newFixture(t)
	token, _ := f.auth.GenerateToken(TokenTypeUser, uuid.New())

	f.now = f.now.Add(time.Hour + time.Second)
	if _, err := f.auth.ValidateToken(TokenTypeUser, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	token, _ := f.auth.GenerateToken(TokenTypeAdmin, uuid.New())

	claims, err := f.auth.Authenticate(ctx, TokenTypeAdmin, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	f.now = f.now.Add(15 * time.Minute)
	if err := f.auth.Revoke(ctx, claims); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ttl, _ := f.blocklist.TTL(claims.ID); ttl != 45*time.Minute {
		t.Errorf("blocklist ttl = %v, want remaining lifetime 45m", ttl)
	}

	if _, err := f.auth.Authenticate(ctx, TokenTypeAdmin, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("err = %v, want ErrTokenRevoked", err)
	}

	other, _ := f.auth.GenerateToken(TokenTypeAdmin, claims.UserID)
	if _, err := f.auth.Authenticate(ctx, TokenTypeAdmin, other); err != nil {
		t.Fatalf("fresh token rejected after logout: %v", err)
	}
}

func TestAdminService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	admin, err := f.admins.Create(ctx, "Root@Example.com", "Root", "secret123")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.admins.Create(ctx, "root@example.com", "Again", "secret123"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate err = %v, want ErrEmailTaken", err)
	}

	got, err := f.admins.Authenticate(ctx, "root@example.com", "secret123")
	if err != nil || got.ID != admin.ID {
		t.Fatalf("authenticate: %v %+v", err, got)
	}
	if _, err := f.admins.Authenticate(ctx, "root@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := f.admins.GetByID(ctx, uuid.New()); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("unknown admin err = %v", err)
	}
}
