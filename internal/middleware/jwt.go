package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/unisphere/exam-backend/internal/response"
	"github.com/unisphere/exam-backend/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
	// ContextKeyToken holds the raw bearer token.
	ContextKeyToken = "token"
)

// RequireUserJWT accepts only tokens from the user namespace.
func RequireUserJWT(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return requireJWT(authService, service.TokenTypeUser, bearerToken, log)
}

// RequireAdminJWT accepts only tokens from the admin namespace.
func RequireAdminJWT(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return requireJWT(authService, service.TokenTypeAdmin, bearerToken, log)
}

// RequireAdminWSAuth validates an admin JWT from the query param ?token=...
// Used for WebSocket upgrade requests, which cannot carry headers from browsers.
func RequireAdminWSAuth(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return requireJWT(authService, service.TokenTypeAdmin, func(c *gin.Context) string {
		return c.Query("token")
	}, log)
}

func requireJWT(authService *service.AuthService, tokenType service.TokenType, extract func(*gin.Context) string, log zerolog.Logger) gin.HandlerFunc {
	log = log.With().Str("component", "auth_middleware").Logger()
	return func(c *gin.Context) {
		tokenStr := extract(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		claims, err := authService.Authenticate(c.Request.Context(), tokenType, tokenStr)
		if err != nil {
			code, ok := tokenErrCode(err)
			if !ok {
				response.ServerError(c, log, err, "Token authentication failed")
				c.Abort()
				return
			}
			response.AbortFail(c, http.StatusUnauthorized, code)
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyToken, tokenStr)
		c.Next()
	}
}

// tokenErrCode maps token rejections to their codes. It reports false for
// anything else, such as an unreachable revocation store.
func tokenErrCode(err error) (response.ErrCode, bool) {
	switch {
	case errors.Is(err, service.ErrTokenExpired):
		return response.ErrTokenExpired, true
	case errors.Is(err, service.ErrTokenRevoked):
		return response.ErrTokenRevoked, true
	case errors.Is(err, service.ErrTokenInvalid):
		return response.ErrTokenInvalid, true
	default:
		return "", false
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
