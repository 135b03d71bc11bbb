package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// JWT context keys
const (
	AccountIDContextKey   = "account_id"
	AccountNameContextKey = "account_name"
	StaffContextKey       = "staff"
	AuthHeaderKey         = "Authorization"
	BearerPrefix          = "Bearer "
)

// OptionalAuth resolves the account from a Bearer token when one is sent.
// Requests without an Authorization header pass through anonymously; a
// header that is present but invalid is rejected, never silently ignored.
func OptionalAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthHeaderKey)
		if authHeader == "" {
			c.Next()
			return
		}

		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		if tokenString == "" {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Missing token")
			return
		}

		claims, err := jwtService.Validate(tokenString)
		if err != nil {
			code := dto.ErrCodeTokenInvalid
			if errors.Is(err, auth.ErrExpiredToken) {
				code = dto.ErrCodeTokenExpired
			}
			abortUnauthorized(c, code, "Token validation failed")
			return
		}

		c.Set(AccountIDContextKey, claims.AccountID)
		c.Set(AccountNameContextKey, claims.Name)
		c.Set(StaffContextKey, claims.Staff)
		c.Next()
	}
}

// RequireAuth aborts anonymous requests. It must run after OptionalAuth.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetAccountID(c) == "" {
			abortUnauthorized(c, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}
		c.Next()
	}
}

// GetAccountID returns the authenticated account ID, or "" for anonymous
// requests
func GetAccountID(c *gin.Context) string {
	return c.GetString(AccountIDContextKey)
}

// IsStaff reports whether the request carries a staff token
func IsStaff(c *gin.Context) bool {
	return c.GetBool(StaffContextKey)
}

func abortUnauthorized(c *gin.Context, code, message string) {
	requestID := c.GetString(RequestIDContextKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(code, message, requestID))
}
