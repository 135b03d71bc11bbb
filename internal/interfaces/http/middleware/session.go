package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/infrastructure/config"
)

// Session context and wire keys
const (
	SessionIDContextKey = "session_id"
	SessionIDHeader     = "X-Session-ID"
	SessionCookieName   = "storefront_session"
)

// Session resolves the anonymous session identifier for each request. The
// X-Session-ID header wins over the cookie; when neither is present a new
// identifier is generated. The identifier is echoed in the response header
// and refreshed in the cookie, so browser and non-browser clients both keep
// a stable session across requests.
func Session(cfg config.CookieConfig, maxAge int) gin.HandlerFunc {
	sameSite := parseSameSite(cfg.SameSite)

	return func(c *gin.Context) {
		sessionID := c.GetHeader(SessionIDHeader)
		if sessionID == "" {
			if cookie, err := c.Cookie(SessionCookieName); err == nil {
				sessionID = cookie
			}
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
		}

		c.Set(SessionIDContextKey, sessionID)
		c.Writer.Header().Set(SessionIDHeader, sessionID)

		c.SetSameSite(sameSite)
		c.SetCookie(SessionCookieName, sessionID, maxAge, cfg.Path, cfg.Domain, cfg.Secure, true)

		c.Next()
	}
}

// GetSessionID returns the session identifier resolved for this request
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDContextKey)
}

func parseSameSite(value string) http.SameSite {
	switch value {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
