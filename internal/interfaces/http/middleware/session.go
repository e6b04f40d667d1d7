package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/infrastructure/logger"
)

// Cart session keys.
const (
	SessionHeader     = "X-Cart-Session"
	CartSessionKey    = "cart_session"
	maxSessionIDBytes = 64
)

// CartSessionConfig holds configuration for the cart session middleware.
type CartSessionConfig struct {
	CookieName   string
	CookieSecure bool
	// MaxAge is the cookie lifetime; it matches the cart TTL.
	MaxAge time.Duration
}

// CartSession identifies the browsing session that owns a cart. The id is
// read from the X-Cart-Session header, then from the session cookie; a new
// one is issued when neither holds a usable id. It is echoed in both.
func CartSession(cfg CartSessionConfig) gin.HandlerFunc {
	if cfg.CookieName == "" {
		cfg.CookieName = CartSessionKey
	}

	return func(c *gin.Context) {
		session := c.GetHeader(SessionHeader)
		if !validSessionID(session) {
			session, _ = c.Cookie(cfg.CookieName)
		}
		if !validSessionID(session) {
			session = uuid.NewString()
		}

		c.Set(CartSessionKey, session)
		c.Writer.Header().Set(SessionHeader, session)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(cfg.CookieName, session, int(cfg.MaxAge.Seconds()), "/", "", cfg.CookieSecure, true)
		c.Request = c.Request.WithContext(logger.WithSessionID(c.Request.Context(), session))
		c.Next()
	}
}

// validSessionID accepts opaque ids of URL-safe characters only; the id
// becomes part of a cache key.
func validSessionID(id string) bool {
	if id == "" || len(id) > maxSessionIDBytes {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// GetCartSession returns the cart session id of this request.
func GetCartSession(c *gin.Context) string {
	return c.GetString(CartSessionKey)
}
