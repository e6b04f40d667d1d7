package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// JWT context keys.
const (
	JWTClaimsKey  = "jwt_claims"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "
)

// TokenVerifier validates admin bearer tokens. *auth.JWTService satisfies it.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware.
type JWTMiddlewareConfig struct {
	Verifier TokenVerifier
	Logger   *zap.Logger
}

// JWTAuthMiddleware requires a valid bearer token and scopes the request
// to the tenant named in its claims.
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
			return
		}

		claims, err := cfg.Verifier.Verify(token)
		if err != nil {
			log.Warn("JWT authentication failed",
				zap.Error(err),
				zap.String("path", c.Request.URL.Path),
			)
			code, message := authErrorResponse(err)
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		c.Set(JWTClaimsKey, claims)
		setTenant(c, claims.TenantID, "")

		log.Debug("JWT authentication successful",
			zap.String("subject", claims.Subject),
			zap.String("tenant_id", claims.TenantID.String()),
		)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	if !ok {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authErrorResponse(err error) (string, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return dto.ErrCodeTokenExpired, "Token has expired"
	case errors.Is(err, auth.ErrTokenNotYetValid):
		return dto.ErrCodeTokenInvalid, "Token is not yet valid"
	case errors.Is(err, auth.ErrMissingTenantID):
		return dto.ErrCodeTokenInvalid, "Token is not bound to a store"
	default:
		return dto.ErrCodeTokenInvalid, "Invalid token"
	}
}

// GetJWTClaims retrieves JWT claims from gin.Context.
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}
