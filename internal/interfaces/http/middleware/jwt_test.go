package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:   "test-secret-key-at-least-32-bytes!",
		Issuer:   "shopfront-test",
		Audience: "shopfront-admin",
	})
}

func jwtRouter(svc *auth.JWTService) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.Use(JWTAuthMiddleware(JWTMiddlewareConfig{Verifier: svc}))
	router.GET("/admin", func(c *gin.Context) {
		tenantID, _ := GetTenantID(c)
		claims := GetJWTClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"tenant_id": tenantID.String(),
			"subject":   claims.Subject,
			"role":      claims.Role,
		})
	})
	return router
}

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()
	token, err := svc.Issue("user-42", tenantID, "owner", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	w := httptest.NewRecorder()
	jwtRouter(svc).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, tenantID.String(), body["tenant_id"])
	assert.Equal(t, "user-42", body["subject"])
	assert.Equal(t, "owner", body["role"])
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()
	tenantID := uuid.New()

	expired, err := svc.Issue("user-42", tenantID, "", -time.Minute)
	require.NoError(t, err)

	otherIssuer := auth.NewJWTService(config.JWTConfig{
		Secret:   "test-secret-key-at-least-32-bytes!",
		Issuer:   "someone-else",
		Audience: "shopfront-admin",
	})
	foreign, err := otherIssuer.Issue("user-42", tenantID, "", time.Hour)
	require.NoError(t, err)

	wrongKey := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-of-32-bytes!!", Issuer: "shopfront-test", Audience: "shopfront-admin"})
	forged, err := wrongKey.Issue("user-42", tenantID, "", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name         string
		header       string
		expectedCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"basic auth", "Basic dXNlcjpwYXNz", dto.ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer not.a.jwt", dto.ErrCodeTokenInvalid},
		{"expired token", BearerPrefix + expired, dto.ErrCodeTokenExpired},
		{"wrong issuer", BearerPrefix + foreign, dto.ErrCodeTokenInvalid},
		{"wrong signing key", BearerPrefix + forged, dto.ErrCodeTokenInvalid},
	}

	router := jwtRouter(svc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.expectedCode, resp.Error.Code)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer  abc.def.ghi ")
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = bearerToken("bearer abc")
	assert.False(t, ok)
}

func TestGetJWTClaims_NotFound(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, GetJWTClaims(c))
}
