package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopfront/backend/internal/infrastructure/config"
)

// Common errors.
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingTenantID  = errors.New("missing tenant id in claims")
	ErrMissingSubject   = errors.New("missing subject in claims")
)

// Claims is the verified identity carried by an admin bearer token.
type Claims struct {
	Subject   string
	TenantID  uuid.UUID
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// JWTService verifies HS256 bearer tokens issued by the identity provider.
// Issue exists for tooling and tests; production tokens come from the provider.
type JWTService struct {
	secret      []byte
	issuer      string
	audience    string
	tenantClaim string
	leeway      time.Duration
	now         func() time.Time
}

// NewJWTService creates a verifier from the jwt config section.
func NewJWTService(cfg config.JWTConfig) *JWTService {
	tenantClaim := cfg.TenantClaim
	if tenantClaim == "" {
		tenantClaim = "tenant_id"
	}
	return &JWTService{
		secret:      []byte(cfg.Secret),
		issuer:      cfg.Issuer,
		audience:    cfg.Audience,
		tenantClaim: tenantClaim,
		leeway:      cfg.ClockSkew,
		now:         time.Now,
	}
}

// Verify parses tokenString and returns its claims. The token must be signed
// with HS256, carry an expiry, and match the configured issuer and audience.
func (s *JWTService) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	if s.audience != "" {
		opts = append(opts, jwt.WithAudience(s.audience))
	}

	mapClaims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, mapClaims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return s.claimsFrom(mapClaims)
}

func (s *JWTService) claimsFrom(mc jwt.MapClaims) (*Claims, error) {
	subject, _ := mc.GetSubject()
	if subject == "" {
		return nil, ErrMissingSubject
	}

	rawTenant, _ := mc[s.tenantClaim].(string)
	if rawTenant == "" {
		return nil, ErrMissingTenantID
	}
	tenantID, err := uuid.Parse(rawTenant)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a uuid", ErrInvalidToken, s.tenantClaim)
	}

	claims := &Claims{Subject: subject, TenantID: tenantID}
	claims.Email, _ = mc["email"].(string)
	claims.Role, _ = mc["role"].(string)
	if iat, _ := mc.GetIssuedAt(); iat != nil {
		claims.IssuedAt = iat.Time
	}
	if exp, _ := mc.GetExpirationTime(); exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// Issue signs a token for subject in tenantID valid for ttl.
func (s *JWTService) Issue(subject string, tenantID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := s.now()
	mc := jwt.MapClaims{
		"sub":          subject,
		s.tenantClaim: tenantID.String(),
		"iat":          jwt.NewNumericDate(now),
		"exp":          jwt.NewNumericDate(now.Add(ttl)),
		"jti":          uuid.NewString(),
	}
	if role != "" {
		mc["role"] = role
	}
	if s.issuer != "" {
		mc["iss"] = s.issuer
	}
	if s.audience != "" {
		mc["aud"] = s.audience
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// RemainingTTL returns how long the token stays valid.
func (c *Claims) RemainingTTL(now time.Time) time.Duration {
	if c.ExpiresAt.IsZero() {
		return 0
	}
	if remaining := c.ExpiresAt.Sub(now); remaining > 0 {
		return remaining
	}
	return 0
}
