package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/taskhub/internal/domain"
)

// TokenTTL is the fixed validity of every issued token.
const TokenTTL = 24 * time.Hour

const issuer = "taskhub"

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string  `json:"userId"`
	TenantID *string `json:"tenantId"` // null for the super admin
	Role     string  `json:"role"`
}

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueToken creates a signed HS256 token valid for TokenTTL.
func IssueToken(secret string, userID uuid.UUID, tenantID *uuid.UUID, role domain.Role) (string, error) {
	return issueToken(secret, userID, tenantID, role, time.Now(), TokenTTL)
}

func issueToken(secret string, userID uuid.UUID, tenantID *uuid.UUID, role domain.Role, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
		UserID: userID.String(),
		Role:   string(role),
	}
	if tenantID != nil {
		tid := tenantID.String()
		claims.TenantID = &tid
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.issueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

// Identity decodes the typed identity carried by the claims.
func (c *Claims) Identity() (userID uuid.UUID, tenantID *uuid.UUID, role domain.Role, err error) {
	userID, err = uuid.Parse(c.UserID)
	if err != nil {
		return uuid.Nil, nil, "", fmt.Errorf("auth.Claims.Identity: user id: %w", ErrInvalidToken)
	}

	role = domain.Role(c.Role)
	if !role.Valid() {
		return uuid.Nil, nil, "", fmt.Errorf("auth.Claims.Identity: role %q: %w", c.Role, ErrInvalidToken)
	}

	if c.TenantID != nil {
		tid, parseErr := uuid.Parse(*c.TenantID)
		if parseErr != nil {
			return uuid.Nil, nil, "", fmt.Errorf("auth.Claims.Identity: tenant id: %w", ErrInvalidToken)
		}
		tenantID = &tid
	}

	if tenantID == nil && role != domain.RoleSuperAdmin {
		return uuid.Nil, nil, "", fmt.Errorf("auth.Claims.Identity: tenant required for %s: %w", role, ErrInvalidToken)
	}

	return userID, tenantID, role, nil
}
