// Package auth is a thin adapter over bcrypt password hashing and JWT
// issuance/verification, mirroring the Python original's auth module
// (verify_password / get_password_hash / create_access_token /
// require_admin) without any framework-specific request plumbing —
// that lives in internal/api.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/tmkeil/variantconf/internal/apperr"
	"github.com/tmkeil/variantconf/internal/model"
)

// Claims is the JWT payload: subject user id, username, and role, so
// the API facade can authorise a request without a store round trip.
type Claims struct {
	UserID   int64      `json:"uid"`
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies access tokens with a fixed HMAC key.
type Issuer struct {
	signingKey []byte
	ttl        time.Duration
}

func NewIssuer(signingKey string, ttl time.Duration) *Issuer {
	return &Issuer{signingKey: []byte(signingKey), ttl: ttl}
}

// HashPassword mirrors get_password_hash.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal(err, "hash password")
	}
	return string(hash), nil
}

// VerifyPassword mirrors verify_password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IssueToken mirrors create_access_token.
func (i *Issuer) IssueToken(u *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.signingKey)
	if err != nil {
		return "", apperr.Internal(err, "sign access token")
	}
	return signed, nil
}

// VerifyToken parses and validates a bearer token, returning its claims.
func (i *Issuer) VerifyToken(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorised("invalid or expired token")
	}
	return claims, nil
}

// RequireRole mirrors require_admin, generalised to any role: it fails
// closed on any role other than the ones listed.
func RequireRole(c *Claims, allowed ...model.Role) error {
	for _, r := range allowed {
		if c.Role == r {
			return nil
		}
	}
	return apperr.Forbidden("role %s is not permitted", c.Role)
}
