// Package auth issues and verifies stockroom access tokens and hashes
// passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shashiranjanraj/stockroom/config"
	"golang.org/x/crypto/bcrypt"
)

const (
	issuer = "stockroom"
	leeway = 30 * time.Second
)

// ErrInvalidToken wraps every reason a token is refused.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims is the access token payload. Subject carries the user id as text.
type Claims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	Staff     bool   `json:"staff"`
	Superuser bool   `json:"superuser"`
	jwt.RegisteredClaims
}

// TokenTTL is how long an access token stays valid (JWT_TTL, default 24h).
func TokenTTL() time.Duration { return config.Duration("JWT_TTL", 24*time.Hour) }

func secret() []byte { return []byte(config.JWTSecret()) }

// GenerateToken signs an HS256 access token for the user.
func GenerateToken(userID uint, username string, staff, superuser bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		Staff:     staff,
		Superuser: superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL())),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken verifies signature, issuer and expiry and returns the claims.
func ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (interface{}, error) { return secret(), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return nil, fmt.Errorf("%w: subject does not match user", ErrInvalidToken)
	}
	return claims, nil
}

// HashPassword bcrypt-hashes a plain-text password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plain matches the bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

type claimsKey struct{}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFrom returns the claims stored by WithClaims, or nil.
func ClaimsFrom(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey{}).(*Claims)
	return c
}
