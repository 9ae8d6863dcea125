// Package auth wraps the token and password primitives used by the service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned for malformed, forged or subject-less tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the token's exp claim has passed
	ErrTokenExpired = errors.New("token expired")
)

// TokenIssuer signs subjects into bearer tokens and verifies them back
type TokenIssuer interface {
	Sign(subject string) (string, error)
	Verify(token string) (string, error)
}

// JWTIssuer issues HS256 tokens with a fixed lifetime
type JWTIssuer struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates an issuer for the given secret and token lifetime
func NewJWTIssuer(secret string, expiry time.Duration) *JWTIssuer {
	return &JWTIssuer{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Sign issues a token whose subject is the given user id.
// Every token carries a unique jti, so two tokens for the same subject never collide.
func (i *JWTIssuer) Sign(subject string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
	})
	tokenString, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify checks signature and expiry and returns the token subject
func (i *JWTIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
