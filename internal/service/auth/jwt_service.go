// Package auth issues and validates the admin access tokens that protect
// the management API. There is a single admin principal, authenticated by
// a bcrypt-hashed password and carried through HMAC-signed JWTs.
package auth

import (
	"context"
	"time"
)

// adminSubject is the JWT subject for the single admin principal.
const adminSubject = "admin"

// JWTService defines operations for managing JWT authentication tokens.
type JWTService interface {
	// GenerateToken creates a signed admin access token.
	// Returns the token string or an error if token generation fails.
	GenerateToken(ctx context.Context) (string, error)

	// ValidateToken validates the provided token string and extracts the claims.
	// Returns the claims if the token is valid, or an error if validation
	// fails (expired, invalid signature, etc.).
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims represents the validated claims of an admin token.
type Claims struct {
	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}
