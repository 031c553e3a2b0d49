package ports

import (
	"time"

	"github.com/shopmesh/platform/internal/core/domain"
)

// PasswordHasher hashes and verifies password credentials.
type PasswordHasher interface {
	// Hash returns a self-describing encoding that embeds its own salt.
	Hash(plaintext string) (string, error)
	// Verify compares in constant time. A malformed encoding yields false.
	Verify(plaintext, encoded string) bool
}

// TokenVerifier is the part of TokenService the authorization middleware needs.
type TokenVerifier interface {
	// Verify returns domain.ErrTokenExpired, domain.ErrTokenMalformed or
	// domain.ErrTokenUnknown when the token cannot be trusted.
	Verify(token string) (*domain.RequestIdentity, error)
}

// TokenService issues and verifies signed authentication tokens.
type TokenService interface {
	TokenVerifier
	Issue(subjectID, email string, role domain.Role, ttl time.Duration) (*domain.AuthToken, error)
}
