package ports

import (
	"context"

	"github.com/accessctl/identity-api/internal/core/domain"
)

// PasswordHasher is the digest capability used for credentials.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, digest string) bool
}

// TokenIssuer creates and validates access tokens and mints refresh tokens.
type TokenIssuer interface {
	Issue(userID, email string) (domain.TokenPair, error)
	// IssueAccess signs a new access token for an existing session.
	IssueAccess(userID, email, sessionID string) (string, error)
	NewRefreshToken() (string, error)
	Validate(token string) (domain.Claims, error)
	// ValidateSignature checks the signature and accepts a recently expired token.
	ValidateSignature(token string) (domain.Claims, error)
	ExpiresIn() int64
}

// RevocationLog remembers refresh tokens that were removed, so a later
// presentation can be recognised as reuse. It never grants anything.
type RevocationLog interface {
	MarkRevoked(ctx context.Context, token, userID string) error
	// RevokedFor returns the former owner of token, if remembered.
	RevokedFor(ctx context.Context, token string) (string, bool, error)
}
