package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/accessctl/identity-api/internal/core/ports"
)

var _ ports.RevocationLog = (*RevocationLog)(nil)

const defaultRevocationTTL = 30 * 24 * time.Hour

// RevocationLog remembers removed refresh tokens so that a later
// presentation can be told apart from a token that never existed.
// Key format: revoked:<sha256(token)> -> user id
type RevocationLog struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevocationLog wraps client. A non-positive ttl falls back to 30 days.
func NewRevocationLog(client *redis.Client, ttl time.Duration) *RevocationLog {
	if ttl <= 0 {
		ttl = defaultRevocationTTL
	}
	return &RevocationLog{client: client, ttl: ttl}
}

// MarkRevoked records that token belonged to userID.
func (l *RevocationLog) MarkRevoked(ctx context.Context, token, userID string) error {
	if err := l.client.Set(ctx, l.key(token), userID, l.ttl).Err(); err != nil {
		return fmt.Errorf("mark revoked: %w", err)
	}
	return nil
}

// RevokedFor returns the former owner of token if a tombstone is still live.
func (l *RevocationLog) RevokedFor(ctx context.Context, token string) (string, bool, error) {
	owner, err := l.client.Get(ctx, l.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("revocation lookup: %w", err)
	}
	return owner, true, nil
}

// key never stores the raw token.
func (l *RevocationLog) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}
