package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
	"github.com/accessctl/identity-api/internal/pkg/metrics"
)

const reasonRotation = "rotation"

// SessionRegistry tracks outstanding refresh tokens on User.tokens and
// remembers rotated-away tokens in the revocation log.
type SessionRegistry struct {
	store       ports.SessionStore
	revocations ports.RevocationLog
	log         zerolog.Logger
	now         func() time.Time
}

func NewSessionRegistry(store ports.SessionStore, revocations ports.RevocationLog, log zerolog.Logger) *SessionRegistry {
	if revocations == nil {
		revocations = NoopRevocationLog{}
	}
	return &SessionRegistry{store: store, revocations: revocations, log: log, now: time.Now}
}

// Add records a new session on the user and marks it logged in.
func (r *SessionRegistry) Add(ctx context.Context, userID string, s domain.Session) error {
	return r.store.AppendSession(ctx, userID, s, r.now())
}

// Contains reports whether token is currently live for userID.
func (r *SessionRegistry) Contains(ctx context.Context, userID, token string) (bool, error) {
	return r.store.HasSession(ctx, userID, token)
}

// Rotate replaces oldToken with next in place and tombstones oldToken.
func (r *SessionRegistry) Rotate(ctx context.Context, userID, oldToken string, next domain.Session) error {
	if err := r.store.RotateSession(ctx, userID, oldToken, next); err != nil {
		return err
	}
	r.revoked(reasonRotation)
	if err := r.revocations.MarkRevoked(ctx, oldToken, userID); err != nil {
		r.log.Warn().Err(err).Str("user_id", userID).Msg("failed to record rotated refresh token")
	}
	return nil
}

// Remove drops token from whichever user holds it. Removing a token nobody
// holds is not an error; the returned owner is then "".
func (r *SessionRegistry) Remove(ctx context.Context, token, reason string) (string, error) {
	owner, err := r.store.RemoveSessionByToken(ctx, token, r.now())
	if err != nil {
		return "", err
	}
	if owner != "" {
		r.revoked(reason)
	}
	return owner, nil
}

// RemoveSession drops the session with the given id from userID.
func (r *SessionRegistry) RemoveSession(ctx context.Context, userID, sessionID, reason string) error {
	token, err := r.store.RemoveSession(ctx, userID, sessionID, r.now())
	if err != nil {
		return err
	}
	if token != "" {
		r.revoked(reason)
	}
	return nil
}

// Clear drops every session of userID.
func (r *SessionRegistry) Clear(ctx context.Context, userID, reason string) error {
	tokens, err := r.store.ClearSessions(ctx, userID, r.now())
	if err != nil {
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues(reason).Add(float64(len(tokens)))
	return nil
}

// RevokedFor reports the former owner of a rotated-away token, if remembered.
// Tokens ended by logout or reject are never recorded, so presenting one
// again is a plain miss rather than reuse.
func (r *SessionRegistry) RevokedFor(ctx context.Context, token string) (string, bool) {
	owner, ok, err := r.revocations.RevokedFor(ctx, token)
	if err != nil {
		r.log.Warn().Err(err).Msg("revocation lookup failed")
		return "", false
	}
	return owner, ok
}

func (r *SessionRegistry) revoked(reason string) {
	metrics.SessionsRevokedTotal.WithLabelValues(reason).Inc()
}

// NoopRevocationLog is used when no revocation backend is configured.
type NoopRevocationLog struct{}

func (NoopRevocationLog) MarkRevoked(context.Context, string, string) error { return nil }

func (NoopRevocationLog) RevokedFor(context.Context, string) (string, bool, error) {
	return "", false, nil
}
