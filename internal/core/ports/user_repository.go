package ports

import (
	"context"
	"time"

	"github.com/accessctl/identity-api/internal/core/domain"
)

// UserRepository is the credential store. Implementations validate id shape
// before querying and return domain.IDNotValid / domain.NotFound.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAll(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate, at time.Time) (*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
	// SetRoles replaces the user's role set in one write.
	SetRoles(ctx context.Context, id string, roleIDs []string, at time.Time) (*domain.User, error)
	// SetGroups replaces the user's group memberships in one write.
	SetGroups(ctx context.Context, id string, groupIDs []string, at time.Time) (*domain.User, error)
}

// SessionStore edits User.tokens. Every method is a single atomic write
// keyed by the user document.
type SessionStore interface {
	// AppendSession pushes s and marks the user logged in.
	AppendSession(ctx context.Context, userID string, s domain.Session, at time.Time) error
	HasSession(ctx context.Context, userID, token string) (bool, error)
	// RotateSession swaps oldToken for next.Token in place, keeping the session id.
	RotateSession(ctx context.Context, userID, oldToken string, next domain.Session) error
	// RemoveSessionByToken pulls the entry holding token from whichever user
	// has it. It reports the owner, or "" when nobody held the token.
	RemoveSessionByToken(ctx context.Context, token string, at time.Time) (string, error)
	// RemoveSession pulls the session with the given id and returns its token
	// ("" when already gone).
	RemoveSession(ctx context.Context, userID, sessionID string, at time.Time) (string, error)
	// ClearSessions drops every session and returns the removed tokens.
	ClearSessions(ctx context.Context, userID string, at time.Time) ([]string, error)
}
