package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
	"github.com/accessctl/identity-api/internal/pkg/metrics"
)

// Authorizer resolves a user's effective roles and permissions on every call
// and admits a request only when one permission matches. Nothing is cached.
type Authorizer struct {
	users       ports.UserRepository
	groups      ports.GroupRepository
	roles       ports.RoleRepository
	permissions ports.PermissionRepository
	log         zerolog.Logger
}

func NewAuthorizer(
	users ports.UserRepository,
	groups ports.GroupRepository,
	roles ports.RoleRepository,
	permissions ports.PermissionRepository,
	log zerolog.Logger,
) *Authorizer {
	return &Authorizer{users: users, groups: groups, roles: roles, permissions: permissions, log: log}
}

// Authorize is fail-closed: an unknown user, a user without roles, or a role
// set without a matching permission is denied.
func (a *Authorizer) Authorize(ctx context.Context, userID string, want domain.Grant) (domain.Decision, error) {
	start := time.Now()
	defer func() { metrics.AuthorizationDuration.Observe(time.Since(start).Seconds()) }()

	decision, err := a.decide(ctx, userID, want)
	if err != nil {
		return domain.Deny, err
	}
	metrics.AuthorizationDecisionsTotal.WithLabelValues(want.Resource, decision.String()).Inc()
	a.log.Debug().
		Str("user_id", userID).
		Str("grant", want.String()).
		Str("decision", decision.String()).
		Msg("authorization decided")
	return decision, nil
}

func (a *Authorizer) decide(ctx context.Context, userID string, want domain.Grant) (domain.Decision, error) {
	user, err := a.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrIDNotValid) {
			return domain.Deny, nil
		}
		return domain.Deny, err
	}

	roleIDs, err := a.EffectiveRoleIDs(ctx, user)
	if err != nil {
		return domain.Deny, err
	}
	if len(roleIDs) == 0 {
		return domain.Deny, nil
	}

	perms, err := a.effectivePermissions(ctx, roleIDs)
	if err != nil {
		return domain.Deny, err
	}
	for _, p := range perms {
		if p.Grants(want) {
			return domain.Permit, nil
		}
	}
	return domain.Deny, nil
}

// EffectiveRoleIDs is the union of the user's direct roles and the roles of
// every group the user belongs to, duplicates collapsed by id.
func (a *Authorizer) EffectiveRoleIDs(ctx context.Context, user *domain.User) ([]string, error) {
	ids := append([]string{}, user.Roles...)
	if len(user.Groups) > 0 {
		groups, err := a.groups.FindByIDs(ctx, user.Groups)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			ids = append(ids, g.Roles...)
		}
	}
	return domain.DedupIDs(ids), nil
}

func (a *Authorizer) effectivePermissions(ctx context.Context, roleIDs []string) ([]*domain.Permission, error) {
	roles, err := a.roles.FindByIDs(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	var permIDs []string
	for _, r := range roles {
		permIDs = append(permIDs, r.Permissions...)
	}
	permIDs = domain.DedupIDs(permIDs)
	if len(permIDs) == 0 {
		return nil, nil
	}
	return a.permissions.FindByIDs(ctx, permIDs)
}
