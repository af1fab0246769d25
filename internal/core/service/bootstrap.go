package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

// AdminRoleName is the role Bootstrap keeps in sync with the route policy.
const AdminRoleName = "admin"

// Bootstrapper seeds the permissions every guarded route needs and an admin
// role holding all of them, so a fail-closed deployment can be administered.
type Bootstrapper struct {
	users       ports.UserRepository
	roles       ports.RoleRepository
	permissions ports.PermissionRepository
	log         zerolog.Logger
}

func NewBootstrapper(
	users ports.UserRepository,
	roles ports.RoleRepository,
	permissions ports.PermissionRepository,
	log zerolog.Logger,
) *Bootstrapper {
	return &Bootstrapper{users: users, roles: roles, permissions: permissions, log: log}
}

// Run is idempotent. adminEmail may be empty.
func (b *Bootstrapper) Run(ctx context.Context, grants []domain.Grant, adminEmail string) error {
	now := time.Now().UTC()

	permIDs := make([]string, 0, len(grants))
	for _, g := range grants {
		p, err := b.permissions.FindByGrant(ctx, g)
		if errors.Is(err, domain.ErrNotFound) {
			p, err = b.permissions.Create(ctx, &domain.Permission{
				Name:      g.String(),
				Descrip:   "builtin",
				Resource:  g.Resource,
				Method:    g.Method,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
		if err != nil {
			return fmt.Errorf("bootstrap permission %s: %w", g, err)
		}
		permIDs = append(permIDs, p.ID)
	}
	permIDs = domain.DedupIDs(permIDs)

	role, err := b.roles.FindByName(ctx, AdminRoleName)
	if errors.Is(err, domain.ErrNotFound) {
		role, err = b.roles.Create(ctx, &domain.Role{
			Name:        AdminRoleName,
			Descrip:     "Full administrative access",
			Permissions: []string{},
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin role: %w", err)
	}
	if _, err := b.roles.SetPermissions(ctx, role.ID, permIDs, now); err != nil {
		return fmt.Errorf("bootstrap admin permissions: %w", err)
	}

	if adminEmail == "" {
		return nil
	}
	user, err := b.users.FindByEmail(ctx, domain.NormalizeEmail(adminEmail))
	if errors.Is(err, domain.ErrNotFound) {
		b.log.Warn().Str("email", adminEmail).Msg("admin user not registered yet, skipping role assignment")
		return nil
	}
	if err != nil {
		return fmt.Errorf("bootstrap admin user: %w", err)
	}
	roles := domain.DedupIDs(append(append([]string{}, user.Roles...), role.ID))
	if _, err := b.users.SetRoles(ctx, user.ID, roles, now); err != nil {
		return fmt.Errorf("bootstrap admin assignment: %w", err)
	}

	b.log.Info().Str("user_id", user.ID).Int("permissions", len(permIDs)).Msg("admin role ensured")
	return nil
}
