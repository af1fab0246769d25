package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

// RoleService manages roles and replaces role/permission assignments.
type RoleService struct {
	roles       ports.RoleRepository
	groups      ports.GroupRepository
	users       ports.UserRepository
	permissions ports.PermissionRepository
	log         zerolog.Logger
	now         func() time.Time
}

func NewRoleService(
	roles ports.RoleRepository,
	groups ports.GroupRepository,
	users ports.UserRepository,
	permissions ports.PermissionRepository,
	log zerolog.Logger,
) *RoleService {
	return &RoleService{
		roles:       roles,
		groups:      groups,
		users:       users,
		permissions: permissions,
		log:         log,
		now:         time.Now,
	}
}

func (s *RoleService) FindAll(ctx context.Context) ([]*domain.Role, error) {
	return s.roles.FindAll(ctx)
}

func (s *RoleService) FindOne(ctx context.Context, id string) (*domain.Role, error) {
	return s.roles.FindByID(ctx, id)
}

func (s *RoleService) Create(ctx context.Context, in ports.RoleInput) (*domain.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("name is required")
	}
	now := s.now().UTC()
	role, err := s.roles.Create(ctx, &domain.Role{
		Name:        name,
		Descrip:     strings.TrimSpace(in.Descrip),
		Permissions: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("role_id", role.ID).Str("name", role.Name).Msg("role created")
	return role, nil
}

func (s *RoleService) Delete(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("role_id", role.ID).Msg("role deleted")
	return role, nil
}

// SetUserRoles replaces the user's full role set.
func (s *RoleService) SetUserRoles(ctx context.Context, userID string, roleIDs []string) (domain.UserView, error) {
	ids, err := s.resolveRoles(ctx, roleIDs)
	if err != nil {
		return domain.UserView{}, err
	}
	user, err := s.users.SetRoles(ctx, userID, ids, s.now().UTC())
	if err != nil {
		return domain.UserView{}, err
	}
	s.log.Info().Str("user_id", userID).Strs("roles", ids).Msg("user roles replaced")
	return user.View(), nil
}

// SetGroupRoles replaces the group's full role set.
func (s *RoleService) SetGroupRoles(ctx context.Context, groupID string, roleIDs []string) (*domain.Group, error) {
	ids, err := s.resolveRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	group, err := s.groups.SetRoles(ctx, groupID, ids, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("group_id", groupID).Strs("roles", ids).Msg("group roles replaced")
	return group, nil
}

// SetPermissions replaces the role's full permission set.
func (s *RoleService) SetPermissions(ctx context.Context, roleID string, permissionIDs []string) (*domain.Role, error) {
	ids := domain.DedupIDs(permissionIDs)
	found, err := s.permissions.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if missing := missingID(ids, permissionIDsOf(found)); missing != "" {
		return nil, domain.NotFound("Permission %s not found", missing)
	}
	role, err := s.roles.SetPermissions(ctx, roleID, ids, s.now().UTC())
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("role_id", roleID).Strs("permissions", ids).Msg("role permissions replaced")
	return role, nil
}

func (s *RoleService) resolveRoles(ctx context.Context, roleIDs []string) ([]string, error) {
	ids := domain.DedupIDs(roleIDs)
	found, err := s.roles.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	have := make([]string, 0, len(found))
	for _, r := range found {
		have = append(have, r.ID)
	}
	if missing := missingID(ids, have); missing != "" {
		return nil, domain.NotFound("Role %s not found", missing)
	}
	return ids, nil
}

func permissionIDsOf(perms []*domain.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.ID)
	}
	return out
}

// missingID returns the first of want not present in have.
func missingID(want, have []string) string {
	set := make(map[string]struct{}, len(have))
	for _, id := range have {
		set[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := set[id]; !ok {
			return id
		}
	}
	return ""
}
