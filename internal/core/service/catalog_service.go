package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

// GroupService manages groups and user membership. Role assignment lives in
// RoleService.
type GroupService struct {
	repo  ports.GroupRepository
	users ports.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewGroupService(repo ports.GroupRepository, users ports.UserRepository, log zerolog.Logger) *GroupService {
	return &GroupService{repo: repo, users: users, log: log, now: time.Now}
}

func (s *GroupService) FindAll(ctx context.Context) ([]*domain.Group, error) {
	return s.repo.FindAll(ctx)
}

func (s *GroupService) FindOne(ctx context.Context, id string) (*domain.Group, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *GroupService) Create(ctx context.Context, in ports.RoleInput) (*domain.Group, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.Validation("name is required")
	}
	now := s.now().UTC()
	group, err := s.repo.Create(ctx, &domain.Group{
		Name:      name,
		Descrip:   strings.TrimSpace(in.Descrip),
		Roles:     []string{},
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("group_id", group.ID).Str("name", group.Name).Msg("group created")
	return group, nil
}

func (s *GroupService) Delete(ctx context.Context, id string) (*domain.Group, error) {
	return s.repo.Delete(ctx, id)
}

// SetUserGroups replaces the user's full group membership. Every referenced
// group must exist.
func (s *GroupService) SetUserGroups(ctx context.Context, userID string, groupIDs []string) (domain.UserView, error) {
	ids := domain.DedupIDs(groupIDs)
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return domain.UserView{}, err
	}
	have := make([]string, 0, len(found))
	for _, g := range found {
		have = append(have, g.ID)
	}
	if missing := missingID(ids, have); missing != "" {
		return domain.UserView{}, domain.NotFound("Group %s not found", missing)
	}
	user, err := s.users.SetGroups(ctx, userID, ids, s.now().UTC())
	if err != nil {
		return domain.UserView{}, err
	}
	s.log.Info().Str("user_id", userID).Strs("groups", ids).Msg("user groups replaced")
	return user.View(), nil
}

// PermissionService manages permissions.
type PermissionService struct {
	repo ports.PermissionRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewPermissionService(repo ports.PermissionRepository, log zerolog.Logger) *PermissionService {
	return &PermissionService{repo: repo, log: log, now: time.Now}
}

func (s *PermissionService) FindAll(ctx context.Context) ([]*domain.Permission, error) {
	return s.repo.FindAll(ctx)
}

func (s *PermissionService) FindOne(ctx context.Context, id string) (*domain.Permission, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *PermissionService) Create(ctx context.Context, in ports.PermissionInput) (*domain.Permission, error) {
	g := domain.Grant{Resource: strings.TrimSpace(in.Resource), Method: strings.TrimSpace(in.Method)}
	if g.Resource == "" || g.Method == "" {
		return nil, domain.Validation("resource and method are required")
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = g.String()
	}
	now := s.now().UTC()
	p, err := s.repo.Create(ctx, &domain.Permission{
		Name:      name,
		Descrip:   strings.TrimSpace(in.Descrip),
		Resource:  g.Resource,
		Method:    g.Method,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("permission_id", p.ID).Str("grant", g.String()).Msg("permission created")
	return p, nil
}

func (s *PermissionService) Delete(ctx context.Context, id string) (*domain.Permission, error) {
	return s.repo.Delete(ctx, id)
}
