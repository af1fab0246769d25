package ports

import (
	"context"
	"time"

	"github.com/accessctl/identity-api/internal/core/domain"
)

// RoleRepository persists roles.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) (*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	FindByName(ctx context.Context, name string) (*domain.Role, error)
	// FindByIDs returns the roles that exist among ids; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Role, error)
	FindAll(ctx context.Context) ([]*domain.Role, error)
	Delete(ctx context.Context, id string) (*domain.Role, error)
	SetPermissions(ctx context.Context, id string, permissionIDs []string, at time.Time) (*domain.Role, error)
}

// GroupRepository persists groups.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) (*domain.Group, error)
	FindByID(ctx context.Context, id string) (*domain.Group, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Group, error)
	FindAll(ctx context.Context) ([]*domain.Group, error)
	Delete(ctx context.Context, id string) (*domain.Group, error)
	SetRoles(ctx context.Context, id string, roleIDs []string, at time.Time) (*domain.Group, error)
}

// PermissionRepository persists permissions.
type PermissionRepository interface {
	Create(ctx context.Context, p *domain.Permission) (*domain.Permission, error)
	FindByID(ctx context.Context, id string) (*domain.Permission, error)
	FindByGrant(ctx context.Context, g domain.Grant) (*domain.Permission, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Permission, error)
	FindAll(ctx context.Context) ([]*domain.Permission, error)
	Delete(ctx context.Context, id string) (*domain.Permission, error)
}
