package ports

import (
	"context"

	"github.com/accessctl/identity-api/internal/core/domain"
)

// LoginResult is returned by Login and Renew.
type LoginResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RegisterInput carries a new account.
type RegisterInput struct {
	Name     string
	Surname  string
	Lastname string
	Email    string
	Password string
}

// AuthService is the authenticator: login, renewal and session revocation.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (domain.UserView, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Renew(ctx context.Context, email, refreshToken string) (*LoginResult, error)
	UserData(ctx context.Context, email string) (domain.UserView, error)
	Logout(ctx context.Context, claims domain.Claims) error
	LogoutAll(ctx context.Context, claims domain.Claims) error
	LogoutByToken(ctx context.Context, token string) error
	Reject(ctx context.Context, refreshToken string) error
}

// Authorizer decides admission for an identity and a required grant.
type Authorizer interface {
	Authorize(ctx context.Context, userID string, want domain.Grant) (domain.Decision, error)
}

// RoleInput carries a new role, group or permission name and description.
type RoleInput struct {
	Name    string
	Descrip string
}

// PermissionInput carries a new permission.
type PermissionInput struct {
	Name     string
	Descrip  string
	Resource string
	Method   string
}

// RoleService manages roles and the role/permission assignments.
type RoleService interface {
	FindAll(ctx context.Context) ([]*domain.Role, error)
	FindOne(ctx context.Context, id string) (*domain.Role, error)
	Create(ctx context.Context, in RoleInput) (*domain.Role, error)
	Delete(ctx context.Context, id string) (*domain.Role, error)
	SetUserRoles(ctx context.Context, userID string, roleIDs []string) (domain.UserView, error)
	SetGroupRoles(ctx context.Context, groupID string, roleIDs []string) (*domain.Group, error)
	SetPermissions(ctx context.Context, roleID string, permissionIDs []string) (*domain.Role, error)
}

// GroupService manages groups.
type GroupService interface {
	FindAll(ctx context.Context) ([]*domain.Group, error)
	FindOne(ctx context.Context, id string) (*domain.Group, error)
	Create(ctx context.Context, in RoleInput) (*domain.Group, error)
	Delete(ctx context.Context, id string) (*domain.Group, error)
	SetUserGroups(ctx context.Context, userID string, groupIDs []string) (domain.UserView, error)
}

// PermissionService manages permissions.
type PermissionService interface {
	FindAll(ctx context.Context) ([]*domain.Permission, error)
	FindOne(ctx context.Context, id string) (*domain.Permission, error)
	Create(ctx context.Context, in PermissionInput) (*domain.Permission, error)
	Delete(ctx context.Context, id string) (*domain.Permission, error)
}

// UserService manages user records outside of authentication.
type UserService interface {
	FindAll(ctx context.Context) ([]domain.UserView, error)
	FindOne(ctx context.Context, id string) (domain.UserView, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate) (domain.UserView, error)
	Delete(ctx context.Context, id string) (domain.UserView, error)
}
