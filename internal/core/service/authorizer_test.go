package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

type rbacFixture struct {
	users  *stubUserStore
	store  *stubRBACStore
	authz  *Authorizer
	roles  *RoleService
	groups *GroupService
	perms  *PermissionService
}

func newRBACFixture() *rbacFixture {
	users := newStubUserStore()
	store := newStubRBACStore()
	roleRepo := stubRoleRepo{store}
	groupRepo := stubGroupRepo{store}
	permRepo := stubPermissionRepo{store}
	return &rbacFixture{
		users:  users,
		store:  store,
		authz:  NewAuthorizer(users, groupRepo, roleRepo, permRepo, testLog),
		roles:  NewRoleService(roleRepo, groupRepo, users, permRepo, testLog),
		groups: NewGroupService(groupRepo, users, testLog),
		perms:  NewPermissionService(permRepo, testLog),
	}
}

func (f *rbacFixture) user(t *testing.T, email string) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), &domain.User{Email: email})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *rbacFixture) permission(t *testing.T, resource, method string) *domain.Permission {
	t.Helper()
	p, err := f.perms.Create(context.Background(), ports.PermissionInput{Resource: resource, Method: method})
	if err != nil {
		t.Fatalf("create permission: %v", err)
	}
	return p
}

func (f *rbacFixture) role(t *testing.T, name string, perms ...*domain.Permission) *domain.Role {
	t.Helper()
	r, err := f.roles.Create(context.Background(), ports.RoleInput{Name: name})
	if err != nil {
		t.Fatalf("create role: %v", err)
	}
	ids := make([]string, 0, len(perms))
	for _, p := range perms {
		ids = append(ids, p.ID)
	}
	if _, err := f.roles.SetPermissions(context.Background(), r.ID, ids); err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	return r
}

func (f *rbacFixture) decide(t *testing.T, userID string, g domain.Grant) domain.Decision {
	t.Helper()
	d, err := f.authz.Authorize(context.Background(), userID, g)
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	return d
}

var rolesQuery = domain.Grant{Resource: "roles", Method: "query"}

func TestAuthorizer_NoRolesIsDenied(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	f.role(t, "reader", f.permission(t, "roles", "query"))

	if f.decide(t, u.ID, rolesQuery) != domain.Deny {
		t.Fatalf("user without roles must be denied")
	}
}

func TestAuthorizer_DirectRolePermits(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	reader := f.role(t, "reader", f.permission(t, "roles", "query"))

	if _, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{reader.ID}); err != nil {
		t.Fatalf("set roles: %v", err)
	}
	if f.decide(t, u.ID, rolesQuery) != domain.Permit {
		t.Fatalf("expected permit")
	}
	if f.decide(t, u.ID, domain.Grant{Resource: "roles", Method: "delete"}) != domain.Deny {
		t.Fatalf("expected deny for a grant the role lacks")
	}
}

func TestAuthorizer_GroupRolesAreInherited(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	reader := f.role(t, "reader", f.permission(t, "roles", "query"))

	g, err := f.groups.Create(context.Background(), ports.RoleInput{Name: "staff"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := f.roles.SetGroupRoles(context.Background(), g.ID, []string{reader.ID}); err != nil {
		t.Fatalf("set group roles: %v", err)
	}
	if _, err := f.groups.SetUserGroups(context.Background(), u.ID, []string{g.ID}); err != nil {
		t.Fatalf("set user groups: %v", err)
	}

	if f.decide(t, u.ID, rolesQuery) != domain.Permit {
		t.Fatalf("expected permit through group")
	}
}

func TestGroupService_SetUserGroups(t *testing.T) {
	f := newRBACFixture()
	ctx := context.Background()
	u := f.user(t, "a@x.com")
	staff, err := f.groups.Create(ctx, ports.RoleInput{Name: "staff"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	ops, err := f.groups.Create(ctx, ports.RoleInput{Name: "ops"})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}

	view, err := f.groups.SetUserGroups(ctx, u.ID, []string{staff.ID, strings.ToUpper(staff.ID), ops.ID})
	if err != nil {
		t.Fatalf("set groups: %v", err)
	}
	if len(view.Groups) != 2 || view.Groups[0] != staff.ID || view.Groups[1] != ops.ID {
		t.Fatalf("unexpected groups: %v", view.Groups)
	}

	view, err = f.groups.SetUserGroups(ctx, u.ID, []string{ops.ID})
	if err != nil {
		t.Fatalf("replace groups: %v", err)
	}
	if len(view.Groups) != 1 || view.Groups[0] != ops.ID {
		t.Fatalf("set must replace, got %v", view.Groups)
	}

	missing := "b" + strings.Repeat("f", 23)
	if _, err := f.groups.SetUserGroups(ctx, u.ID, []string{staff.ID, missing}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for unknown group, got %v", err)
	}
	if got := f.users.users[u.ID].Groups; len(got) != 1 || got[0] != ops.ID {
		t.Fatalf("failed set must not write, got %v", got)
	}

	if _, err := f.groups.SetUserGroups(ctx, strings.Repeat("f", 24), []string{ops.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for unknown user, got %v", err)
	}

	view, err = f.groups.SetUserGroups(ctx, u.ID, nil)
	if err != nil {
		t.Fatalf("clear groups: %v", err)
	}
	if view.Groups == nil || len(view.Groups) != 0 {
		t.Fatalf("expected empty groups, got %v", view.Groups)
	}
}

func TestAuthorizer_SetPermissionsTakesEffectImmediately(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	query := f.permission(t, "roles", "query")
	create := f.permission(t, "roles", "create")
	r := f.role(t, "editor", query)
	if _, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{r.ID}); err != nil {
		t.Fatalf("set roles: %v", err)
	}

	if f.decide(t, u.ID, rolesQuery) != domain.Permit {
		t.Fatalf("expected permit before replacement")
	}
	if _, err := f.roles.SetPermissions(context.Background(), r.ID, []string{create.ID}); err != nil {
		t.Fatalf("replace permissions: %v", err)
	}
	if f.decide(t, u.ID, rolesQuery) != domain.Deny {
		t.Fatalf("expected deny after replacement")
	}
	if f.decide(t, u.ID, domain.Grant{Resource: "roles", Method: "create"}) != domain.Permit {
		t.Fatalf("expected permit for the new permission")
	}
}

func TestAuthorizer_SetRolesReplaces(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	a := f.role(t, "A", f.permission(t, "roles", "query"))
	b := f.role(t, "B", f.permission(t, "roles", "delete"))

	if _, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{a.ID}); err != nil {
		t.Fatalf("set A: %v", err)
	}
	view, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{b.ID, b.ID})
	if err != nil {
		t.Fatalf("set B: %v", err)
	}
	if len(view.Roles) != 1 || view.Roles[0] != b.ID {
		t.Fatalf("expected only {B}, got %v", view.Roles)
	}
	if f.decide(t, u.ID, rolesQuery) != domain.Deny {
		t.Fatalf("role A must no longer be effective")
	}
	if f.decide(t, u.ID, domain.Grant{Resource: "roles", Method: "delete"}) != domain.Permit {
		t.Fatalf("role B must be effective")
	}
}

func TestAuthorizer_UnknownUserIsDenied(t *testing.T) {
	f := newRBACFixture()
	for _, id := range []string{"ffffffffffffffffffffffff", "not-an-id"} {
		if f.decide(t, id, rolesQuery) != domain.Deny {
			t.Fatalf("expected deny for %q", id)
		}
	}
}

func TestAuthorizer_EffectiveRolesCollapseDuplicates(t *testing.T) {
	f := newRBACFixture()
	r := f.role(t, "reader")
	g, _ := f.groups.Create(context.Background(), ports.RoleInput{Name: "staff"})
	_, _ = f.roles.SetGroupRoles(context.Background(), g.ID, []string{r.ID})

	user := &domain.User{Roles: []string{r.ID}, Groups: []string{g.ID}}
	ids, err := f.authz.EffectiveRoleIDs(context.Background(), user)
	if err != nil {
		t.Fatalf("effective roles: %v", err)
	}
	if len(ids) != 1 || ids[0] != r.ID {
		t.Fatalf("expected a single role, got %v", ids)
	}
}

func TestRoleService_SetRolesErrors(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	r := f.role(t, "reader")

	if _, err := f.roles.SetUserRoles(context.Background(), "not-an-id", []string{r.ID}); !errors.Is(err, domain.ErrIDNotValid) {
		t.Fatalf("expected IDNotValid for target, got %v", err)
	}
	if _, err := f.roles.SetUserRoles(context.Background(), "ffffffffffffffffffffffff", []string{r.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for target, got %v", err)
	}
	if _, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{"bad"}); !errors.Is(err, domain.ErrIDNotValid) {
		t.Fatalf("expected IDNotValid for role reference, got %v", err)
	}
	if _, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{"eeeeeeeeeeeeeeeeeeeeeeee"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for role reference, got %v", err)
	}
	if _, err := f.roles.SetPermissions(context.Background(), r.ID, []string{"eeeeeeeeeeeeeeeeeeeeeeee"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for permission reference, got %v", err)
	}
	if _, err := f.roles.SetGroupRoles(context.Background(), "ffffffffffffffffffffffff", []string{r.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound for group, got %v", err)
	}
}

func TestRoleService_AcceptsUpperCaseIDs(t *testing.T) {
	f := newRBACFixture()
	u := f.user(t, "a@x.com")
	r := f.role(t, "reader")
	p := f.permission(t, "roles", "query")

	view, err := f.roles.SetUserRoles(context.Background(), u.ID, []string{strings.ToUpper(r.ID), r.ID})
	if err != nil {
		t.Fatalf("set roles: %v", err)
	}
	if len(view.Roles) != 1 || view.Roles[0] != r.ID {
		t.Fatalf("expected canonical role id, got %v", view.Roles)
	}

	role, err := f.roles.SetPermissions(context.Background(), r.ID, []string{" " + strings.ToUpper(p.ID)})
	if err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if len(role.Permissions) != 1 || role.Permissions[0] != p.ID {
		t.Fatalf("expected canonical permission id, got %v", role.Permissions)
	}
}

func TestRoleService_CRUD(t *testing.T) {
	f := newRBACFixture()

	if _, err := f.roles.Create(context.Background(), ports.RoleInput{Name: "  "}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	r, err := f.roles.Create(context.Background(), ports.RoleInput{Name: "auditor", Descrip: "reads"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := f.roles.FindOne(context.Background(), r.ID)
	if err != nil || got.Name != "auditor" {
		t.Fatalf("find one: %v %+v", err, got)
	}
	if _, err := f.roles.FindOne(context.Background(), "not-an-id"); !errors.Is(err, domain.ErrIDNotValid) {
		t.Fatalf("expected IDNotValid, got %v", err)
	}
	if _, err := f.roles.Delete(context.Background(), r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.roles.FindOne(context.Background(), r.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
}

func TestPermissionService_Create(t *testing.T) {
	f := newRBACFixture()
	if _, err := f.perms.Create(context.Background(), ports.PermissionInput{Resource: "roles"}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	p := f.permission(t, "roles", "query")
	if p.Name != "roles.query" {
		t.Fatalf("expected default name, got %q", p.Name)
	}
}
