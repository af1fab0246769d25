package api

import (
	"net/http"
	"sort"

	"github.com/accessctl/identity-api/internal/api/middleware"
	"github.com/accessctl/identity-api/internal/core/domain"
)

// Route paths shared by the router and the policy table.
const (
	pathRoles           = "/roles"
	pathRole            = "/roles/:id"
	pathRolesToUser     = "/roles/addRolesToUser/:id"
	pathRolesToGroup    = "/roles/addRolesToGroup/:id"
	pathRolePermissions = "/roles/:id/setPermissions"
	pathGroups          = "/groups"
	pathGroup           = "/groups/:id"
	pathGroupsToUser    = "/groups/addGroupsToUser/:id"
	pathPermissions     = "/permissions"
	pathPermission      = "/permissions/:id"
	pathUsers           = "/users"
	pathUser            = "/users/:id"
)

func grant(resource, method string) domain.Grant {
	return domain.Grant{Resource: resource, Method: method}
}

// routePolicy lists the grant every administration route requires. Routes
// not listed here are bearer-only.
var routePolicy = middleware.Policy{
	middleware.RouteKey(http.MethodGet, pathRoles):            grant("roles", "query"),
	middleware.RouteKey(http.MethodGet, pathRole):             grant("roles", "query"),
	middleware.RouteKey(http.MethodPost, pathRoles):           grant("roles", "create"),
	middleware.RouteKey(http.MethodDelete, pathRole):          grant("roles", "delete"),
	middleware.RouteKey(http.MethodPost, pathRolesToUser):     grant("roles", "assign"),
	middleware.RouteKey(http.MethodPost, pathRolesToGroup):    grant("roles", "assign"),
	middleware.RouteKey(http.MethodPost, pathRolePermissions): grant("permissions", "assign"),

	middleware.RouteKey(http.MethodGet, pathGroups):        grant("groups", "query"),
	middleware.RouteKey(http.MethodGet, pathGroup):         grant("groups", "query"),
	middleware.RouteKey(http.MethodPost, pathGroups):       grant("groups", "create"),
	middleware.RouteKey(http.MethodDelete, pathGroup):      grant("groups", "delete"),
	middleware.RouteKey(http.MethodPost, pathGroupsToUser): grant("groups", "assign"),

	middleware.RouteKey(http.MethodGet, pathPermissions):   grant("permissions", "query"),
	middleware.RouteKey(http.MethodGet, pathPermission):    grant("permissions", "query"),
	middleware.RouteKey(http.MethodPost, pathPermissions):  grant("permissions", "create"),
	middleware.RouteKey(http.MethodDelete, pathPermission): grant("permissions", "delete"),

	middleware.RouteKey(http.MethodGet, pathUsers):   grant("users", "query"),
	middleware.RouteKey(http.MethodGet, pathUser):    grant("users", "query"),
	middleware.RouteKey(http.MethodPut, pathUser):    grant("users", "update"),
	middleware.RouteKey(http.MethodDelete, pathUser): grant("users", "delete"),
}

// Policy returns the route policy table.
func Policy() middleware.Policy { return routePolicy }

// PolicyGrants returns every distinct grant in the policy table, sorted, so
// startup can make sure a permission exists for each.
func PolicyGrants() []domain.Grant {
	seen := make(map[domain.Grant]struct{}, len(routePolicy))
	out := make([]domain.Grant, 0, len(routePolicy))
	for _, g := range routePolicy {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
