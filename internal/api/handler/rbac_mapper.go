package handler

import (
	"github.com/accessctl/identity-api/internal/core/domain"
)

// --- Service result → HTTP response ---
// Timestamps are epoch milliseconds, matching the stored representation.

type roleResponse struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Descrip     string   `json:"descrip"`
	Permissions []string `json:"permissions"`
	CreatedAt   int64    `json:"created_at"`
	UpdatedAt   int64    `json:"updated_at"`
}

type groupResponse struct {
	ID        string   `json:"_id"`
	Name      string   `json:"name"`
	Descrip   string   `json:"descrip"`
	Roles     []string `json:"roles"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

type permissionResponse struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Descrip   string `json:"descrip"`
	Resource  string `json:"resource"`
	Method    string `json:"method"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

func toRoleResponse(r *domain.Role) roleResponse {
	return roleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Descrip:     r.Descrip,
		Permissions: orEmpty(r.Permissions),
		CreatedAt:   domain.Millis(r.CreatedAt),
		UpdatedAt:   domain.Millis(r.UpdatedAt),
	}
}

func toRoleResponses(rs []*domain.Role) []roleResponse {
	out := make([]roleResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRoleResponse(r))
	}
	return out
}

func toGroupResponse(g *domain.Group) groupResponse {
	return groupResponse{
		ID:        g.ID,
		Name:      g.Name,
		Descrip:   g.Descrip,
		Roles:     orEmpty(g.Roles),
		CreatedAt: domain.Millis(g.CreatedAt),
		UpdatedAt: domain.Millis(g.UpdatedAt),
	}
}

func toGroupResponses(gs []*domain.Group) []groupResponse {
	out := make([]groupResponse, 0, len(gs))
	for _, g := range gs {
		out = append(out, toGroupResponse(g))
	}
	return out
}

func toPermissionResponse(p *domain.Permission) permissionResponse {
	return permissionResponse{
		ID:        p.ID,
		Name:      p.Name,
		Descrip:   p.Descrip,
		Resource:  p.Resource,
		Method:    p.Method,
		CreatedAt: domain.Millis(p.CreatedAt),
		UpdatedAt: domain.Millis(p.UpdatedAt),
	}
}

func toPermissionResponses(ps []*domain.Permission) []permissionResponse {
	out := make([]permissionResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPermissionResponse(p))
	}
	return out
}

func orEmpty(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
