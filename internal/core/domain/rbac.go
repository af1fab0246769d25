package domain

import (
	"strings"
	"time"
)

// Grant is the (resource, method) pair a guarded route requires.
type Grant struct {
	Resource string `json:"resource"`
	Method   string `json:"method"`
}

func (g Grant) String() string { return g.Resource + "." + g.Method }

// Permission is an atomic capability. Permissions do not inherit.
type Permission struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Descrip   string    `json:"descrip"`
	Resource  string    `json:"resource"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Grants reports whether the permission admits g.
func (p Permission) Grants(g Grant) bool {
	return p.Resource == g.Resource && p.Method == g.Method
}

// Role is a named bundle of permission references.
type Role struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Descrip     string    `json:"descrip"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Group is a named collection of users holding its own role references.
type Group struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Descrip   string    `json:"descrip"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Decision is the outcome of an authorization check.
type Decision bool

const (
	Permit Decision = true
	Deny   Decision = false
)

func (d Decision) String() string {
	if d {
		return "permit"
	}
	return "deny"
}

// CanonicalID returns id in the lower-case form the store reports it in.
func CanonicalID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// DedupIDs canonicalizes references and collapses repeats while keeping
// first-seen order.
func DedupIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = CanonicalID(id)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
