package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/core/domain"
)

var testLog = zerolog.New(io.Discard)

// ---------------------------------------------------------------------------
// In-memory user store (UserRepository + SessionStore)
// ---------------------------------------------------------------------------

type stubUserStore struct {
	mu      sync.Mutex
	users   map[string]*domain.User
	next    int
	findErr error
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = append([]string(nil), u.Roles...)
	c.Groups = append([]string(nil), u.Groups...)
	c.Sessions = append([]domain.Session(nil), u.Sessions...)
	return &c
}

func (r *stubUserStore) get(id string) (*domain.User, error) {
	if len(id) != 24 {
		return nil, domain.IDNotValid("ID %s is not valid", id)
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.NotFound("ID %s not found", id)
	}
	return u, nil
}

func (r *stubUserStore) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.Validation("email %s already registered", user.Email)
		}
	}
	r.next++
	c := cloneUser(user)
	c.ID = fmt.Sprintf("%024x", r.next)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserStore) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	return cloneUser(u), nil
}

func (r *stubUserStore) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.NotFound("%s not found", email)
}

func (r *stubUserStore) FindAll(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserStore) Update(_ context.Context, id string, upd domain.UserUpdate, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Surname != nil {
		u.Surname = *upd.Surname
	}
	if upd.Lastname != nil {
		u.Lastname = *upd.Lastname
	}
	if upd.EmailVerified != nil {
		u.EmailVerified = *upd.EmailVerified
	}
	u.UpdatedAt = at
	return cloneUser(u), nil
}

func (r *stubUserStore) Delete(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	delete(r.users, id)
	return u, nil
}

func (r *stubUserStore) SetRoles(_ context.Context, id string, roleIDs []string, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	u.Roles = append([]string{}, roleIDs...)
	u.UpdatedAt = at
	return cloneUser(u), nil
}

func (r *stubUserStore) SetGroups(_ context.Context, id string, groupIDs []string, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(id)
	if err != nil {
		return nil, err
	}
	u.Groups = append([]string{}, groupIDs...)
	u.UpdatedAt = at
	return cloneUser(u), nil
}

func (r *stubUserStore) AppendSession(_ context.Context, userID string, s domain.Session, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	u.Sessions = append(u.Sessions, s)
	u.LoggedIn = true
	u.LastLogin = at
	return nil
}

func (r *stubUserStore) HasSession(_ context.Context, userID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(userID)
	if err != nil {
		return false, err
	}
	_, ok := u.SessionByToken(token)
	return ok, nil
}

func (r *stubUserStore) RotateSession(_ context.Context, userID, oldToken string, next domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(userID)
	if err != nil {
		return err
	}
	for i, s := range u.Sessions {
		if s.Token == oldToken {
			u.Sessions[i] = next
			return nil
		}
	}
	return domain.NotFound("session not found")
}

func (r *stubUserStore) pull(u *domain.User, keep func(domain.Session) bool, at time.Time) []string {
	var removed []string
	kept := u.Sessions[:0]
	for _, s := range u.Sessions {
		if keep(s) {
			kept = append(kept, s)
			continue
		}
		removed = append(removed, s.Token)
	}
	u.Sessions = kept
	u.LastLogout = at
	u.LoggedIn = len(kept) > 0
	return removed
}

func (r *stubUserStore) RemoveSessionByToken(_ context.Context, token string, at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, u := range r.users {
		if _, ok := u.SessionByToken(token); ok {
			r.pull(u, func(s domain.Session) bool { return s.Token != token }, at)
			return id, nil
		}
	}
	return "", nil
}

func (r *stubUserStore) RemoveSession(_ context.Context, userID, sessionID string, at time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(userID)
	if err != nil {
		return "", err
	}
	removed := r.pull(u, func(s domain.Session) bool { return s.ID != sessionID }, at)
	if len(removed) == 0 {
		return "", nil
	}
	return removed[0], nil
}

func (r *stubUserStore) ClearSessions(_ context.Context, userID string, at time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, err := r.get(userID)
	if err != nil {
		return nil, err
	}
	return r.pull(u, func(domain.Session) bool { return false }, at), nil
}

func (r *stubUserStore) sessions(userID string) []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Session(nil), r.users[userID].Sessions...)
}

// ---------------------------------------------------------------------------
// In-memory role / group / permission repositories
// ---------------------------------------------------------------------------

type stubRBACStore struct {
	roles  map[string]*domain.Role
	groups map[string]*domain.Group
	perms  map[string]*domain.Permission
	next   int
}

func newStubRBACStore() *stubRBACStore {
	return &stubRBACStore{
		roles:  make(map[string]*domain.Role),
		groups: make(map[string]*domain.Group),
		perms:  make(map[string]*domain.Permission),
	}
}

func (s *stubRBACStore) id(prefix string) string {
	s.next++
	return fmt.Sprintf("%s%0*x", prefix, 24-len(prefix), s.next)
}

func checkID(id string) error {
	if len(id) != 24 {
		return domain.IDNotValid("ID %s is not valid", id)
	}
	return nil
}

func checkIDs(ids []string) error {
	for _, id := range ids {
		if err := checkID(id); err != nil {
			return err
		}
	}
	return nil
}

type stubRoleRepo struct{ *stubRBACStore }

func (r stubRoleRepo) Create(_ context.Context, role *domain.Role) (*domain.Role, error) {
	for _, existing := range r.roles {
		if existing.Name == role.Name {
			return nil, domain.Validation("role %s already exists", role.Name)
		}
	}
	c := *role
	c.ID = r.id("a")
	r.roles[c.ID] = &c
	out := c
	return &out, nil
}

func (r stubRoleRepo) FindByID(_ context.Context, id string) (*domain.Role, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.NotFound("ID %s not found", id)
	}
	c := *role
	return &c, nil
}

func (r stubRoleRepo) FindByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range r.roles {
		if role.Name == name {
			c := *role
			return &c, nil
		}
	}
	return nil, domain.NotFound("role %s not found", name)
}

func (r stubRoleRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Role, error) {
	if err := checkIDs(ids); err != nil {
		return nil, err
	}
	var out []*domain.Role
	for _, id := range ids {
		if role, ok := r.roles[id]; ok {
			c := *role
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubRoleRepo) FindAll(_ context.Context) ([]*domain.Role, error) {
	var out []*domain.Role
	for _, role := range r.roles {
		c := *role
		out = append(out, &c)
	}
	return out, nil
}

func (r stubRoleRepo) Delete(ctx context.Context, id string) (*domain.Role, error) {
	role, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(r.roles, id)
	return role, nil
}

func (r stubRoleRepo) SetPermissions(_ context.Context, id string, permissionIDs []string, at time.Time) (*domain.Role, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	role, ok := r.roles[id]
	if !ok {
		return nil, domain.NotFound("ID %s not found", id)
	}
	role.Permissions = append([]string{}, permissionIDs...)
	role.UpdatedAt = at
	c := *role
	return &c, nil
}

type stubGroupRepo struct{ *stubRBACStore }

func (r stubGroupRepo) Create(_ context.Context, g *domain.Group) (*domain.Group, error) {
	c := *g
	c.ID = r.id("b")
	r.groups[c.ID] = &c
	out := c
	return &out, nil
}

func (r stubGroupRepo) FindByID(_ context.Context, id string) (*domain.Group, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	g, ok := r.groups[id]
	if !ok {
		return nil, domain.NotFound("ID %s not found", id)
	}
	c := *g
	return &c, nil
}

func (r stubGroupRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Group, error) {
	if err := checkIDs(ids); err != nil {
		return nil, err
	}
	var out []*domain.Group
	for _, id := range ids {
		if g, ok := r.groups[id]; ok {
			c := *g
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubGroupRepo) FindAll(_ context.Context) ([]*domain.Group, error) {
	var out []*domain.Group
	for _, g := range r.groups {
		c := *g
		out = append(out, &c)
	}
	return out, nil
}

func (r stubGroupRepo) Delete(ctx context.Context, id string) (*domain.Group, error) {
	g, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(r.groups, id)
	return g, nil
}

func (r stubGroupRepo) SetRoles(_ context.Context, id string, roleIDs []string, at time.Time) (*domain.Group, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	g, ok := r.groups[id]
	if !ok {
		return nil, domain.NotFound("ID %s not found", id)
	}
	g.Roles = append([]string{}, roleIDs...)
	g.UpdatedAt = at
	c := *g
	return &c, nil
}

type stubPermissionRepo struct{ *stubRBACStore }

func (r stubPermissionRepo) Create(_ context.Context, p *domain.Permission) (*domain.Permission, error) {
	c := *p
	c.ID = r.id("c")
	r.perms[c.ID] = &c
	out := c
	return &out, nil
}

func (r stubPermissionRepo) FindByID(_ context.Context, id string) (*domain.Permission, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	p, ok := r.perms[id]
	if !ok {
		return nil, domain.NotFound("ID %s not found", id)
	}
	c := *p
	return &c, nil
}

func (r stubPermissionRepo) FindByGrant(_ context.Context, g domain.Grant) (*domain.Permission, error) {
	for _, p := range r.perms {
		if p.Grants(g) {
			c := *p
			return &c, nil
		}
	}
	return nil, domain.NotFound("permission %s not found", g)
}

func (r stubPermissionRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Permission, error) {
	if err := checkIDs(ids); err != nil {
		return nil, err
	}
	var out []*domain.Permission
	for _, id := range ids {
		if p, ok := r.perms[id]; ok {
			c := *p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r stubPermissionRepo) FindAll(_ context.Context) ([]*domain.Permission, error) {
	var out []*domain.Permission
	for _, p := range r.perms {
		c := *p
		out = append(out, &c)
	}
	return out, nil
}

func (r stubPermissionRepo) Delete(ctx context.Context, id string) (*domain.Permission, error) {
	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(r.perms, id)
	return p, nil
}

// ---------------------------------------------------------------------------
// Capabilities
// ---------------------------------------------------------------------------

// plainHasher keeps tests fast; bcrypt is covered by the security package.
type plainHasher struct{ compares int }

func (h *plainHasher) Hash(password string) (string, error) { return "digest:" + password, nil }

func (h *plainHasher) Compare(password, digest string) bool {
	h.compares++
	return digest == "digest:"+password
}

type memRevocationLog struct {
	owners map[string]string
}

func newMemRevocationLog() *memRevocationLog {
	return &memRevocationLog{owners: make(map[string]string)}
}

func (l *memRevocationLog) MarkRevoked(_ context.Context, token, userID string) error {
	l.owners[token] = userID
	return nil
}

func (l *memRevocationLog) RevokedFor(_ context.Context, token string) (string, bool, error) {
	owner, ok := l.owners[token]
	return owner, ok, nil
}
