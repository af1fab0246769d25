package service

import (
	"context"
	"testing"
	"time"

	"github.com/accessctl/identity-api/internal/core/domain"
)

func TestSessionRegistry_AddContainsRemove(t *testing.T) {
	users := newStubUserStore()
	revoked := newMemRevocationLog()
	reg := NewSessionRegistry(users, revoked, testLog)
	u, _ := users.Create(context.Background(), &domain.User{Email: "a@x.com"})

	s := domain.Session{ID: "sid-1", Token: "tok-1", IssuedAt: time.Now()}
	if err := reg.Add(context.Background(), u.ID, s); err != nil {
		t.Fatalf("add: %v", err)
	}
	ok, err := reg.Contains(context.Background(), u.ID, "tok-1")
	if err != nil || !ok {
		t.Fatalf("expected token to be live: %v %v", ok, err)
	}

	owner, err := reg.Remove(context.Background(), "tok-1", "reject")
	if err != nil || owner != u.ID {
		t.Fatalf("remove: owner=%q err=%v", owner, err)
	}
	if ok, _ := reg.Contains(context.Background(), u.ID, "tok-1"); ok {
		t.Fatalf("token still live after remove")
	}
	if _, ok := reg.RevokedFor(context.Background(), "tok-1"); ok {
		t.Fatalf("rejected token must not be remembered as rotated")
	}

	owner, err = reg.Remove(context.Background(), "tok-1", "reject")
	if err != nil || owner != "" {
		t.Fatalf("removing an absent token must be a no-op: owner=%q err=%v", owner, err)
	}
}

func TestSessionRegistry_RotateRemembersOldToken(t *testing.T) {
	users := newStubUserStore()
	reg := NewSessionRegistry(users, newMemRevocationLog(), testLog)
	u, _ := users.Create(context.Background(), &domain.User{Email: "a@x.com"})
	_ = reg.Add(context.Background(), u.ID, domain.Session{ID: "sid-1", Token: "old"})
	_ = reg.Add(context.Background(), u.ID, domain.Session{ID: "sid-2", Token: "kept"})

	if err := reg.Rotate(context.Background(), u.ID, "old", domain.Session{ID: "sid-1", Token: "new"}); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if got, ok := reg.RevokedFor(context.Background(), "old"); !ok || got != u.ID {
		t.Fatalf("expected rotated token remembered, got %q %v", got, ok)
	}

	if err := reg.RemoveSession(context.Background(), u.ID, "sid-2", "logout"); err != nil {
		t.Fatalf("remove session: %v", err)
	}
	if _, ok := reg.RevokedFor(context.Background(), "kept"); ok {
		t.Fatalf("logged-out token must not be remembered")
	}
}

func TestSessionRegistry_NilRevocationLog(t *testing.T) {
	users := newStubUserStore()
	reg := NewSessionRegistry(users, nil, testLog)
	u, _ := users.Create(context.Background(), &domain.User{Email: "a@x.com"})
	_ = reg.Add(context.Background(), u.ID, domain.Session{ID: "sid", Token: "tok"})

	if err := reg.Clear(context.Background(), u.ID, "logout_all"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok := reg.RevokedFor(context.Background(), "tok"); ok {
		t.Fatalf("noop log must not remember anything")
	}
}
