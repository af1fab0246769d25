package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

type stubRoleService struct {
	ports.RoleService
	created  ports.RoleInput
	setPerms []string
}

func (s *stubRoleService) Create(_ context.Context, in ports.RoleInput) (*domain.Role, error) {
	s.created = in
	at := time.UnixMilli(1700000000000)
	return &domain.Role{ID: "r1", Name: in.Name, Descrip: in.Descrip, CreatedAt: at, UpdatedAt: at}, nil
}

func (s *stubRoleService) SetPermissions(_ context.Context, id string, ids []string) (*domain.Role, error) {
	if id != "r1" {
		return nil, domain.NotFound("ID %s not found", id)
	}
	s.setPerms = ids
	return &domain.Role{ID: id, Permissions: ids}, nil
}

func TestRoleHandler_Create(t *testing.T) {
	svc := &stubRoleService{}
	h := NewRoleHandler(svc)

	c, rec := newContext(http.MethodPost, "/roles", `{"name":"auditor","descrip":"reads"}`)
	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp roleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != "r1" || resp.CreatedAt != 1700000000000 || resp.Permissions == nil {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if svc.created.Name != "auditor" || svc.created.Descrip != "reads" {
		t.Fatalf("unexpected input: %+v", svc.created)
	}
}

func TestRoleHandler_CreateRequiresName(t *testing.T) {
	h := NewRoleHandler(&stubRoleService{})
	c, _ := newContext(http.MethodPost, "/roles", `{"descrip":"no name"}`)
	if err := h.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRoleHandler_SetPermissions(t *testing.T) {
	svc := &stubRoleService{}
	h := NewRoleHandler(svc)

	c, rec := newContext(http.MethodPost, "/roles/r1/setPermissions", `{"permissions":["p1","p2"]}`)
	c.SetParamNames("id")
	c.SetParamValues("r1")
	if err := h.SetPermissions(c); err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if rec.Code != http.StatusOK || len(svc.setPerms) != 2 {
		t.Fatalf("unexpected result: %d %v", rec.Code, svc.setPerms)
	}

	c, _ = newContext(http.MethodPost, "/roles/zz/setPermissions", `{"permissions":[]}`)
	c.SetParamNames("id")
	c.SetParamValues("zz")
	if err := h.SetPermissions(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
