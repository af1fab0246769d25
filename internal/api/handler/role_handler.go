package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessctl/identity-api/internal/core/ports"
)

// RoleHandler serves role administration and role/permission assignment.
type RoleHandler struct {
	service ports.RoleService
}

func NewRoleHandler(service ports.RoleService) *RoleHandler {
	return &RoleHandler{service: service}
}

type roleRequest struct {
	Name    string `json:"name"    validate:"required,max=64"`
	Descrip string `json:"descrip" validate:"max=256"`
}

type setRolesRequest struct {
	Roles []string `json:"roles"`
}

type setPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// FindAll handles GET /roles.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   roleResponse
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /roles [get]
func (h *RoleHandler) FindAll(c echo.Context) error {
	roles, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponses(roles))
}

// FindOne handles GET /roles/:id.
//
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role id"
// @Success      200  {object}  roleResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /roles/{id} [get]
func (h *RoleHandler) FindOne(c echo.Context) error {
	role, err := h.service.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// Create handles POST /roles.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      roleRequest  true  "Role"
// @Success      201   {object}  roleResponse
// @Failure      422   {object}  map[string]string
// @Router       /roles [post]
func (h *RoleHandler) Create(c echo.Context) error {
	var req roleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.service.Create(c.Request().Context(), ports.RoleInput{Name: req.Name, Descrip: req.Descrip})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoleResponse(role))
}

// Delete handles DELETE /roles/:id.
//
// @Summary      Delete a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role id"
// @Success      200  {object}  roleResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /roles/{id} [delete]
func (h *RoleHandler) Delete(c echo.Context) error {
	role, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}

// AddRolesToUser handles POST /roles/addRolesToUser/:id. The given set
// replaces the user's direct roles.
//
// @Summary      Replace a user's roles
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "User id"
// @Param        body  body      setRolesRequest  true  "Role ids"
// @Success      200   {object}  domain.UserView
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /roles/addRolesToUser/{id} [post]
func (h *RoleHandler) AddRolesToUser(c echo.Context) error {
	var req setRolesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.SetUserRoles(c.Request().Context(), c.Param("id"), req.Roles)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// AddRolesToGroup handles POST /roles/addRolesToGroup/:id.
//
// @Summary      Replace a group's roles
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string           true  "Group id"
// @Param        body  body      setRolesRequest  true  "Role ids"
// @Success      200   {object}  groupResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /roles/addRolesToGroup/{id} [post]
func (h *RoleHandler) AddRolesToGroup(c echo.Context) error {
	var req setRolesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.service.SetGroupRoles(c.Request().Context(), c.Param("id"), req.Roles)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGroupResponse(group))
}

// SetPermissions handles POST /roles/:id/setPermissions.
//
// @Summary      Replace a role's permissions
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Role id"
// @Param        body  body      setPermissionsRequest  true  "Permission ids"
// @Success      200   {object}  roleResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /roles/{id}/setPermissions [post]
func (h *RoleHandler) SetPermissions(c echo.Context) error {
	var req setPermissionsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.service.SetPermissions(c.Request().Context(), c.Param("id"), req.Permissions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoleResponse(role))
}
