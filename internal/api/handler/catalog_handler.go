package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/accessctl/identity-api/internal/core/ports"
)

// GroupHandler serves group administration.
type GroupHandler struct {
	service ports.GroupService
}

func NewGroupHandler(service ports.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// FindAll handles GET /groups.
//
// @Summary      List groups
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   groupResponse
// @Router       /groups [get]
func (h *GroupHandler) FindAll(c echo.Context) error {
	groups, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGroupResponses(groups))
}

// FindOne handles GET /groups/:id.
//
// @Summary      Get a group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Group id"
// @Success      200  {object}  groupResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /groups/{id} [get]
func (h *GroupHandler) FindOne(c echo.Context) error {
	group, err := h.service.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGroupResponse(group))
}

// Create handles POST /groups.
//
// @Summary      Create a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      roleRequest  true  "Group"
// @Success      201   {object}  groupResponse
// @Failure      422   {object}  map[string]string
// @Router       /groups [post]
func (h *GroupHandler) Create(c echo.Context) error {
	var req roleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.service.Create(c.Request().Context(), ports.RoleInput{Name: req.Name, Descrip: req.Descrip})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toGroupResponse(group))
}

// Delete handles DELETE /groups/:id.
//
// @Summary      Delete a group
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Group id"
// @Success      200  {object}  groupResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /groups/{id} [delete]
func (h *GroupHandler) Delete(c echo.Context) error {
	group, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGroupResponse(group))
}

type setGroupsRequest struct {
	Groups []string `json:"groups"`
}

// AddGroupsToUser handles POST /groups/addGroupsToUser/:id. The given set
// replaces the user's group memberships.
//
// @Summary      Replace a user's groups
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "User id"
// @Param        body  body      setGroupsRequest  true  "Group ids"
// @Success      200   {object}  domain.UserView
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /groups/addGroupsToUser/{id} [post]
func (h *GroupHandler) AddGroupsToUser(c echo.Context) error {
	var req setGroupsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.SetUserGroups(c.Request().Context(), c.Param("id"), req.Groups)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// PermissionHandler serves permission administration.
type PermissionHandler struct {
	service ports.PermissionService
}

func NewPermissionHandler(service ports.PermissionService) *PermissionHandler {
	return &PermissionHandler{service: service}
}

type permissionRequest struct {
	Name     string `json:"name"     validate:"max=64"`
	Descrip  string `json:"descrip"  validate:"max=256"`
	Resource string `json:"resource" validate:"required,max=64"`
	Method   string `json:"method"   validate:"required,max=64"`
}

// FindAll handles GET /permissions.
//
// @Summary      List permissions
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   permissionResponse
// @Router       /permissions [get]
func (h *PermissionHandler) FindAll(c echo.Context) error {
	perms, err := h.service.FindAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponses(perms))
}

// FindOne handles GET /permissions/:id.
//
// @Summary      Get a permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Permission id"
// @Success      200  {object}  permissionResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /permissions/{id} [get]
func (h *PermissionHandler) FindOne(c echo.Context) error {
	perm, err := h.service.FindOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}

// Create handles POST /permissions.
//
// @Summary      Create a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      permissionRequest  true  "Permission"
// @Success      201   {object}  permissionResponse
// @Failure      422   {object}  map[string]string
// @Router       /permissions [post]
func (h *PermissionHandler) Create(c echo.Context) error {
	var req permissionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	perm, err := h.service.Create(c.Request().Context(), ports.PermissionInput{
		Name:     req.Name,
		Descrip:  req.Descrip,
		Resource: req.Resource,
		Method:   req.Method,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPermissionResponse(perm))
}

// Delete handles DELETE /permissions/:id.
//
// @Summary      Delete a permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Permission id"
// @Success      200  {object}  permissionResponse
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /permissions/{id} [delete]
func (h *PermissionHandler) Delete(c echo.Context) error {
	perm, err := h.service.Delete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionResponse(perm))
}
