package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/accessctl/identity-api/internal/core/domain"
	"github.com/accessctl/identity-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Missing fields are reported by the service as 403, so no validate tags here.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userDataRequest struct {
	Email string `json:"email"`
}

type renewRequest struct {
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
}

// Older clients send the refresh token as "token".
type rejectRequest struct {
	RefreshToken string `json:"refreshToken"`
	Token        string `json:"token"`
}

func (r rejectRequest) token() string {
	if r.RefreshToken != "" {
		return r.RefreshToken
	}
	return r.Token
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  domain.UserView
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Lastname: req.Lastname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Login authenticates a user and returns an access/refresh token pair.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  ports.LoginResult
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// UserData returns the profile of a logged-in user.
//
// @Summary      Get user by email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      userDataRequest  true  "User email"
// @Success      200   {object}  domain.UserView
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/userData [post]
func (h *AuthHandler) UserData(c echo.Context) error {
	var req userDataRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UserData(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// Logout closes the bearer's session, or all of them with all=true.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        all  query     bool  false  "Close every session of the user"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	all := false
	if raw := c.QueryParam("all"); raw != "" {
		if all, err = strconv.ParseBool(raw); err != nil {
			return domain.Validation("all must be a boolean")
		}
	}

	if all {
		err = h.authService.LogoutAll(c.Request().Context(), claims)
	} else {
		err = h.authService.Logout(c.Request().Context(), claims)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// LogoutByToken closes the session identified by an access or refresh token.
//
// @Summary      Logout by token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        token  path      string  true  "Access or refresh token"
// @Success      200    {object}  messageResponse
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /auth/logout/{token} [post]
func (h *AuthHandler) LogoutByToken(c echo.Context) error {
	if err := h.authService.LogoutByToken(c.Request().Context(), c.Param("token")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// RenewToken trades a refresh token for a new access token. The bearer may be
// expired; the email defaults to the one it carries.
//
// @Summary      Renew access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      renewRequest  true  "Email and refresh token"
// @Success      200   {object}  ports.LoginResult
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/token [post]
func (h *AuthHandler) RenewToken(c echo.Context) error {
	var req renewRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Email == "" {
		if claims, err := ctxClaims(c); err == nil {
			req.Email = claims.Email
		}
	}

	result, err := h.authService.Renew(c.Request().Context(), req.Email, req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// RejectToken revokes a refresh token.
//
// @Summary      Reject refresh token
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        body  body  rejectRequest  true  "Refresh token"
// @Success      204
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/token/reject [post]
func (h *AuthHandler) RejectToken(c echo.Context) error {
	var req rejectRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.Reject(c.Request().Context(), req.token()); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
