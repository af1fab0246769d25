package api

import (
	"net/http"
	"sync"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/accessctl/identity-api/docs"
	"github.com/accessctl/identity-api/internal/api/handler"
	"github.com/accessctl/identity-api/internal/api/middleware"
	"github.com/accessctl/identity-api/internal/core/ports"
)

// Deps carries everything the router wires into handlers and guards.
type Deps struct {
	Auth        ports.AuthService
	Users       ports.UserService
	Roles       ports.RoleService
	Groups      ports.GroupService
	Permissions ports.PermissionService
	Authorizer  ports.Authorizer
	Issuer      ports.TokenIssuer

	// Readiness checks. Redis may be nil when the revocation log is disabled.
	Mongo *mongo.Database
	Redis *redis.Client

	Log zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(httpMetrics())

	bearer := middleware.Auth(d.Issuer)
	lenient := middleware.AuthLenient(d.Issuer)
	rbac := middleware.RBAC(Policy(), d.Authorizer, d.Log)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(d.Auth)
	auth := e.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/userData", authHandler.UserData)
	auth.POST("/logout", authHandler.Logout, bearer)
	auth.POST("/logout/:token", authHandler.LogoutByToken, bearer)
	auth.POST("/token", authHandler.RenewToken, lenient)
	auth.POST("/token/reject", authHandler.RejectToken, lenient)

	// --- Administration (bearer + policy table) ---
	guarded := []echo.MiddlewareFunc{bearer, rbac}

	roleHandler := handler.NewRoleHandler(d.Roles)
	e.GET(pathRoles, roleHandler.FindAll, guarded...)
	e.POST(pathRoles, roleHandler.Create, guarded...)
	e.GET(pathRole, roleHandler.FindOne, guarded...)
	e.DELETE(pathRole, roleHandler.Delete, guarded...)
	e.POST(pathRolesToUser, roleHandler.AddRolesToUser, guarded...)
	e.POST(pathRolesToGroup, roleHandler.AddRolesToGroup, guarded...)
	e.POST(pathRolePermissions, roleHandler.SetPermissions, guarded...)

	groupHandler := handler.NewGroupHandler(d.Groups)
	e.GET(pathGroups, groupHandler.FindAll, guarded...)
	e.POST(pathGroups, groupHandler.Create, guarded...)
	e.GET(pathGroup, groupHandler.FindOne, guarded...)
	e.DELETE(pathGroup, groupHandler.Delete, guarded...)
	e.POST(pathGroupsToUser, groupHandler.AddGroupsToUser, guarded...)

	permissionHandler := handler.NewPermissionHandler(d.Permissions)
	e.GET(pathPermissions, permissionHandler.FindAll, guarded...)
	e.POST(pathPermissions, permissionHandler.Create, guarded...)
	e.GET(pathPermission, permissionHandler.FindOne, guarded...)
	e.DELETE(pathPermission, permissionHandler.Delete, guarded...)

	userHandler := handler.NewUserHandler(d.Users)
	e.GET(pathUsers, userHandler.FindAll, guarded...)
	e.GET(pathUser, userHandler.FindOne, guarded...)
	e.PUT(pathUser, userHandler.Update, guarded...)
	e.DELETE(pathUser, userHandler.Delete, guarded...)

	// --- Health checks, metrics and docs (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if d.Mongo != nil {
		e.GET("/health/ready", handler.NewReadinessHandler(d.Mongo, d.Redis).Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// httpMetrics registers the HTTP collectors once per process.
var httpMetrics = sync.OnceValue(func() echo.MiddlewareFunc {
	return echoprometheus.NewMiddleware("auth")
})

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
