// @title           Identity API
// @version         1.0
// @description     User, role and permission management with bearer-token sessions.
// @BasePath        /
//
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the access token.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/accessctl/identity-api/internal/api"
	"github.com/accessctl/identity-api/internal/core/ports"
	"github.com/accessctl/identity-api/internal/core/service"
	mongodb "github.com/accessctl/identity-api/internal/infrastructure/db/mongo"
	redisdb "github.com/accessctl/identity-api/internal/infrastructure/db/redis"
	"github.com/accessctl/identity-api/internal/infrastructure/security"
	"github.com/accessctl/identity-api/internal/pkg/config"
	"github.com/accessctl/identity-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	// A nil log keeps reuse detection off; the interface must stay untyped nil.
	var revocations ports.RevocationLog
	deps := api.Deps{Mongo: db, Log: log}
	if cfg.Redis.Enabled {
		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		revocations = redisdb.NewRevocationLog(rdb, cfg.Auth.RevocationTTL)
		deps.Redis = rdb
	} else {
		log.Warn().Msg("redis disabled: refresh-token reuse detection is off")
	}

	users := mongodb.NewUserRepository(db)
	roles := mongodb.NewRoleRepository(db)
	groups := mongodb.NewGroupRepository(db)
	permissions := mongodb.NewPermissionRepository(db)

	issuer := service.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL).
		WithRenewWindow(cfg.Auth.RenewWindow)
	sessions := service.NewSessionRegistry(users, revocations, logger.Component("sessions"))

	deps.Issuer = issuer
	deps.Auth = service.NewAuthService(
		users,
		sessions,
		issuer,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		service.AuthPolicy{
			RotateRefreshToken: cfg.Auth.RotateRefresh,
			RevokeAllOnReuse:   cfg.Auth.RevokeAllOnReuse,
		},
		logger.Component("auth"),
	)
	deps.Authorizer = service.NewAuthorizer(users, groups, roles, permissions, logger.Component("authz"))
	deps.Roles = service.NewRoleService(roles, groups, users, permissions, logger.Component("roles"))
	deps.Groups = service.NewGroupService(groups, users, logger.Component("groups"))
	deps.Permissions = service.NewPermissionService(permissions, logger.Component("permissions"))
	deps.Users = service.NewUserService(users, logger.Component("users"))

	boot := service.NewBootstrapper(users, roles, permissions, logger.Component("bootstrap"))
	if err := boot.Run(ctx, api.PolicyGrants(), cfg.AdminEmail); err != nil {
		return err
	}

	e := api.NewRouter(deps)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
