package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/adanyl0v/go-todo-tenants/internal/config"
	"github.com/adanyl0v/go-todo-tenants/internal/delivery/http/v1"
	"github.com/adanyl0v/go-todo-tenants/internal/identity"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

func MustListenAndServeHTTP() {
	cfg := config.Global()
	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	httpCfg := cfg.HTTP

	router, err := newRouter(httpCfg)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Strs("trusted_proxies", httpCfg.TrustedProxies).
			Msg("failed to set trusted proxies")
		panic(err)
	}
	registerRoutes(router)

	server := &http.Server{
		Addr:    net.JoinHostPort(httpCfg.Host, httpCfg.Port),
		Handler: router,
	}

	go func() {
		globalLogger.Info().
			Str("host", httpCfg.Host).
			Str("port", httpCfg.Port).
			Msg("setting up http server")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			globalLogger.Error().
				Err(err).
				Msg("failed to listen and serve http")
			panic(err)
		}
	}()

	// Wait for the interrupt signal to gracefully
	// shut down the server within the configured timeout.
	quit := make(chan os.Signal, 1)
	// kill (no params) by default sends syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall.SIGKILL but can't be caught, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	globalLogger.Info().
		Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), httpCfg.ShutdownTimeout)
	defer cancel()

	err = server.Shutdown(ctx)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to shutdown http server")
		panic(err)
	}
	globalLogger.Info().Msg("shut down http server")
}

// newRouter builds the engine without routes. The client IP feeds the
// session fingerprint, so forwarding headers are honored only from the
// configured proxies.
func newRouter(httpCfg config.HTTPConfig) (*gin.Engine, error) {
	router := gin.New()
	router.MaxMultipartMemory = httpCfg.MaxMultipartMemory

	err := router.SetTrustedProxies(httpCfg.TrustedProxies)
	if err != nil {
		return nil, err
	}

	router.Use(requestLogger())
	router.Use(gin.Recovery())
	return router, nil
}

func registerRoutes(router *gin.Engine) {
	cfg := config.Global()
	jwtParams := newJWTParams(cfg.JWT)

	allowList := identity.ParseAllowList(cfg.Admin.Emails)
	if allowList.Len() == 0 {
		globalLogger.Warn().Msg("admin allow-list is empty, admin routes are closed")
	}

	sessionService := services.NewSessionService(globalLogger, globalPostgresPool)
	resolver := services.NewIdentityResolver(globalLogger, globalPostgresPool, sessionService, jwtParams)

	profileService, err := services.NewProfileService(globalLogger, globalPostgresPool, globalObjectStore)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to create profile service")
		panic(err)
	}

	v1Handler := v1.New(
		globalLogger,
		v1.Services{
			Auth:     services.NewAuthService(globalLogger, globalPostgresPool, jwtParams),
			Tasks:    services.NewTaskService(globalLogger, globalPostgresPool),
			Profiles: profileService,
			Stats:    services.NewStatsService(globalLogger, globalPostgresPool, resolver, allowList),
			Resolver: resolver,
		},
		v1.GateParams{
			AllowList:   allowList,
			RoutePrefix: cfg.Admin.RoutePrefix,
			SignInPath:  cfg.Admin.SignInPath,
		},
	)
	v1.RegisterRoutes(router, v1Handler, cfg.Admin.RoutePrefix)
}
