package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/identity"
	"github.com/adanyl0v/go-todo-tenants/internal/services"
)

type Handler interface {
	HandleLogin(c *gin.Context)
	HandleRefresh(c *gin.Context)
	HandleRegister(c *gin.Context)
	HandleLogout(c *gin.Context)
	HandleAuthMiddleware(c *gin.Context)
	HandleAdminGate(c *gin.Context)

	HandleGetTasks(c *gin.Context)
	HandleGetTask(c *gin.Context)
	HandleCreateTask(c *gin.Context)
	HandleUpdateTask(c *gin.Context)
	HandleToggleTask(c *gin.Context)
	HandleDeleteTask(c *gin.Context)

	HandleGetProfile(c *gin.Context)
	HandleUploadProfileImage(c *gin.Context)
	HandleDeleteProfileImage(c *gin.Context)
	HandleGetImage(c *gin.Context)

	HandleGetStats(c *gin.Context)
}

type Services struct {
	Auth     services.AuthService
	Tasks    services.TaskService
	Profiles services.ProfileService
	Stats    services.StatsService
	Resolver identity.Resolver
}

// GateParams configures the admin route gate.
type GateParams struct {
	AllowList   identity.AllowList
	RoutePrefix string
	SignInPath  string
}

type handlerImpl struct {
	logger   zerolog.Logger
	auth     services.AuthService
	tasks    services.TaskService
	profiles services.ProfileService
	stats    services.StatsService
	resolver identity.Resolver
	gate     GateParams
}

func New(
	logger zerolog.Logger,
	svc Services,
	gate GateParams,
) Handler {
	return &handlerImpl{
		logger:   logger,
		auth:     svc.Auth,
		tasks:    svc.Tasks,
		profiles: svc.Profiles,
		stats:    svc.Stats,
		resolver: svc.Resolver,
		gate:     gate,
	}
}
