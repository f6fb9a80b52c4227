package v1

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API, the public image route and the admin
// routes. The admin gate is installed on the whole router so that every
// path under the admin prefix is covered, routed or not.
func RegisterRoutes(router *gin.Engine, h Handler, adminPrefix string) {
	router.Use(h.HandleAdminGate)

	router.GET("/images/*key", h.HandleGetImage)

	api := router.Group("/api/v1")

	authRouter := api.Group("/auth")
	authRouter.POST("/login", h.HandleLogin)
	authRouter.POST("/refresh", h.HandleRefresh)
	authRouter.POST("/register", h.HandleRegister)
	authRouter.POST("/logout", h.HandleAuthMiddleware, h.HandleLogout)

	tasksRouter := api.Group("/tasks", h.HandleAuthMiddleware)
	tasksRouter.GET("", h.HandleGetTasks)
	tasksRouter.POST("", h.HandleCreateTask)
	tasksRouter.GET("/:id", h.HandleGetTask)
	tasksRouter.PATCH("/:id", h.HandleUpdateTask)
	tasksRouter.POST("/:id/toggle", h.HandleToggleTask)
	tasksRouter.DELETE("/:id", h.HandleDeleteTask)

	profileRouter := api.Group("/profile", h.HandleAuthMiddleware)
	profileRouter.GET("", h.HandleGetProfile)
	profileRouter.POST("/image", h.HandleUploadProfileImage)
	profileRouter.DELETE("/image", h.HandleDeleteProfileImage)

	adminRouter := router.Group(adminPrefix)
	adminRouter.GET("/stats", h.HandleGetStats)
}
