package routes

import (
	"github.com/gin-gonic/gin"

	"kediacrm/internal/handlers"
	"kediacrm/internal/middleware"
	"kediacrm/internal/models"
)

func SetupRoutes(
	r *gin.Engine,
	tokens middleware.TokenParser,
	accounts middleware.UserLookup,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	systemHandler *handlers.SystemHandler,
) *gin.Engine {
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	// ---- public
	r.GET("/health", systemHandler.Health)
	r.POST("/api/auth/login", authHandler.Login)

	// ---- protected
	api := r.Group("/api", middleware.AuthMiddleware(tokens, accounts))

	api.GET("/auth/verify", authHandler.Verify)
	api.GET("/me/capabilities", systemHandler.Capabilities)

	// USERS
	users := api.Group("/users")
	{
		users.GET("/staff", userHandler.Staff)
		users.GET("", adminOnly, userHandler.List)
		users.POST("", adminOnly, userHandler.Create)
		users.PUT("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	// TASKS (staff scoping and the updateSteps rule live in the task service)
	tasks := api.Group("/tasks")
	{
		tasks.GET("/dashboard/stats", taskHandler.Stats)
		tasks.GET("/dashboard/breakdown", taskHandler.Breakdown)
		tasks.GET("/report.pdf", adminOnly, taskHandler.Report)
		tasks.GET("", taskHandler.List)
		tasks.POST("", adminOnly, taskHandler.Create)
		tasks.GET("/:id", taskHandler.Get)
		tasks.PUT("/:id", taskHandler.Update)
		tasks.DELETE("/:id", adminOnly, taskHandler.Delete)
	}

	return r
}
