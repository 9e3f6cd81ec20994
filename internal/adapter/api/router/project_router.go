package router

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/handler"
	"zorkdi/internal/adapter/api/middleware"
)

func SetupProjectRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	projectHandler := handler.GetProjectHandler()

	projects := e.Group("/v1/projects")
	projects.Use(authMiddleware.Authenticate)

	projects.POST("", projectHandler.CreateProject)
	projects.GET("", projectHandler.ListProjects)
	projects.GET("/:id", projectHandler.GetProject)

	adminProjects := e.Group("/v1/admin/projects")
	adminProjects.Use(authMiddleware.Authenticate)
	adminProjects.Use(adminMiddleware.AdminOnly)

	adminProjects.PATCH("/:id/status", projectHandler.UpdateStatus)
}
