package router

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/handler"
	"zorkdi/internal/adapter/api/middleware"
)

func SetupUserRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	userHandler := handler.GetUserHandler()

	me := e.Group("/v1/me")
	me.Use(authMiddleware.Authenticate)

	me.GET("", userHandler.GetProfile)
	me.PUT("/device-token", userHandler.RegisterDeviceToken)
	me.DELETE("/device-token", userHandler.ClearDeviceToken)
}
