package router

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/handler"
	"zorkdi/internal/adapter/api/middleware"
)

// SetupChatRouter registers the thread routes. Staff address a participant
// with ?user_id=.
func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	threads := e.Group("/v1/threads")
	threads.Use(authMiddleware.Authenticate)

	threads.GET("", chatHandler.ListThreads)

	threads.GET("/general/messages", chatHandler.ListGeneralMessages)
	threads.POST("/general/messages", chatHandler.SendGeneralMessage)
	threads.PUT("/general/read", chatHandler.MarkGeneralRead)

	threads.GET("/projects/:projectId/messages", chatHandler.ListProjectMessages)
	threads.POST("/projects/:projectId/messages", chatHandler.SendProjectMessage)
	threads.PUT("/projects/:projectId/read", chatHandler.MarkProjectRead)
}
