package router

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/handler"
	"zorkdi/internal/adapter/api/middleware"
)

func SetupAdminRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	inboxHandler := handler.GetInboxHandler()
	contactHandler := handler.GetContactHandler()

	admin := e.Group("/v1/admin")
	admin.Use(authMiddleware.Authenticate)
	admin.Use(adminMiddleware.AdminOnly)

	admin.GET("/inbox", inboxHandler.GetInbox)
	admin.GET("/users/:id/room", inboxHandler.GetUserRoom)

	admin.GET("/contact-messages", contactHandler.List)
	admin.PATCH("/contact-messages/:id/read", contactHandler.MarkRead)
}
