package router

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/handler"
	"zorkdi/internal/adapter/api/middleware"
)

const ActionContact = "contact"

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	limiter middleware.RateLimiter,
	wsHandler *handler.WebSocketHandler,
) {
	SetupHealthRouter(e)
	SetupUserRouter(e, authMiddleware)
	SetupChatRouter(e, authMiddleware)
	SetupProjectRouter(e, authMiddleware, adminMiddleware)
	SetupAdminRouter(e, authMiddleware, adminMiddleware)
	SetupContactRouter(e, limiter)
	SetupUploadRouter(e, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
}
