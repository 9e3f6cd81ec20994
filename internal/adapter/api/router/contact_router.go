package router

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/adapter/api/handler"
	"zorkdi/internal/adapter/api/middleware"
)

func SetupContactRouter(e *echo.Echo, limiter middleware.RateLimiter) {
	contactHandler := handler.GetContactHandler()

	e.POST("/api/contact", contactHandler.Submit, middleware.RateLimit(limiter, ActionContact, contactHandler.Deny))
}
