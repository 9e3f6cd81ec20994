package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
	"zorkdi/pkg/response"
)

type RateLimiter interface {
	Allow(key, action string) (bool, time.Duration)
}

// DenyFunc renders the response for a limited request.
type DenyFunc func(c echo.Context, wait time.Duration) error

// RateLimit limits action per client IP. A nil deny renders the standard
// error envelope.
func RateLimit(limiter RateLimiter, action string, deny DenyFunc) echo.MiddlewareFunc {
	if deny == nil {
		deny = func(c echo.Context, wait time.Duration) error {
			return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if ok, wait := limiter.Allow(ip, action); !ok {
				logger.Warn("RATE LIMIT: %s blocked for %s (retry in %v)", ip, action, wait)
				return deny(c, wait)
			}
			return next(c)
		}
	}
}
