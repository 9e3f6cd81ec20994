package middleware

import (
	"github.com/labstack/echo/v4"

	"zorkdi/internal/domain/entity"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/response"
)

type AdminMiddleware struct{}

func NewAdminMiddleware() *AdminMiddleware {
	return &AdminMiddleware{}
}

// AdminOnly must run after Authenticate.
func (m *AdminMiddleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get("uid").(string); !ok {
			return response.Error(c, errors.Unauthorized("Authentication required", nil))
		}

		if role, _ := c.Get("role").(entity.Role); role != entity.RoleStaff {
			return response.Error(c, errors.Forbidden("Staff privileges required", nil))
		}

		return next(c)
	}
}
