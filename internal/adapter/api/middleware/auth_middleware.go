package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	"zorkdi/internal/domain/entity"
	"zorkdi/internal/infrastructure/firebase"
	"zorkdi/pkg/errors"
	"zorkdi/pkg/logger"
	"zorkdi/pkg/response"
)

type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*firebase.Identity, error)
}

type ProfileEnsurer interface {
	EnsureProfile(ctx context.Context, uid, email, name string) (*entity.User, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	profiles ProfileEnsurer
}

func NewAuthMiddleware(verifier TokenVerifier, profiles ProfileEnsurer) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		profiles: profiles,
	}
}

// Authenticate verifies the bearer ID token and stores uid and role in the
// request context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Error(c, errors.Unauthorized("Authorization header is required", nil))
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return response.Error(c, errors.Unauthorized("Invalid authorization format", nil))
		}

		user, err := m.Identify(c.Request().Context(), parts[1])
		if err != nil {
			return response.Error(c, err)
		}

		c.Set("uid", user.ID)
		c.Set("role", user.Role)
		return next(c)
	}
}

// Identify resolves an ID token to the caller's profile, creating the
// profile on first sight.
func (m *AuthMiddleware) Identify(ctx context.Context, token string) (*entity.User, error) {
	identity, err := m.verifier.VerifyToken(ctx, token)
	if err != nil {
		logger.Debug("Token verification failed: %v", err)
		return nil, errors.Unauthorized("Invalid or expired token", err)
	}

	user, err := m.profiles.EnsureProfile(ctx, identity.UID, identity.Email, identity.Name)
	if err != nil {
		return nil, err
	}
	return user, nil
}
