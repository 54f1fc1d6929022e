package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

// RoleChecker decides whether a user holds at least the required role.
type RoleChecker interface {
	HasRole(user *domain.User, required domain.Role) bool
}

// RequireRole loads the caller attached by VerifyToken and enforces role.
// The stored role is authoritative, not the one carried in the token.
func RequireRole(users ports.UserRepository, roles RoleChecker, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok || id.ID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
			}

			user, err := users.FindByID(c.Request().Context(), id.ID)
			if err != nil {
				return err
			}
			if user == nil || !roles.HasRole(user, role) {
				return echo.NewHTTPError(http.StatusForbidden, "Forbidden")
			}
			return next(c)
		}
	}
}
