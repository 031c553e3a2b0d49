package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shopmesh/platform/internal/core/domain"
)

var errForbidden = echo.NewHTTPError(http.StatusForbidden, "access forbidden")

// RequireRole lets the request through only when the caller holds one of
// allowedRoles. It must run after Authenticate.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Identity(c)
			if !ok {
				return errUnauthenticated
			}
			if _, ok := allowed[id.Role]; !ok {
				return errForbidden
			}
			return next(c)
		}
	}
}

// SelfOrPrivileged allows the owner of the resource named by the path
// parameter param, and admins or managers.
func SelfOrPrivileged(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := Identity(c)
			if !ok {
				return errUnauthenticated
			}
			if id.SubjectID != c.Param(param) && !id.Role.Privileged() {
				return errForbidden
			}
			return next(c)
		}
	}
}
