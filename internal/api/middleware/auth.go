package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/shopmesh/platform/internal/core/domain"
	"github.com/shopmesh/platform/internal/core/ports"
)

// IdentityKey is the echo context key holding the domain.RequestIdentity.
const IdentityKey = "identity"

var errUnauthenticated = echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")

// Authenticate verifies the bearer token and attaches the caller's identity
// to both the echo context and the request context. Every failure yields the
// same 401; the reason is only logged.
func Authenticate(tokens ports.TokenVerifier, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				log.Debug().Str("path", c.Path()).Msg("missing authorization header")
				return errUnauthenticated
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				log.Debug().Str("path", c.Path()).Msg("invalid authorization header")
				return errUnauthenticated
			}

			id, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
				return errUnauthenticated
			}

			c.Set(IdentityKey, *id)
			c.SetRequest(c.Request().WithContext(domain.WithIdentity(c.Request().Context(), *id)))

			return next(c)
		}
	}
}

// Identity returns the identity set by Authenticate.
func Identity(c echo.Context) (domain.RequestIdentity, bool) {
	id, ok := c.Get(IdentityKey).(domain.RequestIdentity)
	if ok && id.SubjectID != "" {
		return id, true
	}
	return domain.IdentityFrom(c.Request().Context())
}
