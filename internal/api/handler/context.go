package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/shopmesh/platform/internal/api/middleware"
	"github.com/shopmesh/platform/internal/core/domain"
)

// ctxIdentity returns the caller verified by the Authenticate middleware.
// A missing identity means the route was wired without it, so the request
// is treated as unauthenticated.
func ctxIdentity(c echo.Context) (domain.RequestIdentity, error) {
	id, ok := middleware.Identity(c)
	if !ok {
		return domain.RequestIdentity{}, domain.ErrUnauthenticated
	}
	return id, nil
}

// bindAndValidate decodes the request into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}
	return c.Validate(req)
}
