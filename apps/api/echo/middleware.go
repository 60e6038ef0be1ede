package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/iatic/ecole/core/access"
)

// requireRole rejects callers whose role is not one of roles.
func requireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := getContextIdentity(ctx)
			if err != nil {
				return err
			}
			if err = access.Require(id, roles...); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}
