package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/sifa/core/auth"
)

// permissionMiddleware denies the request unless the authenticated caller's
// role is allowed to perform action.
func permissionMiddleware(action auth.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if auth.Allowed(claims.Role, action) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
