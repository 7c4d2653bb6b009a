package middleware // middleware provides shared request processing for handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
)

// TargetFunc derives the accessed resource from the request.
type TargetFunc func(c echo.Context) auth.Target

// OwnerParam treats the named path parameter as the owner id of the
// resource, e.g. /users/:id.
func OwnerParam(name string) TargetFunc {
	return func(c echo.Context) auth.Target {
		return auth.Target{OwnerID: c.Param(name)}
	}
}

// Authorize returns a middleware that asks the gateway's voters whether the
// authenticated principal may proceed. It must run after Authenticate. A
// request without a principal is treated as unauthenticated, never as
// forbidden.
func Authorize(gw *auth.Gateway, policy auth.Policy, target TargetFunc) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := Principal(c)
			if !ok {
				return auth.ErrUnauthenticated
			}
			var t auth.Target
			if target != nil {
				t = target(c)
			}
			if err := gw.Authorize(p, policy, t); err != nil {
				return err
			}
			return next(c)
		}
	}
}
