package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/logging"
)

// VerificationRecorder counts token verifications by result.
type VerificationRecorder interface {
	Verification(result string)
}

// Authenticate returns an Echo middleware that verifies the bearer token
// through the gateway and stores the resulting principal in the request
// context. Failures are returned as errors wrapping auth.ErrUnauthenticated
// so the error handler answers 401 before any handler logic runs.
func Authenticate(gw *auth.Gateway, log logrus.FieldLogger, rec VerificationRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := gw.Authenticate(c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				reason := auth.FailureReason(err)
				rec.Verification(reason)
				// the reason stays internal; clients only see 401
				logging.ForRequest(log, c).WithFields(logrus.Fields{
					"reason": reason,
					"path":   c.Path(),
				}).Warn("authentication failed")
				return err
			}
			rec.Verification("success")

			r := c.Request()
			c.SetRequest(r.WithContext(auth.WithPrincipal(r.Context(), p)))
			return next(c)
		}
	}
}

// Principal returns the principal stored by Authenticate.
func Principal(c echo.Context) (auth.Principal, bool) {
	return auth.PrincipalFromContext(c.Request().Context())
}
