package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/logging"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
)

// Route policies.
var (
	// Any signed-in account may read its own profile.
	mePolicy = auth.NewPolicy(model.RoleAdmin, model.RoleSupport, model.RoleCustomer, model.RoleTest)
	// Staff read anyone; customers only themselves (see UserVoters).
	userReadPolicy = auth.NewPolicy(model.RoleAdmin, model.RoleSupport, model.RoleCustomer)
	// Role assignment is admin only.
	roleWritePolicy = auth.NewPolicy(model.RoleAdmin)
)

// UserVoters are the voters used for the /v1/users routes.
func UserVoters() []auth.Voter {
	return []auth.Voter{
		auth.RoleVoter{},
		auth.OwnershipVoter{Exempt: model.NewRoles(model.RoleAdmin, model.RoleSupport)},
	}
}

// New creates the Echo instance with the JSON error handler, panic
// recovery, request ids and request logging installed.
func New(log logrus.FieldLogger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler(log)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(logging.RequestLogger(log))
	return e
}

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/ping", handler.Ping)
}

// RegisterMetrics exposes the Prometheus registry at /metrics.
func RegisterMetrics(e *echo.Echo, h http.Handler) {
	e.GET("/metrics", echo.WrapHandler(h))
}

// RegisterAuth registers login and registration under /v1/auth. limiter
// guards the whole group.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
}

// RegisterUsers registers the protected profile routes under /v1/users.
// Every route authenticates first, so a missing or bad token is always a
// 401 and a role problem is always a 403.
func RegisterUsers(e *echo.Echo, u *handler.UsersHandler, gw *auth.Gateway, log logrus.FieldLogger, rec middleware.VerificationRecorder) {
	g := e.Group("/v1/users", middleware.Authenticate(gw, log, rec))
	g.GET("/me", u.Me, middleware.Authorize(gw, mePolicy, nil))
	g.GET("/:id", u.GetByID, middleware.Authorize(gw, userReadPolicy, middleware.OwnerParam("id")))
	g.PUT("/:id/roles", u.SetRoles, middleware.Authorize(gw, roleWritePolicy, nil))
}
