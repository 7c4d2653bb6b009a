package handler

import (
	"context" // provides context with cancellation for store calls
	"errors"
	"net/http" // HTTP status codes and primitives
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/logging"
	"github.com/iliyamo/auth-service/internal/metrics"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/service"
)

// storeTimeout bounds every store call made on behalf of a request.
const storeTimeout = 5 * time.Second

// Registerer creates accounts.
type Registerer interface {
	Register(ctx context.Context, c auth.Credentials) (auth.Principal, error)
}

// Verifier checks login credentials.
type Verifier interface {
	Verify(ctx context.Context, c auth.Credentials) (auth.Principal, error)
}

// TokenIssuer signs tokens for principals.
type TokenIssuer interface {
	Generate(p auth.Principal) (string, error)
}

// AuthRecorder counts login and registration outcomes.
type AuthRecorder interface {
	Login(result string)
	Registration(result string)
}

// AuthHandler bundles dependencies for the login and registration endpoints.
type AuthHandler struct {
	Registrar Registerer
	Verifier  Verifier
	Tokens    TokenIssuer
	Events    service.EventPublisher
	Metrics   AuthRecorder
	Log       logrus.FieldLogger
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r credentialsReq) credentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

type userPart struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

type registerResp struct {
	User userPart `json:"user"`
}

type loginResp struct {
	Token string `json:"token"`
}

// Register: validate, hash and store a new account with the default roles.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	p, err := h.Registrar.Register(ctx, req.credentials())
	if err != nil {
		h.Metrics.Registration(registrationResult(err))
		return err
	}
	h.Metrics.Registration(metrics.ResultSuccess)

	ev := queue.NewAuthEvent(queue.EventUserRegistered)
	ev.UserID = p.ID
	ev.Roles = p.Roles.Strings()
	h.emit(c, ev)

	return c.JSON(http.StatusCreated, registerResp{User: userPartOf(p)})
}

// Login: verify credentials and return a fresh token. Unknown email and
// wrong password produce the same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	p, err := h.Verifier.Verify(ctx, req.credentials())
	if err != nil {
		result := loginResult(err)
		h.Metrics.Login(result)
		if result == metrics.ResultInvalidCredentials {
			ev := queue.NewAuthEvent(queue.EventLoginFailed)
			ev.Reason = result
			h.emit(c, ev)
		}
		return err
	}

	tok, err := h.Tokens.Generate(p)
	if err != nil {
		h.Metrics.Login(metrics.ResultError)
		return err
	}
	h.Metrics.Login(metrics.ResultSuccess)

	ev := queue.NewAuthEvent(queue.EventUserLoggedIn)
	ev.UserID = p.ID
	h.emit(c, ev)

	return c.JSON(http.StatusOK, loginResp{Token: tok})
}

func (h *AuthHandler) emit(c echo.Context, ev queue.AuthEvent) {
	ev.RemoteIP = c.RealIP()
	ev.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	if err := h.Events.Publish(c.Request().Context(), ev); err != nil {
		logging.ForRequest(h.Log, c).WithError(err).WithField("event", ev.Type).Warn("publish event failed")
	}
}

func loginResult(err error) string {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return metrics.ResultInvalidCredentials
	case errors.Is(err, auth.ErrValidation):
		return metrics.ResultInvalidInput
	default:
		return metrics.ResultError
	}
}

func registrationResult(err error) string {
	switch {
	case errors.Is(err, repository.ErrEmailExists):
		return metrics.ResultConflict
	case errors.Is(err, auth.ErrValidation):
		return metrics.ResultInvalidInput
	default:
		return metrics.ResultError
	}
}

func userPartOf(p auth.Principal) userPart {
	return userPart{ID: p.ID, Email: p.Email, Roles: p.Roles.Strings()}
}
