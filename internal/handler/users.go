package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// UserStore is the part of the user repository the profile endpoints use.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
	SetRoles(ctx context.Context, id uint64, roles model.Roles) error
}

// UsersHandler serves profile reads and role assignment. Access control
// is done by middleware before these run.
type UsersHandler struct {
	Users UserStore
}

type userResp struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
	UpdatedAt string   `json:"updated_at"`
}

type setRolesReq struct {
	Roles []string `json:"roles"`
}

// Me returns the stored profile of the authenticated principal.
func (h *UsersHandler) Me(c echo.Context) error {
	p, ok := middleware.Principal(c)
	if !ok {
		return auth.ErrUnauthenticated
	}
	id, err := strconv.ParseUint(p.ID, 10, 64)
	if err != nil {
		return auth.ErrUnauthenticated
	}
	return h.respondUser(c, id)
}

// GetByID returns the profile of /users/:id.
func (h *UsersHandler) GetByID(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	return h.respondUser(c, id)
}

// SetRoles replaces the roles of /users/:id. Only known role names are
// accepted and the set must not be empty.
func (h *UsersHandler) SetRoles(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req setRolesReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	roles := model.NewRoles(req.Roles...)
	if len(roles) == 0 {
		return &auth.ValidationError{Field: "roles", Reason: "must not be empty"}
	}
	if unknown := roles.Without(model.KnownRoles); len(unknown) > 0 {
		return &auth.ValidationError{Field: "roles", Reason: "unknown role " + strconv.Quote(unknown[0])}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()
	if err := h.Users.SetRoles(ctx, id, roles); err != nil {
		return storeError("set roles", err)
	}
	return h.respondUser(c, id)
}

func (h *UsersHandler) respondUser(c echo.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return storeError("load user", err)
	}
	return c.JSON(http.StatusOK, userResp{
		ID:        strconv.FormatUint(u.ID, 10),
		Email:     u.Email,
		Roles:     u.Roles.Strings(),
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
	})
}

func pathID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// storeError keeps ErrNotFound as is and marks everything else as a
// dependency failure.
func storeError(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return &auth.DependencyError{Op: op, Err: err}
}
