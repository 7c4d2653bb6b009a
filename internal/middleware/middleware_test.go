package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/auth"
	"github.com/iliyamo/auth-service/internal/model"
)

type countingRecorder map[string]int

func (c countingRecorder) Verification(result string) { c[result]++ }

func newTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	s, err := auth.NewTokenService(auth.TokenConfig{
		Secret: "0123456789abcdef0123456789abcdef",
		Issuer: "auth-service",
		TTL:    time.Hour,
	})
	require.NoError(t, err)
	return s
}

func newContext(e *echo.Echo, header string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/v1/users/7", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate(t *testing.T) {
	tokens := newTokens(t)
	gw := auth.NewGateway(tokens)
	logger, hook := test.NewNullLogger()
	rec := countingRecorder{}

	tok, err := tokens.Generate(auth.Principal{ID: "7", Email: "a@x.com", Roles: model.NewRoles("customer")})
	require.NoError(t, err)

	var seen auth.Principal
	h := Authenticate(gw, logger, rec)(func(c echo.Context) error {
		seen, _ = Principal(c)
		return c.NoContent(http.StatusOK)
	})

	e := echo.New()
	c, _ := newContext(e, "Bearer "+tok)
	require.NoError(t, h(c))
	assert.Equal(t, "7", seen.ID)
	assert.Equal(t, 1, rec["success"])

	c, _ = newContext(e, "")
	err = h(c)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Equal(t, 1, rec["missing_token"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "missing_token", entry.Data["reason"])

	c, _ = newContext(e, "Bearer "+tok+"x")
	err = h(c)
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.Equal(t, 1, rec["invalid_token"])
	for _, en := range hook.AllEntries() {
		assert.NotContains(t, en.Message, tok)
		for _, v := range en.Data {
			assert.NotContains(t, v, tok)
		}
	}
}

func TestAuthorize(t *testing.T) {
	gw := auth.NewGateway(newTokens(t), auth.RoleVoter{}, auth.OwnershipVoter{Exempt: model.NewRoles("admin")})
	policy := auth.NewPolicy("admin", "customer")
	ok := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	run := func(p *auth.Principal, owner string) error {
		e := echo.New()
		c, _ := newContext(e, "")
		if p != nil {
			r := c.Request()
			c.SetRequest(r.WithContext(auth.WithPrincipal(r.Context(), *p)))
		}
		c.SetParamNames("id")
		c.SetParamValues(owner)
		return Authorize(gw, policy, OwnerParam("id"))(ok)(c)
	}

	customer := auth.Principal{ID: "7", Roles: model.NewRoles("customer")}
	admin := auth.Principal{ID: "1", Roles: model.NewRoles("admin")}
	guest := auth.Principal{ID: "9", Roles: model.NewRoles("test")}

	assert.NoError(t, run(&customer, "7"))
	assert.ErrorIs(t, run(&customer, "8"), auth.ErrForbidden)
	assert.NoError(t, run(&admin, "8"))
	assert.ErrorIs(t, run(&guest, "9"), auth.ErrForbidden)

	err := run(nil, "7")
	assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	assert.NotErrorIs(t, err, auth.ErrForbidden)
}
