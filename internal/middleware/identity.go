package middleware

// identity.go holds helpers shared across middleware files.

import "github.com/labstack/echo/v4"

// userID returns the authenticated principal's id, or "anon" when the
// request has not been authenticated (login and registration).
func userID(c echo.Context) string {
	if p, ok := Principal(c); ok && p.ID != "" {
		return p.ID
	}
	return "anon"
}
