package handler // declare the package name; contains HTTP handlers

import (
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running. It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

type pingResp struct {
	Greeting string `json:"greeting"`
	Date     string `json:"date"`
	URL      string `json:"url"`
}

// Ping replies with a greeting, the current time and the request URL.
// Request headers are not echoed back since they may carry credentials.
func Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, pingResp{
		Greeting: "Hello from auth-service",
		Date:     time.Now().UTC().Format(time.RFC3339),
		URL:      c.Request().URL.RequestURI(),
	})
}
