package common

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-txrelay/internal/api"
)

// GetHealthyRoute is the liveness probe. It never touches downstream services.
func GetHealthyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/healthy", getHealthyHandler(s))
}

func getHealthyHandler(_ *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.String(http.StatusOK, "Healthy.")
	}
}
