package common

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github/chapool/go-txrelay/internal/api"
	"github/chapool/go-txrelay/internal/util"
)

// statusNotReady is returned while a dependency is unavailable.
const statusNotReady = 521

func GetReadyRoute(s *api.Server) *echo.Route {
	return s.Router.Management.GET("/ready", getReadyHandler(s))
}

func getReadyHandler(s *api.Server) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.Ready() {
			return c.String(statusNotReady, "Not ready.")
		}

		ctx, cancel := context.WithTimeout(c.Request().Context(), s.Config.Management.ReadinessTimeout)
		defer cancel()

		if err := s.Relay.Ping(ctx); err != nil {
			util.LogFromContext(ctx).Warn().Err(err).Msg("Relay is not reachable")
			return c.String(statusNotReady, "Not ready.")
		}

		if s.DB != nil {
			if err := s.DB.PingContext(ctx); err != nil {
				util.LogFromContext(ctx).Warn().Err(err).Msg("Database is not reachable")
				return c.String(statusNotReady, "Not ready.")
			}
		}

		if s.Redis != nil {
			if err := s.Redis.Ping(ctx).Err(); err != nil {
				util.LogFromContext(ctx).Warn().Err(err).Msg("Redis is not reachable")
				return c.String(statusNotReady, "Not ready.")
			}
		}

		return c.String(http.StatusOK, "Ready.")
	}
}
